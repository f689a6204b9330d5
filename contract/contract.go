package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/rollup-relayer/contract/abi"
	"github.com/omni/rollup-relayer/ethclient"
)

type Contract struct {
	address common.Address
	client  ethclient.Client
	abi     abi.ABI
}

func NewContract(client ethclient.Client, addr common.Address, abi abi.ABI) *Contract {
	return &Contract{addr, client, abi}
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) ABI() *abi.ABI {
	return &c.abi
}

func (c *Contract) AllEvents() map[string]bool {
	return c.abi.AllEvents()
}

func (c *Contract) EventID(name string) common.Hash {
	return c.abi.EventID(name)
}

func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot encode abi calldata: %w", err)
	}
	return data, nil
}

// Call executes a view method against the latest block and returns its decoded outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	res, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot call %s(...): %w", method, err)
	}
	values, err := c.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s(...) result: %w", method, err)
	}
	return values, nil
}

func (c *Contract) ParseLog(log *types.Log) (string, map[string]interface{}, error) {
	return c.abi.ParseLog(log)
}

// UnpackRevert decodes the revert reason carried by an rpc error, if there is one.
func (c *Contract) UnpackRevert(err error) (*abi.Revert, bool) {
	data, ok := RevertData(err)
	if !ok {
		return nil, false
	}
	return c.abi.UnpackRevert(data)
}
