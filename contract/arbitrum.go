package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/contract/abi"
	"github.com/omni/rollup-relayer/ethclient"
)

type OutboxContract struct {
	*Contract
}

func NewOutboxContract(client ethclient.Client, addr common.Address) *OutboxContract {
	return &OutboxContract{NewContract(client, addr, abi.ArbOutboxABI)}
}

func (c *OutboxContract) IsSpent(ctx context.Context, position *big.Int) (bool, error) {
	res, err := c.Call(ctx, "isSpent", position)
	if err != nil {
		return false, fmt.Errorf("cannot obtain outbox spent status: %w", err)
	}
	return outputBool(res)
}

type ExecuteTransactionArgs struct {
	Proof       [][32]byte
	Index       *big.Int
	L2Sender    common.Address
	To          common.Address
	L2Block     *big.Int
	L1Block     *big.Int
	L2Timestamp *big.Int
	Value       *big.Int
	Data        []byte
}

func (c *OutboxContract) PackExecuteTransaction(args *ExecuteTransactionArgs) ([]byte, error) {
	return c.Pack("executeTransaction",
		args.Proof, args.Index, args.L2Sender, args.To,
		args.L2Block, args.L1Block, args.L2Timestamp, args.Value, args.Data,
	)
}

type NodeInterfaceContract struct {
	*Contract
}

func NewNodeInterfaceContract(client ethclient.Client, addr common.Address) *NodeInterfaceContract {
	return &NodeInterfaceContract{NewContract(client, addr, abi.NodeInterfaceABI)}
}

type OutboxProof struct {
	Send  common.Hash
	Root  common.Hash
	Proof [][32]byte
}

func (c *NodeInterfaceContract) ConstructOutboxProof(ctx context.Context, size, leaf uint64) (*OutboxProof, error) {
	res, err := c.Call(ctx, "constructOutboxProof", size, leaf)
	if err != nil {
		return nil, fmt.Errorf("cannot construct outbox proof: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("%w: expected 3 values, got %d", ErrUnexpectedOutput, len(res))
	}
	send, ok1 := res[0].([32]byte)
	root, ok2 := res[1].([32]byte)
	proof, ok3 := res[2].([][32]byte)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("%w: malformed constructOutboxProof result", ErrUnexpectedOutput)
	}
	return &OutboxProof{Send: send, Root: root, Proof: proof}, nil
}
