package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/utils"
)

var ErrInvalidGasMultiplier = errors.New("gas limit multiplier must be at least 1")

// Signer submits L1 transactions from a single account.
type Signer interface {
	Address() common.Address
	Transact(ctx context.Context, client ethclient.Client, to common.Address, data []byte) (*types.Transaction, error)
}

// Submissions from the same account are serialized process-wide, regardless of
// how many KeySigner instances share the key.
var accountLocks sync.Map

func lockAccount(addr common.Address) func() {
	mu, _ := accountLocks.LoadOrStore(addr, new(sync.Mutex))
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

type KeySigner struct {
	key                *ecdsa.PrivateKey
	address            common.Address
	gasLimitMultiplier float64
}

var _ Signer = (*KeySigner)(nil)

func NewKeySigner(key *ecdsa.PrivateKey, gasLimitMultiplier float64) (*KeySigner, error) {
	if gasLimitMultiplier < 1 {
		return nil, ErrInvalidGasMultiplier
	}
	return &KeySigner{
		key:                key,
		address:            utils.AddressFromKey(key),
		gasLimitMultiplier: gasLimitMultiplier,
	}, nil
}

func NewKeySignerFromHex(hexKey string, gasLimitMultiplier float64) (*KeySigner, error) {
	key, err := utils.ParsePrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(key, gasLimitMultiplier)
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

// Transact estimates, signs and broadcasts a dynamic fee transaction calling `to` with `data`.
// Gas estimation errors are returned wrapped, so callers can inspect the revert data.
func (s *KeySigner) Transact(ctx context.Context, client ethclient.Client, to common.Address, data []byte) (*types.Transaction, error) {
	unlock := lockAccount(s.address)
	defer unlock()

	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From: s.address,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't estimate gas: %w", err)
	}

	nonce, err := client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("can't get pending nonce: %w", err)
	}

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get gas tip cap: %w", err)
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get latest block number: %w", err)
	}
	header, err := client.HeaderByNumber(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("can't get latest block header: %w", err)
	}

	feeCap := new(big.Int).Set(tipCap)
	if header.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(header.BaseFee, big.NewInt(2)))
	}

	chainID := new(big.Int).SetUint64(client.ChainID())
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       uint64(float64(gas) * s.gasLimitMultiplier),
		To:        &to,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("can't sign transaction: %w", err)
	}

	if err = client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("can't send transaction %s: %w", signed.Hash(), err)
	}
	return signed, nil
}
