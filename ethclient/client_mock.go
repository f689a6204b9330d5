package ethclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/stretchr/testify/mock"
)

type ClientMock struct {
	mock.Mock
}

var _ Client = (*ClientMock)(nil)

func (m *ClientMock) ChainID() uint64 {
	arg0, _ := m.Called().Get(0).(uint64)

	return arg0
}

func (m *ClientMock) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	arg0, _ := args.Get(0).(uint64)

	return arg0, args.Error(1)
}

func (m *ClientMock) HeaderByNumber(ctx context.Context, n uint64) (*types.Header, error) {
	args := m.Called(ctx, n)
	arg0, _ := args.Get(0).(*types.Header)

	return arg0, args.Error(1)
}

func (m *ClientMock) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	args := m.Called(ctx, hash)
	arg0, _ := args.Get(0).(*types.Header)

	return arg0, args.Error(1)
}

func (m *ClientMock) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	args := m.Called(ctx, q)
	arg0, _ := args.Get(0).([]types.Log)

	return arg0, args.Error(1)
}

func (m *ClientMock) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	args := m.Called(ctx, hash)
	arg0, _ := args.Get(0).(*types.Transaction)

	return arg0, args.Error(1)
}

func (m *ClientMock) TransactionReceiptByHash(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	arg0, _ := args.Get(0).(*types.Receipt)

	return arg0, args.Error(1)
}

func (m *ClientMock) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	args := m.Called(ctx, msg)
	arg0, _ := args.Get(0).([]byte)

	return arg0, args.Error(1)
}

func (m *ClientMock) GetProof(
	ctx context.Context, account common.Address, keys []string, blockNumber uint64,
) (*gethclient.AccountResult, error) {
	args := m.Called(ctx, account, keys, blockNumber)
	arg0, _ := args.Get(0).(*gethclient.AccountResult)

	return arg0, args.Error(1)
}

func (m *ClientMock) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	arg0, _ := args.Get(0).(uint64)

	return arg0, args.Error(1)
}

func (m *ClientMock) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	arg0, _ := args.Get(0).(*big.Int)

	return arg0, args.Error(1)
}

func (m *ClientMock) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	args := m.Called(ctx, msg)
	arg0, _ := args.Get(0).(uint64)

	return arg0, args.Error(1)
}

func (m *ClientMock) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}
