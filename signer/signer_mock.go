package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/omni/rollup-relayer/ethclient"
)

type SignerMock struct {
	mock.Mock
}

var _ Signer = (*SignerMock)(nil)

func (m *SignerMock) Address() common.Address {
	arg0, _ := m.Called().Get(0).(common.Address)

	return arg0
}

func (m *SignerMock) Transact(ctx context.Context, client ethclient.Client, to common.Address, data []byte) (*types.Transaction, error) {
	args := m.Called(ctx, client, to, data)
	arg0, _ := args.Get(0).(*types.Transaction)

	return arg0, args.Error(1)
}
