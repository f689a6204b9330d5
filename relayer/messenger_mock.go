package relayer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/signer"
)

type MessengerMock struct {
	mock.Mock
}

var _ Messenger = (*MessengerMock)(nil)

func (m *MessengerMock) MessagesByTransaction(ctx context.Context, txHash common.Hash) ([]*entity.BridgeMessage, error) {
	args := m.Called(ctx, txHash)
	arg0, _ := args.Get(0).([]*entity.BridgeMessage)

	return arg0, args.Error(1)
}

func (m *MessengerMock) MessageStatus(ctx context.Context, msg *entity.BridgeMessage) (entity.MessageState, error) {
	args := m.Called(ctx, msg)
	arg0, _ := args.Get(0).(entity.MessageState)

	return arg0, args.Error(1)
}

func (m *MessengerMock) Submit(ctx context.Context, msg *entity.BridgeMessage, s signer.Signer) (*SubmitResult, error) {
	args := m.Called(ctx, msg, s)
	arg0, _ := args.Get(0).(*SubmitResult)

	return arg0, args.Error(1)
}

func (m *MessengerMock) FindRelay(ctx context.Context, msg *entity.BridgeMessage) (common.Hash, error) {
	args := m.Called(ctx, msg)
	arg0, _ := args.Get(0).(common.Hash)

	return arg0, args.Error(1)
}

func (m *MessengerMock) CheckRelayReceipt(msg *entity.BridgeMessage, receipt *types.Receipt) error {
	return m.Called(msg, receipt).Error(0)
}
