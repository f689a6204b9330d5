package relayer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/signer"
)

type MessageStatus struct {
	Message *entity.BridgeMessage
	State   entity.MessageState
}

// Service relays messages of one L2 chain through its family messenger.
type Service struct {
	chainID    entity.ChainID
	family     Family
	logger     logging.Logger
	resolver   *MessageResolver
	classifier *StatusClassifier
	executor   *Executor
}

func NewService(
	logger logging.Logger,
	chainID entity.ChainID,
	family Family,
	messenger Messenger,
	l1 ethclient.Client,
	s signer.Signer,
	opts ExecutorOptions,
) *Service {
	executor := NewExecutor(logger, messenger, l1, s, opts)
	executor.onRace = func() {
		RelayRaces.WithLabelValues(chainID.String(), string(family)).Inc()
	}
	return &Service{
		chainID:    chainID,
		family:     family,
		logger:     logger,
		resolver:   NewMessageResolver(messenger),
		classifier: NewStatusClassifier(messenger),
		executor:   executor,
	}
}

func (s *Service) Family() Family {
	return s.family
}

// Status resolves and classifies the message of txHash without writing anything.
func (s *Service) Status(ctx context.Context, txHash common.Hash) (*MessageStatus, error) {
	msg, err := s.resolver.ResolveMessage(ctx, txHash)
	if err != nil {
		return nil, err
	}
	state, err := s.classifier.Classify(ctx, msg)
	if err != nil {
		return &MessageStatus{Message: msg, State: entity.StateUnknown}, err
	}
	return &MessageStatus{Message: msg, State: state}, nil
}

func (s *Service) Relay(ctx context.Context, txHash common.Hash) (*entity.RelayReceipt, error) {
	_, receipt, err := s.relay(ctx, txHash)
	return receipt, err
}

func (s *Service) relay(ctx context.Context, txHash common.Hash) (*MessageStatus, *entity.RelayReceipt, error) {
	status, err := s.Status(ctx, txHash)
	if err != nil {
		return status, nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"message_id":   status.Message.ID().String(),
		"message_hash": status.Message.Hash,
		"state":        status.State,
	}).Info("classified bridge message")

	receipt, err := s.executor.Relay(ctx, status.Message, status.State)
	return status, receipt, err
}
