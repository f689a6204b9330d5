package relayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/rollup-relayer/config"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/signer"
)

type Chain struct {
	Config *config.ChainConfig
	Client ethclient.Client
}

type Options struct {
	Executor ExecutorOptions
	// Journal is optional. When set, every relay outcome is recorded there.
	Journal entity.RelayAttemptsRepo
}

// Relayer is safe for concurrent use: a fresh Service is built for every call
// and all message state is read from chain.
type Relayer struct {
	logger   logging.Logger
	registry *Registry
	l1       *Chain
	chains   map[entity.ChainID]*Chain
	signer   signer.Signer
	opts     Options
}

func NewRelayer(logger logging.Logger, registry *Registry, l1 *Chain, l2 []*Chain, s signer.Signer, opts Options) *Relayer {
	chains := make(map[entity.ChainID]*Chain, len(l2))
	for _, chain := range l2 {
		chains[entity.ChainID(chain.Config.ChainID)] = chain
	}
	return &Relayer{
		logger:   logger,
		registry: registry,
		l1:       l1,
		chains:   chains,
		signer:   s,
		opts:     opts,
	}
}

type ChainInfo struct {
	ChainID    entity.ChainID `json:"chainId"`
	Family     Family         `json:"family"`
	Configured bool           `json:"configured"`
}

func (r *Relayer) Chains() []ChainInfo {
	ids := r.registry.ChainIDs()
	res := make([]ChainInfo, 0, len(ids))
	for _, id := range ids {
		_, family, _ := r.registry.Resolve(id)
		_, ok := r.chains[id]
		res = append(res, ChainInfo{ChainID: id, Family: family, Configured: ok})
	}
	return res
}

func (r *Relayer) service(chainID entity.ChainID, logger logging.Logger) (*Service, error) {
	factory, family, err := r.registry.Resolve(chainID)
	if err != nil {
		return nil, err
	}
	chain, ok := r.chains[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChainNotConfigured, chainID)
	}
	logger = logger.WithField("family", family)
	messenger, err := factory(&Env{
		ChainID: chainID,
		L1:      r.l1.Client,
		L2:      chain.Client,
		L1Chain: r.l1.Config,
		L2Chain: chain.Config,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init %s messenger: %w", family, err)
	}
	return NewService(logger, chainID, family, messenger, r.l1.Client, r.signer, r.opts.Executor), nil
}

// Status resolves and classifies the message emitted by the L2 transaction without relaying it.
func (r *Relayer) Status(ctx context.Context, chainID entity.ChainID, txHash common.Hash) (*MessageStatus, error) {
	logger := r.logger.WithFields(logrus.Fields{
		"chain_id": chainID.String(),
		"tx_hash":  txHash,
	})
	svc, err := r.service(chainID, logger)
	if err != nil {
		return nil, &RelayError{ChainID: chainID, TxHash: txHash, Err: err}
	}
	status, err := svc.Status(ctx, txHash)
	if err != nil {
		return status, &RelayError{ChainID: chainID, TxHash: txHash, Err: err}
	}
	return status, nil
}

// Relay finalizes on L1 the single bridge message emitted by the L2 transaction.
func (r *Relayer) Relay(ctx context.Context, chainID entity.ChainID, txHash common.Hash) (*entity.RelayReceipt, error) {
	start := time.Now()
	logger := r.logger.WithFields(logrus.Fields{
		"chain_id": chainID.String(),
		"tx_hash":  txHash,
	})

	var (
		family  Family
		status  *MessageStatus
		receipt *entity.RelayReceipt
	)
	svc, err := r.service(chainID, logger)
	if err == nil {
		family = svc.Family()
		status, receipt, err = svc.relay(ctx, txHash)
	}

	familyLabel := string(family)
	if familyLabel == "" {
		familyLabel = "unknown"
	}
	RelayResults.WithLabelValues(chainID.String(), familyLabel, resultLabel(err, receipt != nil && receipt.Submitted)).Inc()
	RelayDurations.WithLabelValues(chainID.String(), familyLabel).Observe(time.Since(start).Seconds())
	if family != "" {
		r.recordAttempt(ctx, logger, chainID, family, txHash, status, receipt, err)
	}

	if err != nil {
		var notReady *NotReadyError
		if errors.As(err, &notReady) {
			logger.Info("message is not ready for relay yet")
		} else {
			logger.WithError(err).Error("relay failed")
		}
		return nil, &RelayError{ChainID: chainID, TxHash: txHash, Err: err}
	}
	logger.WithFields(logrus.Fields{
		"relay_tx_hash": receipt.TxHash,
		"confirmations": receipt.Confirmations,
		"submitted":     receipt.Submitted,
	}).Info("message relayed")
	return receipt, nil
}

func (r *Relayer) recordAttempt(
	ctx context.Context,
	logger logging.Logger,
	chainID entity.ChainID,
	family Family,
	txHash common.Hash,
	status *MessageStatus,
	receipt *entity.RelayReceipt,
	relayErr error,
) {
	if r.opts.Journal == nil {
		return
	}
	attempt := &entity.RelayAttempt{
		ChainID: chainID.String(),
		TxHash:  txHash,
		Family:  string(family),
		State:   entity.StateUnknown.String(),
	}
	if status != nil {
		msgHash := status.Message.Hash
		attempt.MessageHash = &msgHash
		attempt.State = status.State.String()
	}
	if receipt != nil {
		relayTxHash := receipt.TxHash
		attempt.RelayTxHash = &relayTxHash
		attempt.Confirmations = receipt.Confirmations
		attempt.Submitted = receipt.Submitted
		attempt.State = entity.StateAlreadyRelayed.String()
	}
	if relayErr != nil {
		msg := relayErr.Error()
		attempt.Error = &msg
	}
	if err := r.opts.Journal.Insert(ctx, attempt); err != nil {
		logger.WithError(err).Error("can't record relay attempt")
	}
}
