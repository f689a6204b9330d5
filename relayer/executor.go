package relayer

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/signer"
	"github.com/omni/rollup-relayer/utils"
)

var errRelayReverted = errors.New("relay transaction reverted")

type ExecutorOptions struct {
	Confirmations       uint64
	ConfirmationTimeout time.Duration
	PollInterval        time.Duration
}

// Executor drives a classified message to completion on L1.
type Executor struct {
	logger     logging.Logger
	messenger  Messenger
	classifier *StatusClassifier
	l1         ethclient.Client
	signer     signer.Signer
	opts       ExecutorOptions
	onRace     func()
}

func NewExecutor(logger logging.Logger, messenger Messenger, l1 ethclient.Client, s signer.Signer, opts ExecutorOptions) *Executor {
	if opts.Confirmations == 0 {
		opts.Confirmations = 1
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Executor{
		logger:     logger,
		messenger:  messenger,
		classifier: NewStatusClassifier(messenger),
		l1:         l1,
		signer:     s,
		opts:       opts,
		onRace:     func() {},
	}
}

func (e *Executor) Relay(ctx context.Context, msg *entity.BridgeMessage, state entity.MessageState) (*entity.RelayReceipt, error) {
	logger := e.logger.WithField("message_id", msg.ID().String())
	switch state {
	case entity.StateNotReady:
		return nil, &NotReadyError{MessageID: msg.ID()}
	case entity.StateAlreadyRelayed:
		logger.Info("message is already relayed, looking up existing relay transaction")
		return e.existingReceipt(ctx, msg)
	case entity.StateReadyForRelay:
		return e.submit(ctx, logger, msg)
	default:
		return nil, &UnrelayableMessageError{MessageID: msg.ID(), State: state}
	}
}

func (e *Executor) submit(ctx context.Context, logger logging.Logger, msg *entity.BridgeMessage) (*entity.RelayReceipt, error) {
	if e.signer == nil {
		return nil, &RelaySubmissionError{MessageID: msg.ID(), Err: errors.New("no signer configured")}
	}

	res, err := e.messenger.Submit(ctx, msg, e.signer)
	if err != nil {
		return nil, &RelaySubmissionError{MessageID: msg.ID(), Err: err}
	}
	if res.Outcome == OutcomeAlreadyRelayed {
		return e.raced(ctx, logger, msg)
	}

	logger = logger.WithField("relay_tx_hash", res.TxHash)
	logger.Info("submitted relay transaction, waiting for confirmations")

	receipt, confirmations, err := e.waitForConfirmations(ctx, logger, res.TxHash)
	if err != nil {
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		// A reverted relay is most likely a race with a concurrent relayer included first.
		state, err := e.classifier.Classify(ctx, msg)
		if err != nil {
			return nil, err
		}
		if state == entity.StateAlreadyRelayed {
			return e.raced(ctx, logger, msg)
		}
		return nil, &RelaySubmissionError{MessageID: msg.ID(), TxHash: &res.TxHash, Err: errRelayReverted}
	}

	if err = e.messenger.CheckRelayReceipt(msg, receipt); err != nil {
		return nil, &RelaySubmissionError{MessageID: msg.ID(), TxHash: &res.TxHash, Err: err}
	}

	logger.WithField("confirmations", confirmations).Info("relay transaction confirmed")
	return &entity.RelayReceipt{
		TxHash:        res.TxHash,
		Confirmations: confirmations,
		BlockNumber:   receipt.BlockNumber.Uint64(),
		Submitted:     true,
	}, nil
}

func (e *Executor) raced(ctx context.Context, logger logging.Logger, msg *entity.BridgeMessage) (*entity.RelayReceipt, error) {
	logger.Warn("message relayed by another party, using the existing relay transaction")
	e.onRace()
	return e.existingReceipt(ctx, msg)
}

func (e *Executor) existingReceipt(ctx context.Context, msg *entity.BridgeMessage) (*entity.RelayReceipt, error) {
	txHash, err := e.messenger.FindRelay(ctx, msg)
	if errors.Is(err, ErrRelayTxNotFound) {
		return nil, &RelayNotFoundError{MessageID: msg.ID(), Err: err}
	}
	if err != nil {
		return nil, &TransientQueryError{Op: "find relay transaction of message " + msg.ID().String(), Err: err}
	}
	receipt, err := e.l1.TransactionReceiptByHash(ctx, txHash)
	if err != nil {
		return nil, &TransientQueryError{Op: "get relay receipt " + txHash.String(), Err: err}
	}
	head, err := e.l1.BlockNumber(ctx)
	if err != nil {
		return nil, &TransientQueryError{Op: "get L1 head", Err: err}
	}
	return &entity.RelayReceipt{
		TxHash:        txHash,
		Confirmations: confirmationsAt(receipt, head),
		BlockNumber:   receipt.BlockNumber.Uint64(),
	}, nil
}

func confirmationsAt(receipt *types.Receipt, head uint64) uint64 {
	block := receipt.BlockNumber.Uint64()
	if head < block {
		return 0
	}
	return head - block + 1
}

// waitForConfirmations polls until the receipt of txHash is buried under the configured number of blocks.
// It gives up after ConfirmationTimeout or on cancellation, leaving the outcome of the transaction unknown.
func (e *Executor) waitForConfirmations(ctx context.Context, logger logging.Logger, txHash common.Hash) (*types.Receipt, uint64, error) {
	waitCtx := ctx
	if e.opts.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.opts.ConfirmationTimeout)
		defer cancel()
	}

	for {
		receipt, err := e.l1.TransactionReceiptByHash(waitCtx, txHash)
		switch {
		case err == nil && receipt != nil:
			head, err := e.l1.BlockNumber(waitCtx)
			if err != nil {
				logger.WithError(err).Warn("can't get L1 head, will retry")
				break
			}
			confirmations := confirmationsAt(receipt, head)
			if confirmations >= e.opts.Confirmations {
				return receipt, confirmations, nil
			}
			logger.WithField("confirmations", confirmations).Debug("waiting for more confirmations")
		case err != nil && !errors.Is(err, ethereum.NotFound):
			logger.WithError(err).Warn("can't get relay receipt, will retry")
		}

		if utils.ContextSleep(waitCtx, e.opts.PollInterval) == nil {
			return nil, 0, &ConfirmationTimeoutError{TxHash: txHash, Err: waitCtx.Err()}
		}
	}
}
