package relayer_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omni/rollup-relayer/config"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/relayer"
	"github.com/omni/rollup-relayer/signer"
)

var (
	relayTxHash    = common.HexToHash("0xabc")
	existingTxHash = common.HexToHash("0xdef")
)

type journalStub struct {
	mu       sync.Mutex
	attempts []*entity.RelayAttempt
}

func (j *journalStub) Insert(_ context.Context, attempt *entity.RelayAttempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append(j.attempts, attempt)
	return nil
}

func (j *journalStub) FindByTxHash(context.Context, string, common.Hash) ([]*entity.RelayAttempt, error) {
	return j.attempts, nil
}

func (j *journalStub) FindLatestRelayed(context.Context, string, common.Hash) (*entity.RelayAttempt, error) {
	return nil, nil
}

type testEnv struct {
	relayer   *relayer.Relayer
	messenger *relayer.MessengerMock
	l1        *ethclient.ClientMock
	signer    *signer.SignerMock
	journal   *journalStub
	logs      *logtest.Hook
}

func newTestEnv(opts relayer.ExecutorOptions) *testEnv {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		messenger: new(relayer.MessengerMock),
		l1:        new(ethclient.ClientMock),
		signer:    new(signer.SignerMock),
		journal:   new(journalStub),
		logs:      hook,
	}
	registry := relayer.NewRegistry(relayer.FamilyDef{
		Family:   "optimism",
		ChainIDs: []entity.ChainID{10, 420},
		Factory:  factoryFor(env.messenger),
	})
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	if opts.ConfirmationTimeout == 0 {
		opts.ConfirmationTimeout = time.Second
	}
	env.relayer = relayer.NewRelayer(
		logger,
		registry,
		&relayer.Chain{Config: &config.ChainConfig{Name: "l1", ChainID: 1}, Client: env.l1},
		[]*relayer.Chain{{Config: &config.ChainConfig{Name: "optimism", ChainID: 10}, Client: new(ethclient.ClientMock)}},
		env.signer,
		relayer.Options{Executor: opts, Journal: env.journal},
	)
	env.messenger.On("MessagesByTransaction", mock.Anything, l2TxHash).Return([]*entity.BridgeMessage{testMsg}, nil)
	return env
}

func (env *testEnv) expectReceipt(txHash common.Hash, block int64, status uint64) {
	env.l1.On("TransactionReceiptByHash", mock.Anything, txHash).Return(&types.Receipt{
		TxHash:      txHash,
		Status:      status,
		BlockNumber: big.NewInt(block),
	}, nil)
}

func (env *testEnv) warnings() []string {
	var res []string
	for _, entry := range env.logs.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			res = append(res, entry.Message)
		}
	}
	return res
}

func TestRelayer_RelayReadyMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{Confirmations: 1})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.messenger.On("CheckRelayReceipt", testMsg, mock.Anything).Return(nil).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	receipt, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.NoError(t, err)
	require.Equal(t, relayTxHash, receipt.TxHash)
	require.Equal(t, uint64(1), receipt.Confirmations)
	require.Equal(t, uint64(100), receipt.BlockNumber)
	require.True(t, receipt.Submitted)
	env.messenger.AssertNumberOfCalls(t, "Submit", 1)

	require.Len(t, env.journal.attempts, 1)
	attempt := env.journal.attempts[0]
	require.Equal(t, "10", attempt.ChainID)
	require.Equal(t, "optimism", attempt.Family)
	require.Equal(t, relayTxHash, *attempt.RelayTxHash)
	require.Equal(t, testMsg.Hash, *attempt.MessageHash)
	require.True(t, attempt.Submitted)
	require.Nil(t, attempt.Error)
}

func TestRelayer_RelayWaitsForConfirmations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{Confirmations: 3})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.messenger.On("CheckRelayReceipt", testMsg, mock.Anything).Return(nil).Once()
	env.l1.On("TransactionReceiptByHash", mock.Anything, relayTxHash).Return(nil, ethereum.NotFound).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil).Once()
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(101), nil).Once()
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(102), nil)

	receipt, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.NoError(t, err)
	require.Equal(t, uint64(3), receipt.Confirmations)
	env.l1.AssertNumberOfCalls(t, "BlockNumber", 3)
}

func TestRelayer_RelayRaceDuringSubmission(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeAlreadyRelayed}, nil).Once()
	env.messenger.On("FindRelay", mock.Anything, testMsg).Return(existingTxHash, nil).Once()
	env.expectReceipt(existingTxHash, 90, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	receipt, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.NoError(t, err)
	require.Equal(t, existingTxHash, receipt.TxHash)
	require.Equal(t, uint64(11), receipt.Confirmations)
	require.False(t, receipt.Submitted)
	require.Len(t, env.warnings(), 1)
	require.True(t, strings.Contains(env.warnings()[0], "another party"))
}

func TestRelayer_RelayRaceRevertedReceipt(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateAlreadyRelayed, nil).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.messenger.On("FindRelay", mock.Anything, testMsg).Return(existingTxHash, nil).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusFailed)
	env.expectReceipt(existingTxHash, 99, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	receipt, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.NoError(t, err)
	require.Equal(t, existingTxHash, receipt.TxHash)
	require.False(t, receipt.Submitted)
	require.Len(t, env.warnings(), 1)
	env.messenger.AssertNotCalled(t, "CheckRelayReceipt", mock.Anything, mock.Anything)
}

func TestRelayer_RelayRevertedReceipt(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Twice()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusFailed)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	var submission *relayer.RelaySubmissionError
	require.ErrorAs(t, err, &submission)
	require.Equal(t, relayTxHash, *submission.TxHash)
	require.False(t, relayer.IsRetryable(err))
	env.messenger.AssertNumberOfCalls(t, "Submit", 1)
}

func TestRelayer_RelayRevertedReceiptStatusUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateUnknown, errors.New("503 service unavailable")).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusFailed)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	var transient *relayer.TransientQueryError
	require.ErrorAs(t, err, &transient)
	require.True(t, relayer.IsRetryable(err))
	var submission *relayer.RelaySubmissionError
	require.False(t, errors.As(err, &submission))
}

func TestRelayer_RelayIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateAlreadyRelayed, nil).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.messenger.On("CheckRelayReceipt", testMsg, mock.Anything).Return(nil).Once()
	env.messenger.On("FindRelay", mock.Anything, testMsg).Return(relayTxHash, nil).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	first, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.NoError(t, err)
	second, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.NoError(t, err)

	require.Equal(t, first.TxHash, second.TxHash)
	require.True(t, first.Submitted)
	require.False(t, second.Submitted)
	env.messenger.AssertNumberOfCalls(t, "Submit", 1)
	env.signer.AssertNotCalled(t, "Transact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, env.journal.attempts, 2)
}

func TestRelayer_RelayTerminalStates(t *testing.T) {
	t.Parallel()

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(relayer.ExecutorOptions{})
		env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateNotReady, nil)
		_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
		var notReady *relayer.NotReadyError
		require.ErrorAs(t, err, &notReady)
		require.Equal(t, testMsg.ID(), notReady.MessageID)
		require.True(t, relayer.IsRetryable(err))
		env.messenger.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})

	for _, state := range []entity.MessageState{entity.StateRelayFailed, entity.StateUnknown} {
		state := state
		t.Run(state.String(), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(relayer.ExecutorOptions{})
			env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(state, nil)
			_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
			var unrelayable *relayer.UnrelayableMessageError
			require.ErrorAs(t, err, &unrelayable)
			require.Equal(t, state, unrelayable.State)
			require.False(t, relayer.IsRetryable(err))
			env.messenger.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRelayer_RelayUnsupportedChain(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	_, err := env.relayer.Relay(context.Background(), 9372855, l2TxHash)
	var unsupported *relayer.UnsupportedChainError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, entity.ChainID(9372855), unsupported.ChainID)
	require.Contains(t, err.Error(), "9372855")
	require.Empty(t, env.journal.attempts)

	_, err = env.relayer.Relay(context.Background(), 420, l2TxHash)
	require.ErrorIs(t, err, relayer.ErrChainNotConfigured)
}

func TestRelayer_RelaySubmissionFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	sendErr := errors.New("insufficient funds for gas * price + value")
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil)
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).Return(nil, sendErr).Once()

	_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	var submission *relayer.RelaySubmissionError
	require.ErrorAs(t, err, &submission)
	require.ErrorIs(t, err, sendErr)
	require.Nil(t, submission.TxHash)
	require.NotNil(t, env.journal.attempts[0].Error)
}

func TestRelayer_RelayExecutionFailed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil)
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.messenger.On("CheckRelayReceipt", testMsg, mock.Anything).Return(relayer.ErrRelayExecutionFailed)
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.ErrorIs(t, err, relayer.ErrRelayExecutionFailed)
}

func TestRelayer_RelayConfirmationTimeout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{ConfirmationTimeout: 30 * time.Millisecond, PollInterval: 5 * time.Millisecond})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil)
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.l1.On("TransactionReceiptByHash", mock.Anything, relayTxHash).Return(nil, ethereum.NotFound)

	start := time.Now()
	_, err := env.relayer.Relay(context.Background(), 10, l2TxHash)
	require.Less(t, time.Since(start), time.Second)
	var timeout *relayer.ConfirmationTimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, relayTxHash, timeout.TxHash)
	require.True(t, relayer.IsRetryable(err))
	env.messenger.AssertNumberOfCalls(t, "Submit", 1)
}

func TestRelayer_RelayWhenReady(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateNotReady, nil).Twice()
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateReadyForRelay, nil).Once()
	env.messenger.On("Submit", mock.Anything, testMsg, env.signer).
		Return(&relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: relayTxHash}, nil).Once()
	env.messenger.On("CheckRelayReceipt", testMsg, mock.Anything).Return(nil).Once()
	env.expectReceipt(relayTxHash, 100, types.ReceiptStatusSuccessful)
	env.l1.On("BlockNumber", mock.Anything).Return(uint64(100), nil)

	receipt, err := env.relayer.RelayWhenReady(context.Background(), 10, l2TxHash, time.Millisecond, time.Second)
	require.NoError(t, err)
	require.Equal(t, relayTxHash, receipt.TxHash)
	env.messenger.AssertNumberOfCalls(t, "MessageStatus", 3)
}

func TestRelayer_RelayWhenReadyStopsOnFatalError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateRelayFailed, nil)

	_, err := env.relayer.RelayWhenReady(context.Background(), 10, l2TxHash, time.Millisecond, time.Second)
	var unrelayable *relayer.UnrelayableMessageError
	require.ErrorAs(t, err, &unrelayable)
	env.messenger.AssertNumberOfCalls(t, "MessageStatus", 1)
}

func TestRelayer_RelayWhenReadyStopsOnMissingRelayTx(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateAlreadyRelayed, nil)
	env.messenger.On("FindRelay", mock.Anything, testMsg).
		Return(common.Hash{}, fmt.Errorf("RelayedMessage(%s): %w", testMsg.Hash, relayer.ErrRelayTxNotFound))

	_, err := env.relayer.RelayWhenReady(context.Background(), 10, l2TxHash, time.Millisecond, time.Second)
	var notFound *relayer.RelayNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.ErrorIs(t, err, relayer.ErrRelayTxNotFound)
	require.False(t, relayer.IsRetryable(err))
	env.messenger.AssertNumberOfCalls(t, "FindRelay", 1)
	env.messenger.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelayer_Status(t *testing.T) {
	t.Parallel()

	env := newTestEnv(relayer.ExecutorOptions{})
	env.messenger.On("MessageStatus", mock.Anything, testMsg).Return(entity.StateNotReady, nil)

	status, err := env.relayer.Status(context.Background(), 10, l2TxHash)
	require.NoError(t, err)
	require.Same(t, testMsg, status.Message)
	require.Equal(t, entity.StateNotReady, status.State)

	require.Equal(t, []relayer.ChainInfo{
		{ChainID: 10, Family: "optimism", Configured: true},
		{ChainID: 420, Family: "optimism", Configured: false},
	}, env.relayer.Chains())
}
