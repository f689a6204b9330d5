package relayer

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/entity"
)

var (
	ErrChainNotConfigured   = errors.New("chain is not configured")
	ErrRelayExecutionFailed = errors.New("relayed message execution failed on L1")
)

type UnsupportedChainError struct {
	ChainID entity.ChainID
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("no relayer program found for %s", e.ChainID)
}

type NoMessageFoundError struct {
	TxHash common.Hash
}

func (e *NoMessageFoundError) Error() string {
	return fmt.Sprintf("no bridge message found in transaction %s", e.TxHash)
}

type AmbiguousMessageError struct {
	TxHash common.Hash
	Count  int
}

func (e *AmbiguousMessageError) Error() string {
	return fmt.Sprintf("transaction %s emitted %d bridge messages, expected exactly one", e.TxHash, e.Count)
}

// TransientQueryError marks a failed chain read. Re-invoking the whole relay is safe.
type TransientQueryError struct {
	Op  string
	Err error
}

func (e *TransientQueryError) Error() string {
	return fmt.Sprintf("can't %s: %s", e.Op, e.Err)
}

func (e *TransientQueryError) Unwrap() error {
	return e.Err
}

type NotReadyError struct {
	MessageID entity.MessageID
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("message %s is not yet ready for relay", e.MessageID)
}

type UnrelayableMessageError struct {
	MessageID entity.MessageID
	State     entity.MessageState
}

func (e *UnrelayableMessageError) Error() string {
	return fmt.Sprintf("message %s can't be relayed in state %s", e.MessageID, e.State)
}

type RelaySubmissionError struct {
	MessageID entity.MessageID
	TxHash    *common.Hash
	Err       error
}

func (e *RelaySubmissionError) Error() string {
	if e.TxHash != nil {
		return fmt.Sprintf("relay of message %s failed in tx %s: %s", e.MessageID, e.TxHash, e.Err)
	}
	return fmt.Sprintf("relay of message %s failed: %s", e.MessageID, e.Err)
}

func (e *RelaySubmissionError) Unwrap() error {
	return e.Err
}

// RelayNotFoundError means the message is reported relayed but its relay transaction is not in the searched L1 range.
// Retrying won't help until the configured start block is moved back.
type RelayNotFoundError struct {
	MessageID entity.MessageID
	Err       error
}

func (e *RelayNotFoundError) Error() string {
	return fmt.Sprintf("message %s is already relayed, but its relay transaction can't be found: %s", e.MessageID, e.Err)
}

func (e *RelayNotFoundError) Unwrap() error {
	return e.Err
}

// ConfirmationTimeoutError means the outcome of the submitted tx is unknown; re-check the status before resubmitting.
type ConfirmationTimeoutError struct {
	TxHash common.Hash
	Err    error
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for confirmations of tx %s", e.TxHash)
}

func (e *ConfirmationTimeoutError) Unwrap() error {
	return e.Err
}

// RelayError decorates any relay failure with the chain and transaction it was about.
type RelayError struct {
	ChainID entity.ChainID
	TxHash  common.Hash
	Err     error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("chain %s, tx %s: %s", e.ChainID, e.TxHash, e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether re-invoking the relay later may succeed.
func IsRetryable(err error) bool {
	var (
		notReady  *NotReadyError
		transient *TransientQueryError
		timeout   *ConfirmationTimeoutError
	)
	return errors.As(err, &notReady) || errors.As(err, &transient) || errors.As(err, &timeout)
}
