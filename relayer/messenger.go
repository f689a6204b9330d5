package relayer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/rollup-relayer/config"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/signer"
)

var (
	ErrRelayTxNotFound = errors.New("relay transaction not found")
	ErrMissingContract = errors.New("contract address is not configured")
)

type Family string

type SubmitOutcome int

const (
	OutcomeSubmitted SubmitOutcome = iota
	// OutcomeAlreadyRelayed means another party finalized the message before our transaction was sent.
	OutcomeAlreadyRelayed
)

func (o SubmitOutcome) String() string {
	if o == OutcomeAlreadyRelayed {
		return "already_relayed"
	}
	return "submitted"
}

type SubmitResult struct {
	Outcome SubmitOutcome
	TxHash  common.Hash
}

// Messenger is the chain family specific view of the L2 to L1 bridge.
type Messenger interface {
	// MessagesByTransaction returns every bridge message emitted by the L2 transaction, in log order.
	MessagesByTransaction(ctx context.Context, txHash common.Hash) ([]*entity.BridgeMessage, error)
	MessageStatus(ctx context.Context, msg *entity.BridgeMessage) (entity.MessageState, error)
	// Submit sends at most one L1 finalization transaction for msg.
	Submit(ctx context.Context, msg *entity.BridgeMessage, s signer.Signer) (*SubmitResult, error)
	// FindRelay returns the hash of the L1 transaction that finalized msg, or ErrRelayTxNotFound.
	FindRelay(ctx context.Context, msg *entity.BridgeMessage) (common.Hash, error)
	// CheckRelayReceipt inspects a successful L1 receipt for a failed inner message call.
	CheckRelayReceipt(msg *entity.BridgeMessage, receipt *types.Receipt) error
}

// Env carries everything a family needs to build a Messenger for one L2 chain.
type Env struct {
	ChainID entity.ChainID
	L1      ethclient.Client
	L2      ethclient.Client
	L1Chain *config.ChainConfig
	L2Chain *config.ChainConfig
	Logger  logging.Logger
}

type MessengerFactory func(env *Env) (Messenger, error)

// Contract returns the configured address of the named contract, falling back to defaults.
func (e *Env) Contract(name string, defaults map[string]common.Address) (common.Address, error) {
	if e.L2Chain != nil {
		if addr, ok := e.L2Chain.Contracts[name]; ok {
			return addr, nil
		}
	}
	if addr, ok := defaults[name]; ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("%s on chain %s: %w", name, e.ChainID, ErrMissingContract)
}

// SearchRange returns the L1 block range to scan for bridge events, ending at head.
func (e *Env) SearchRange(head uint64) (from, to, maxSize uint64) {
	from, to, maxSize = e.RelayRange(head)
	if e.L1Chain != nil {
		lookback := e.L1Chain.LookbackBlocks
		if lookback > 0 && head >= lookback && head-lookback > from {
			from = head - lookback
		}
	}
	return from, to, maxSize
}

// RelayRange returns the L1 block range that may hold the relay of an already relayed message.
// Relays can be arbitrarily old, so it is not limited by the lookback window.
func (e *Env) RelayRange(head uint64) (from, to, maxSize uint64) {
	if e.L1Chain != nil {
		from, maxSize = e.L1Chain.StartBlock, e.L1Chain.MaxBlockRangeSize
	}
	if maxSize == 0 {
		maxSize = head + 1
	}
	return from, head, maxSize
}
