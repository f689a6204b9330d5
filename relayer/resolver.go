package relayer

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/entity"
)

type MessageResolver struct {
	messenger Messenger
}

func NewMessageResolver(messenger Messenger) *MessageResolver {
	return &MessageResolver{messenger: messenger}
}

// ResolveMessage returns the single bridge message emitted by the L2 transaction.
func (r *MessageResolver) ResolveMessage(ctx context.Context, txHash common.Hash) (*entity.BridgeMessage, error) {
	msgs, err := r.messenger.MessagesByTransaction(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, &NoMessageFoundError{TxHash: txHash}
	}
	if err != nil {
		return nil, &TransientQueryError{Op: "get bridge messages of " + txHash.String(), Err: err}
	}
	switch len(msgs) {
	case 0:
		return nil, &NoMessageFoundError{TxHash: txHash}
	case 1:
		return msgs[0], nil
	default:
		return nil, &AmbiguousMessageError{TxHash: txHash, Count: len(msgs)}
	}
}
