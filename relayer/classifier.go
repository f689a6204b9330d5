package relayer

import (
	"context"

	"github.com/omni/rollup-relayer/entity"
)

// StatusClassifier reads the lifecycle state of a message. Nothing is cached between calls.
type StatusClassifier struct {
	messenger Messenger
}

func NewStatusClassifier(messenger Messenger) *StatusClassifier {
	return &StatusClassifier{messenger: messenger}
}

func (c *StatusClassifier) Classify(ctx context.Context, msg *entity.BridgeMessage) (entity.MessageState, error) {
	state, err := c.messenger.MessageStatus(ctx, msg)
	if err != nil {
		return entity.StateUnknown, &TransientQueryError{Op: "get status of message " + msg.ID().String(), Err: err}
	}
	return state, nil
}
