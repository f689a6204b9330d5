package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type RelayAttempt struct {
	ID            uint         `db:"id"`
	ChainID       string       `db:"chain_id"`
	TxHash        common.Hash  `db:"tx_hash"`
	MessageHash   *common.Hash `db:"message_hash"`
	Family        string       `db:"family"`
	State         string       `db:"state"`
	RelayTxHash   *common.Hash `db:"relay_tx_hash"`
	Confirmations uint64       `db:"confirmations"`
	Submitted     bool         `db:"submitted"`
	Error         *string      `db:"error"`
	CreatedAt     *time.Time   `db:"created_at"`
	UpdatedAt     *time.Time   `db:"updated_at"`
}

type RelayAttemptsRepo interface {
	Insert(ctx context.Context, attempt *RelayAttempt) error
	FindByTxHash(ctx context.Context, chainID string, txHash common.Hash) ([]*RelayAttempt, error)
	FindLatestRelayed(ctx context.Context, chainID string, txHash common.Hash) (*RelayAttempt, error)
}
