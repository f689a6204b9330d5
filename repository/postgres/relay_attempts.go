package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/db"
	"github.com/omni/rollup-relayer/entity"
)

type relayAttemptsRepo basePostgresRepo

func NewRelayAttemptsRepo(table string, db *db.DB) entity.RelayAttemptsRepo {
	return (*relayAttemptsRepo)(newBasePostgresRepo(table, db))
}

func (r *relayAttemptsRepo) Insert(ctx context.Context, attempt *entity.RelayAttempt) error {
	q, args, err := sq.Insert(r.table).
		Columns("chain_id", "tx_hash", "message_hash", "family", "state", "relay_tx_hash", "confirmations", "submitted", "error").
		Values(attempt.ChainID, attempt.TxHash, attempt.MessageHash, attempt.Family, attempt.State,
			attempt.RelayTxHash, attempt.Confirmations, attempt.Submitted, attempt.Error).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert relay attempt: %w", err)
	}
	return nil
}

func (r *relayAttemptsRepo) FindByTxHash(ctx context.Context, chainID string, txHash common.Hash) ([]*entity.RelayAttempt, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"chain_id": chainID, "tx_hash": txHash}).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	attempts := make([]*entity.RelayAttempt, 0, 4)
	err = r.db.SelectContext(ctx, &attempts, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get relay attempts: %w", err)
	}
	return attempts, nil
}

// FindLatestRelayed returns db.ErrNotFound if no attempt has observed a relay transaction yet.
func (r *relayAttemptsRepo) FindLatestRelayed(ctx context.Context, chainID string, txHash common.Hash) (*entity.RelayAttempt, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"chain_id": chainID, "tx_hash": txHash}).
		Where(sq.NotEq{"relay_tx_hash": nil}).
		OrderBy("id DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	attempt := new(entity.RelayAttempt)
	err = r.db.GetContext(ctx, attempt, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get latest relayed attempt: %w", err)
	}
	return attempt, nil
}
