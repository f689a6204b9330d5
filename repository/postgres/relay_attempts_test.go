package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/omni/rollup-relayer/db"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/repository/postgres"
)

var (
	txHash      = common.HexToHash("0x1111")
	relayTxHash = common.HexToHash("0x2222")
	columns     = []string{
		"id", "chain_id", "tx_hash", "message_hash", "family", "state", "relay_tx_hash",
		"confirmations", "submitted", "error", "created_at", "updated_at",
	}
)

func newRepo(t *testing.T) (entity.RelayAttemptsRepo, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return postgres.NewRelayAttemptsRepo("relay_attempts", db.NewDBFromConn(nil, sqlx.NewDb(conn, "sqlmock"))), mock
}

func TestRelayAttemptsRepo_Insert(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO relay_attempts \(chain_id,tx_hash,message_hash,family,state,relay_tx_hash,confirmations,submitted,error\) VALUES`).
		WithArgs("10", txHash.Bytes(), nil, "optimism", "ALREADY_RELAYED", relayTxHash.Bytes(), int64(3), true, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), &entity.RelayAttempt{
		ChainID:       "10",
		TxHash:        txHash,
		Family:        "optimism",
		State:         "ALREADY_RELAYED",
		RelayTxHash:   &relayTxHash,
		Confirmations: 3,
		Submitted:     true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelayAttemptsRepo_FindByTxHash(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM relay_attempts WHERE chain_id = \$1 AND tx_hash = \$2 ORDER BY id`).
		WithArgs("10", txHash.Bytes()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, "10", txHash.Bytes(), nil, "optimism", "NOT_READY", nil, 0, false, "not ready", now, now).
			AddRow(2, "10", txHash.Bytes(), nil, "optimism", "ALREADY_RELAYED", relayTxHash.Bytes(), 1, true, nil, now, now))

	attempts, err := repo.FindByTxHash(context.Background(), "10", txHash)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, "NOT_READY", attempts[0].State)
	require.Nil(t, attempts[0].RelayTxHash)
	require.Equal(t, "not ready", *attempts[0].Error)
	require.Equal(t, relayTxHash, *attempts[1].RelayTxHash)
	require.True(t, attempts[1].Submitted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelayAttemptsRepo_FindLatestRelayed(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT \* FROM relay_attempts WHERE chain_id = \$1 AND tx_hash = \$2 AND relay_tx_hash IS NOT NULL ORDER BY id DESC LIMIT 1`).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.FindLatestRelayed(context.Background(), "10", txHash)
	require.ErrorIs(t, err, db.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
