package repository

import (
	"github.com/omni/rollup-relayer/db"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/repository/postgres"
)

type Repo struct {
	RelayAttempts entity.RelayAttemptsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		RelayAttempts: postgres.NewRelayAttemptsRepo("relay_attempts", db),
	}
}
