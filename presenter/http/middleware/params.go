package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/presenter/http/render"
)

type ctxKey int

const (
	chainIDCtxKey ctxKey = iota
	txHashCtxKey
)

func GetChainIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chainID, err := strconv.ParseUint(chi.URLParam(r, "chainID"), 10, 64)
		if err != nil {
			render.Error(w, r, http.StatusBadRequest, fmt.Errorf("failed to parse chainID: %w", err))
			return
		}

		ctx := context.WithValue(r.Context(), chainIDCtxKey, entity.ChainID(chainID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ChainID(ctx context.Context) entity.ChainID {
	chainID, _ := ctx.Value(chainIDCtxKey).(entity.ChainID)
	return chainID
}

func GetTxHashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txHash := chi.URLParam(r, "txHash")

		ctx := context.WithValue(r.Context(), txHashCtxKey, common.HexToHash(txHash))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TxHash(ctx context.Context) common.Hash {
	txHash, _ := ctx.Value(txHashCtxKey).(common.Hash)
	return txHash
}
