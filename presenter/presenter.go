package presenter

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/omni/rollup-relayer/db"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/presenter/http/middleware"
	"github.com/omni/rollup-relayer/presenter/http/render"
	"github.com/omni/rollup-relayer/relayer"
)

var ErrJournalDisabled = errors.New("relay journal is disabled")

type Relayer interface {
	Chains() []relayer.ChainInfo
	Status(ctx context.Context, chainID entity.ChainID, txHash common.Hash) (*relayer.MessageStatus, error)
	Relay(ctx context.Context, chainID entity.ChainID, txHash common.Hash) (*entity.RelayReceipt, error)
}

type Presenter struct {
	logger    logging.Logger
	relayer   Relayer
	attempts  entity.RelayAttemptsRepo
	l1ChainID entity.ChainID
	root      chi.Router
}

// NewPresenter accepts a nil attempts repo, in which case the attempts endpoint answers 404.
func NewPresenter(logger logging.Logger, r Relayer, attempts entity.RelayAttemptsRepo, l1ChainID entity.ChainID) *Presenter {
	return &Presenter{
		logger:    logger,
		relayer:   r,
		attempts:  attempts,
		l1ChainID: l1ChainID,
		root:      chi.NewMux(),
	}
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.Router())
}

func (p *Presenter) Router() chi.Router {
	p.root.Use(chimiddleware.Throttle(5))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(p.logger))
	p.root.Use(middleware.Recoverer)

	p.root.Get("/chains", p.GetChains)
	p.root.Route("/relay/{chainID:[0-9]+}/{txHash:0x[0-9a-fA-F]{64}}", func(r chi.Router) {
		r.Use(middleware.GetChainIDMiddleware)
		r.Use(middleware.GetTxHashMiddleware)
		r.Get("/", p.GetStatus)
		r.Post("/", p.PostRelay)
		r.Get("/attempts", p.GetAttempts)
	})
	return p.root
}

func (p *Presenter) GetChains(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, p.relayer.Chains())
}

func (p *Presenter) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chainID, txHash := middleware.ChainID(ctx), middleware.TxHash(ctx)

	status, err := p.relayer.Status(ctx, chainID, txHash)
	if err != nil {
		p.renderRelayError(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, newStatusResult(chainID, txHash, status))
}

func (p *Presenter) PostRelay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chainID, txHash := middleware.ChainID(ctx), middleware.TxHash(ctx)

	receipt, err := p.relayer.Relay(ctx, chainID, txHash)
	if err != nil {
		p.renderRelayError(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, p.newRelayResult(chainID, txHash, receipt))
}

func (p *Presenter) GetAttempts(w http.ResponseWriter, r *http.Request) {
	if p.attempts == nil {
		render.Error(w, r, http.StatusNotFound, ErrJournalDisabled)
		return
	}
	ctx := r.Context()
	chainID, txHash := middleware.ChainID(ctx), middleware.TxHash(ctx)

	attempts, err := p.attempts.FindByTxHash(ctx, chainID.String(), txHash)
	if err != nil {
		render.Error(w, r, http.StatusInternalServerError, err)
		return
	}
	res := make([]*AttemptResult, len(attempts))
	for i, attempt := range attempts {
		res[i] = newAttemptResult(attempt)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) renderRelayError(w http.ResponseWriter, r *http.Request, err error) {
	render.ErrorWithHint(w, r, errorStatus(err), err, relayer.IsRetryable(err))
}

func errorStatus(err error) int {
	var (
		unsupported *relayer.UnsupportedChainError
		noMessage   *relayer.NoMessageFoundError
		ambiguous   *relayer.AmbiguousMessageError
		notReady    *relayer.NotReadyError
		unrelayable *relayer.UnrelayableMessageError
		transient   *relayer.TransientQueryError
		submission  *relayer.RelaySubmissionError
		timeout     *relayer.ConfirmationTimeoutError
	)
	switch {
	case errors.As(err, &unsupported), errors.Is(err, relayer.ErrChainNotConfigured):
		return http.StatusBadRequest
	case errors.As(err, &noMessage), errors.Is(err, relayer.ErrRelayTxNotFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &notReady):
		return http.StatusConflict
	case errors.As(err, &ambiguous), errors.As(err, &unrelayable), errors.Is(err, relayer.ErrRelayExecutionFailed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &transient), errors.As(err, &submission):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
