package relayer

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RelayResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relayer",
		Subsystem: "relay",
		Name:      "results_total",
		Help:      "Number of relay invocations grouped by chain, family and result.",
	}, []string{"chain_id", "family", "result"})
	RelayDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relayer",
		Subsystem: "relay",
		Name:      "duration_seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"chain_id", "family"})
	RelayRaces = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relayer",
		Subsystem: "relay",
		Name:      "races_total",
		Help:      "Shows how many times a message was finalized by another party while we were relaying it.",
	}, []string{"chain_id", "family"})
)

func resultLabel(err error, submitted bool) string {
	var (
		unsupported *UnsupportedChainError
		noMessage   *NoMessageFoundError
		ambiguous   *AmbiguousMessageError
		transient   *TransientQueryError
		notReady    *NotReadyError
		unrelayable *UnrelayableMessageError
		submission  *RelaySubmissionError
		timeout     *ConfirmationTimeoutError
		notFound    *RelayNotFoundError
	)
	switch {
	case err == nil && submitted:
		return "relayed"
	case err == nil:
		return "already_relayed"
	case errors.As(err, &unsupported):
		return "unsupported_chain"
	case errors.Is(err, ErrChainNotConfigured):
		return "not_configured"
	case errors.As(err, &noMessage), errors.As(err, &ambiguous):
		return "bad_input"
	case errors.As(err, &notReady):
		return "not_ready"
	case errors.As(err, &unrelayable):
		return "unrelayable"
	case errors.As(err, &submission):
		return "submission_failed"
	case errors.As(err, &timeout):
		return "confirmation_timeout"
	case errors.As(err, &notFound):
		return "relay_not_found"
	case errors.As(err, &transient):
		return "transient"
	default:
		return "error"
	}
}
