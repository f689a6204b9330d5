package render

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/omni/rollup-relayer/logging"
)

type ErrorResult struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	enc := json.NewEncoder(w)

	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		enc.SetIndent("", "  ")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := enc.Encode(res); err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Error("failed to marshal JSON result")
	}
}

func Error(w http.ResponseWriter, r *http.Request, status int, err error) {
	ErrorWithHint(w, r, status, err, false)
}

// ErrorWithHint tells the client whether the same request may succeed later.
func ErrorWithHint(w http.ResponseWriter, r *http.Request, status int, err error, retryable bool) {
	logger := logging.LoggerFromContext(r.Context()).WithError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request handling failed")
	} else {
		logger.Warn("request rejected")
	}
	JSON(w, r, status, &ErrorResult{Error: err.Error(), Retryable: retryable})
}
