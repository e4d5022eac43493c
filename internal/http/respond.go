package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/godilite/stock-advisor/internal/service"
	"go.uber.org/zap"
)

type errResp struct {
	Error string `json:"error"`
}

// writeJSON encodes v before writing the header so an encoding failure still
// yields a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}

// handleError maps a service error to a status code and writes it.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch r.Context().Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		writeErr(w, http.StatusServiceUnavailable, "request canceled")
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		writeErr(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidSymbol):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoData):
		h.logger.Info("no data", zap.String("op", op), zap.Error(err))
		writeErr(w, http.StatusNotFound, "no data found for symbol")
	case errors.Is(err, service.ErrRateLimited):
		h.logger.Warn("upstream rate limited", zap.String("op", op))
		writeErr(w, http.StatusTooManyRequests, "upstream rate limit reached, retry later")
	case errors.Is(err, service.ErrUpstream):
		h.logger.Error("upstream failure", zap.String("op", op), zap.Error(err))
		writeErr(w, http.StatusServiceUnavailable, "market data provider unavailable")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal server error")
	}
}
