package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/homebase/internal/apperr"
	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/metrics"
)

const maxBodyBytes = 1 << 20

// responder renders results and domain errors. Every handler embeds one.
type responder struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidInput, apperr.KindInvalidAmount:
		return http.StatusBadRequest
	case apperr.KindInvalidStateTransition, apperr.KindAlreadyVerified, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindGamificationDisabled, apperr.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error", "code"}. Unclassified errors are logged and
// reported as a generic internal error.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		rs.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		rs.metrics.ObserveRejected(string(kind))
	}
	writeJSON(w, status, map[string]string{"error": msg, "code": string(kind)})
}

func (rs responder) badRequest(w http.ResponseWriter, msg string) {
	rs.metrics.ObserveRejected(string(apperr.KindInvalidInput))
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg, "code": string(apperr.KindInvalidInput)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// caller returns the identity placed on the request by the identity
// middleware.
func caller(r *http.Request) auth.AuthContext {
	ac, _ := auth.FromContext(r.Context())
	return ac
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, apperr.InvalidInput("invalid date %q", s)
	}
	return &t, nil
}
