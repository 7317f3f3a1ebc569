package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/service"
)

// Error kinds exposed to API callers. Stable contract: clients switch on
// these, never on messages.
const (
	KindValidation      = "VALIDATION"
	KindExpired         = "EXPIRED"
	KindConflict        = "CONFLICT"
	KindUnauthenticated = "UNAUTHENTICATED"
	KindForbidden       = "FORBIDDEN"
	KindNotFound        = "NOT_FOUND"
	KindDependency      = "DEPENDENCY"
	KindInternal        = "INTERNAL"
)

type errorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorInfo `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a workflow error to its stable kind and HTTP status.
// Internal failures are logged with detail but reported without it.
func writeError(w http.ResponseWriter, log logger.Logger, m *metrics.MetricsManager, operation string, err error) {
	status, kind, message := classify(err)

	if status >= http.StatusInternalServerError {
		log.Errorf("%s failed: %v", operation, err)
		message = "internal server error"
	} else {
		log.Warnf("%s rejected: %v", operation, err)
	}
	if m != nil {
		m.APIErrorsTotal.WithLabelValues(operation, kind).Inc()
	}

	writeJSON(w, status, errorBody{Error: errorInfo{Kind: kind, Message: message}})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidCode):
		return http.StatusBadRequest, KindValidation, err.Error()
	case errors.Is(err, service.ErrCodeExpired):
		return http.StatusBadRequest, KindExpired, err.Error()
	case errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, service.ErrQuotaExceeded),
		errors.Is(err, service.ErrImageLimitReached):
		return http.StatusBadRequest, KindConflict, err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, KindConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotVerified):
		return http.StatusUnauthorized, KindUnauthenticated, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, KindForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, KindNotFound, err.Error()
	case errors.Is(err, service.ErrDeliveryFailure):
		return http.StatusBadGateway, KindDependency, err.Error()
	default:
		return http.StatusInternalServerError, KindInternal, err.Error()
	}
}
