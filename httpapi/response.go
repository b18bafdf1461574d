package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/meridianlegal/identity"
)

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := identity.KindOf(err)
	status, code := statusOf(kind)

	message := err.Error()
	if kind == identity.KindInternal {
		// Internal details stay in the logs.
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	}); encErr != nil {
		s.log.Error("encode error response", "error", encErr)
	}
}

func statusOf(kind identity.Kind) (int, string) {
	switch kind {
	case identity.KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case identity.KindConflict:
		return http.StatusConflict, "EMAIL_TAKEN"
	case identity.KindInvalidCredentials:
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case identity.KindAccountInactive:
		return http.StatusForbidden, "ACCOUNT_INACTIVE"
	case identity.KindUnauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case identity.KindForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case identity.KindTicketInvalid:
		return http.StatusBadRequest, "INVALID_TOKEN"
	case identity.KindSamePassword:
		return http.StatusBadRequest, "SAME_PASSWORD"
	case identity.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case identity.KindRateLimited:
		return http.StatusTooManyRequests, "RATE_LIMITED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
