// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/groupspend/groupspend/internal/exchange"
	"github.com/groupspend/groupspend/internal/handler/dto"
	"github.com/groupspend/groupspend/internal/service"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// errInvalidJSON is returned by decodeJSON for malformed bodies.
var errInvalidJSON = errors.New("invalid request body")

// Handler serves the endpoints that have no service dependency.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello reports the service name and version.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "groupspend API",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON decodes the request body into v. An empty body is accepted
// when optional is true.
func decodeJSON(r *http.Request, v any, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return errInvalidJSON
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	return errInvalidJSON
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
	case errors.Is(err, service.ErrWrongCredentials):
		writeError(w, http.StatusUnauthorized, "WRONG_CREDENTIALS", err.Error())

	case errors.Is(err, service.ErrGroupNameRequired),
		errors.Is(err, service.ErrGroupNameTooLong),
		errors.Is(err, service.ErrDescriptionTooLong):
		writeError(w, http.StatusBadRequest, "INVALID_GROUP", err.Error())
	case errors.Is(err, service.ErrGroupIDRequired),
		errors.Is(err, service.ErrInviteFieldsRequired),
		errors.Is(err, service.ErrMemberFieldsRequired):
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusBadRequest, "USER_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrCannotRemoveAdmin):
		writeError(w, http.StatusBadRequest, "CANNOT_REMOVE_ADMIN", err.Error())
	case errors.Is(err, service.ErrInvalidExpense):
		writeError(w, http.StatusBadRequest, "INVALID_EXPENSE", err.Error())
	case errors.Is(err, exchange.ErrUnknownCurrency):
		writeError(w, http.StatusBadRequest, "UNKNOWN_CURRENCY", err.Error())

	case errors.Is(err, service.ErrNotMember):
		writeError(w, http.StatusForbidden, "NOT_MEMBER", err.Error())
	case errors.Is(err, service.ErrNotAdmin):
		writeError(w, http.StatusForbidden, "NOT_ADMIN", err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrIdentityMismatch):
		writeError(w, http.StatusForbidden, "IDENTITY_MISMATCH", err.Error())

	case errors.Is(err, service.ErrGroupNotFound):
		writeError(w, http.StatusNotFound, "GROUP_NOT_FOUND", "Group not found")
	case errors.Is(err, service.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, "EXPENSE_NOT_FOUND", "Expense not found")

	case errors.Is(err, service.ErrConversionUnavailable),
		errors.Is(err, exchange.ErrNotConfigured),
		errors.Is(err, exchange.ErrUpstream):
		logger.Warn("exchange_rate_unavailable", "error", err)
		writeError(w, http.StatusBadGateway, "RATES_UNAVAILABLE", "Exchange rates are unavailable")

	case errors.Is(err, service.ErrAlreadyMember):
		writeError(w, http.StatusInternalServerError, "ALREADY_MEMBER", err.Error())
	default:
		// Storage failures surface with their message.
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
