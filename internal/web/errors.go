package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The HTTP status is chosen by statusFor and the user message by core.MapError
//  4. Technical error + context is logged with request and session ids
//  5. The user message is written as JSON

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/MenuEditor/internal/core"
	"github.com/JonMunkholm/MenuEditor/internal/logging"
	"github.com/JonMunkholm/MenuEditor/internal/scrape"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Prompt is the confirmation question of a refused deletion.
	Prompt string `json:"prompt,omitempty"`

	// Report is the load report of a failed load.
	Report *core.LoadReport `json:"report,omitempty"`
}

// statusRule maps a sentinel error to an HTTP status.
type statusRule struct {
	err    error
	status int
}

// statusRules are checked in order; the first errors.Is match wins.
var statusRules = []statusRule{
	{errRateLimited, http.StatusTooManyRequests},
	{scrape.ErrTooManyScrapes, http.StatusServiceUnavailable},
	{core.ErrStaleLoad, http.StatusConflict},
	{core.ErrNetwork, http.StatusBadGateway},
	{core.ErrBackend, http.StatusBadGateway},
	{core.ErrParse, http.StatusUnprocessableEntity},

	{core.ErrEmptyIdentifier, http.StatusBadRequest},
	{core.ErrEmptyCategory, http.StatusBadRequest},
	{core.ErrInvalidTime, http.StatusBadRequest},
	{core.ErrUnknownField, http.StatusBadRequest},
	{core.ErrInvalidValue, http.StatusBadRequest},
	{core.ErrToppingsUnsupported, http.StatusBadRequest},
	{core.ErrReadOnlyID, http.StatusBadRequest},
	{core.ErrDayDisabled, http.StatusBadRequest},

	{core.ErrUnknownPlatform, http.StatusNotFound},
	{core.ErrItemNotFound, http.StatusNotFound},
	{core.ErrCategoryNotFound, http.StatusNotFound},
	{core.ErrGroupNotFound, http.StatusNotFound},
	{core.ErrToppingNotFound, http.StatusNotFound},
	{core.ErrRowNotFound, http.StatusNotFound},

	{core.ErrDuplicateCategory, http.StatusConflict},
	{core.ErrNotEditing, http.StatusConflict},
	{core.ErrScheduleNotOpen, http.StatusConflict},
	{core.ErrNotConfirmed, http.StatusConflict},

	{core.ErrNothingToExport, http.StatusUnprocessableEntity},
	{core.ErrNoHeaders, http.StatusUnprocessableEntity},
	{core.ErrSerialize, http.StatusInternalServerError},

	{context.DeadlineExceeded, http.StatusGatewayTimeout},
	{context.Canceled, http.StatusRequestTimeout},
}

// statusFor returns the HTTP status for err.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	for _, rule := range statusRules {
		if errors.Is(err, rule.err) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorResponse(w, r, err, ErrorResponse{})
}

// writeErrorResponse is respondError with extra response fields.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error, resp ErrorResponse) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= 500 {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	resp.Error = userMsg.Message
	resp.Message = userMsg.Message
	resp.Action = userMsg.Action
	resp.Code = userMsg.Code
	writeJSONStatus(w, r, status, resp)
}

// writeJSON encodes v as a 200 response.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	writeJSONStatus(w, r, http.StatusOK, v)
}

// writeJSONStatus encodes v with the given status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: request body: %w", core.ErrInvalidValue, err)
	}
	return nil
}
