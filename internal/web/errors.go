package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get a user-facing message
//  4. Technical error + context is logged with the request ID for correlation
//  5. The ErrorResponse payload is written as JSON
//
// Table load failures are answered with 200: the request itself was fine and
// clients render the payload in place of results.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/therafind/internal/core"
	"github.com/JonMunkholm/therafind/internal/logging"
)

// errInvalidBody is mapped to REQ001 by core.MapError.
var errInvalidBody = errors.New("invalid request body")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and writes the mapped
// user message. Load errors always use 200 and a saturated search limiter
// uses 503.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	switch {
	case core.IsLoadError(err):
		statusCode = http.StatusOK
	case errors.Is(err, core.ErrTooManySearches):
		statusCode = http.StatusServiceUnavailable
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeError answers with a message that needs no mapping, such as routing
// failures and rate limiting.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, msg string) {
	err := errors.New(msg)
	userMsg := core.MapError(err)
	if !core.IsUserFacing(err) {
		userMsg = core.UserMessage{
			Message: http.StatusText(statusCode),
			Code:    "HTTP" + strconv.Itoa(statusCode),
		}
	}
	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   msg,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
