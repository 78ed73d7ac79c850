package core

// error_messages.go maps technical errors to user-facing messages.
//
// # Error Codes Reference
//
// Source errors (SRC001-SRC099) come from loading the dataset:
//
//	SRC001 - Source unavailable: no configured source could be read
//	         Action: Please try again later
//	SRC002 - Parse failure: a source was read but is not a valid table
//	         Action: Please try again later or report the problem
//
// Request errors (REQ001-REQ099) come from the caller's input or connection:
//
//	REQ001 - Invalid request: the request body could not be decoded
//	         Patterns: "invalid request body"
//	REQ002 - Request timeout: the request did not finish in time
//	         Patterns: "context deadline exceeded", "timeout"
//	REQ003 - Request cancelled
//	         Patterns: "context canceled"
//
// Rate limiting:
//
//	RATE001 - Too many requests from one client
//	          Patterns: "rate limit"
//	RATE002 - Too many searches in flight
//	          Patterns: "too many concurrent searches"
//
// Fallback:
//
//	ERR000 - Unknown error; check the server log for the technical error
//
// Source errors are detected with errors.Is against the dataset sentinels.
// Everything else is matched case-insensitively by substring; the first
// pattern wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/therafind/internal/dataset"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSourceUnavailable = UserMessage{
		Message: "The therapy table is currently unavailable",
		Action:  "Please try again later",
		Code:    "SRC001",
	}
	msgParseFailure = UserMessage{
		Message: "The therapy table could not be read",
		Action:  "Please try again later or report the problem",
		Code:    "SRC002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The search request could not be read",
			Action:  "Send search terms as query parameters or a JSON object of strings",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "too many concurrent searches",
		msg: UserMessage{
			Message: "The service is busy",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	// The outermost load error decides; a remote parse failure followed by a
	// missing local fallback is still "unavailable".
	var loadErr *dataset.LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Kind == dataset.KindParseFailure {
			return msgParseFailure
		}
		return msgSourceUnavailable
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsLoadError reports whether err came from loading the dataset.
func IsLoadError(err error) bool {
	return errors.Is(err, dataset.ErrSourceUnavailable) || errors.Is(err, dataset.ErrParseFailure)
}
