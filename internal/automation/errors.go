// internal/automation/errors.go
package automation

import (
	"context"
	"errors"

	"github.com/xkilldash9x/orderlens/internal/browser"
)

// ErrorCode classifies a phase failure for callers.
type ErrorCode string

const (
	// -- Fatal to the attempt; the session is destroyed --
	ErrCodeLaunch        ErrorCode = "LAUNCH_ERROR"
	ErrCodeNavigation    ErrorCode = "NAVIGATION_ERROR"
	ErrCodeBrowser       ErrorCode = "BROWSER_FAILURE"
	ErrCodeOTPExhausted  ErrorCode = "OTP_ATTEMPTS_EXHAUSTED"
	ErrCodeCancelled     ErrorCode = "CANCELLED"
	ErrCodeSessionExists ErrorCode = "SESSION_EXISTS"

	// -- Fatal for login, retryable for OTP --
	ErrCodeInputNotFound ErrorCode = "INPUT_NOT_FOUND"

	// -- Retryable against the same session --
	ErrCodeVerification ErrorCode = "VERIFICATION_FAILURE"

	// -- Reported as failure, not exceptional --
	ErrCodeEmptyResult     ErrorCode = "EMPTY_RESULT"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
)

// Error is a classified phase failure.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func inputNotFound(what string) *Error {
	return &Error{Code: ErrCodeInputNotFound, Message: what + " not found"}
}

// classify maps any error raised inside a phase to an *Error. sessionCtx
// distinguishes a cancelled session from an abandoned request.
func classify(sessionCtx context.Context, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if sessionCtx.Err() != nil {
		return &Error{Code: ErrCodeCancelled, Message: "session was cancelled"}
	}

	var launchErr *browser.LaunchError
	var navErr *browser.NavigationError
	switch {
	case errors.As(err, &launchErr):
		return &Error{Code: ErrCodeLaunch, Message: "could not start browser", Err: launchErr.Err}
	case errors.As(err, &navErr):
		return &Error{Code: ErrCodeNavigation, Message: "could not load " + navErr.URL, Err: navErr.Err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: ErrCodeCancelled, Message: "request cancelled", Err: err}
	default:
		return &Error{Code: ErrCodeBrowser, Message: "browser step failed", Err: err}
	}
}
