package identity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies provider failures so callers never inspect message text.
type ErrorCode string

const (
	CodeForgotPassword      ErrorCode = "forgot_password"
	CodeCancelledSignUp     ErrorCode = "cancelled_sign_up"
	CodeInteractionRequired ErrorCode = "interaction_required"
	CodeAccessDenied        ErrorCode = "access_denied"
	CodeServerError         ErrorCode = "server_error"
	CodeUnknown             ErrorCode = "unknown"
)

// B2C user-flow error codes carried in error_description.
const (
	b2cForgotPassword  = "AADB2C90118"
	b2cCancelledSignUp = "AADB2C90091"
)

// ProviderError is returned by Provider implementations for protocol level failures.
type ProviderError struct {
	Code        ErrorCode
	OAuthError  string // Raw "error" parameter, if any
	Description string // Raw "error_description" parameter, if any
	Err         error
}

func (e *ProviderError) Error() string {
	msg := string(e.Code)
	if e.OAuthError != "" {
		msg += ": " + e.OAuthError
	}
	if e.Description != "" {
		msg += " - " + e.Description
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError from an OAuth error response.
func NewProviderError(oauthError, description string) *ProviderError {
	return &ProviderError{
		Code:        ParseErrorCode(oauthError, description),
		OAuthError:  oauthError,
		Description: description,
	}
}

// ParseErrorCode maps an OAuth error response onto an ErrorCode. B2C user-flow codes
// take precedence because B2C reports them all as access_denied.
func ParseErrorCode(oauthError, description string) ErrorCode {
	switch {
	case strings.Contains(description, b2cForgotPassword):
		return CodeForgotPassword
	case strings.Contains(description, b2cCancelledSignUp):
		return CodeCancelledSignUp
	}

	switch oauthError {
	case "interaction_required", "login_required", "consent_required", "invalid_grant":
		return CodeInteractionRequired
	case "access_denied":
		return CodeAccessDenied
	case "server_error", "temporarily_unavailable":
		return CodeServerError
	}
	return CodeUnknown
}

// CodeOf returns the ErrorCode of the first ProviderError in err's chain.
func CodeOf(err error) ErrorCode {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeUnknown
}
