package errors

import (
	"errors"
	"fmt"
)

// Common error types for the client session core
var (
	// Session lifecycle errors
	ErrNotInitialized  = errors.New("session not initialized")
	ErrInitialization  = errors.New("session initialization failed")
	ErrNoAccount       = errors.New("no account found")
	ErrNoActiveAccount = errors.New("no active account")

	// Token errors
	ErrInteractionRequired = errors.New("interaction required")
	ErrInteractionFailed   = errors.New("interactive token acquisition failed")
	ErrTokenExpired        = errors.New("token expired")
	ErrNoRefreshToken      = errors.New("no refresh token")

	// Authorization flow errors
	ErrInvalidState   = errors.New("invalid state parameter")
	ErrInvalidNonce   = errors.New("invalid nonce")
	ErrMissingIDToken = errors.New("no id token in response")
	ErrFlowExpired    = errors.New("authorization flow expired")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
