// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package billing authenticates callers of AI-backed endpoints and meters
// free-tier usage in credits.
package billing

import (
	"context"
	"fmt"
	"net/http"
)

// Unlimited is reported as the remaining balance when a caller is not
// metered.
const Unlimited = -1

// Session identifies an authenticated caller.
type Session struct {
	UserID     string
	IsFreeTier bool

	// CustomKey is the caller's own Gemini key, if they registered one.
	CustomKey string
}

// Metered reports whether the session pays credits per AI call. Callers
// who bring their own key are not metered.
func (s *Session) Metered() bool {
	return s != nil && s.IsFreeTier && s.CustomKey == ""
}

// AuthError is an authentication or billing refusal. Status is 401 or 403.
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

func unauthorized(msg string, err error) *AuthError {
	return &AuthError{Status: http.StatusUnauthorized, Message: msg, Err: err}
}

func forbidden(msg string) *AuthError {
	return &AuthError{Status: http.StatusForbidden, Message: msg}
}

// Oracle gates AI endpoints. Handlers call Authenticate once at the top of
// each request and DeductCredit after a metered call succeeds.
type Oracle interface {
	Authenticate(r *http.Request) (*Session, error)
	DeductCredit(ctx context.Context, userID string) (int, error)
}

// OpenOracle admits every request with unlimited credits. It is used when
// no JWT secret is configured.
type OpenOracle struct{}

// AnonymousUser is the user ID OpenOracle assigns.
const AnonymousUser = "anonymous"

func (OpenOracle) Authenticate(*http.Request) (*Session, error) {
	return &Session{UserID: AnonymousUser}, nil
}

func (OpenOracle) DeductCredit(context.Context, string) (int, error) {
	return Unlimited, nil
}
