// Package session decides whether a usable session exists and creates one
// through interactive login.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"notelog/internal/auth"
	"notelog/internal/credstore"
)

// LoginFailedMessage is shown for every unsuccessful login, whatever the cause.
const LoginFailedMessage = "Could not login to %s. Please try again."

// ErrNoSession is returned by Restore when nothing is stored.
var ErrNoSession = errors.New("not logged in")

// Session is the bearer credential attached to storage requests.
type Session struct {
	Token *oauth2.Token
}

// TokenSource returns a source that always yields the stored token.
// Expired or revoked tokens are not refreshed; requests made with them fail.
func (s *Session) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(s.Token)
}

// AuthError reports a login that did not end in success.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf(LoginFailedMessage, e.Provider)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Bootstrap restores and creates sessions.
type Bootstrap struct {
	store    credstore.Store
	authn    auth.Authenticator
	provider string
	log      *slog.Logger
}

// NewBootstrap creates a Bootstrap. provider is the display name used in
// the login failure message.
func NewBootstrap(store credstore.Store, authn auth.Authenticator, provider string, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bootstrap{store: store, authn: authn, provider: provider, log: logger}
}

// Restore returns the stored session without verifying it with the provider.
// It returns ErrNoSession when no credential is stored.
func (b *Bootstrap) Restore(ctx context.Context) (*Session, error) {
	token, err := b.store.Get(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	b.log.Debug("restored session", "expiry", token.Expiry)
	return &Session{Token: token}, nil
}

// Login runs the interactive flow and persists the resulting token.
// Any outcome other than success is an *AuthError and stores nothing.
func (b *Bootstrap) Login(ctx context.Context) (*Session, error) {
	res, err := b.authn.Authorize(ctx)
	if err != nil {
		b.log.Debug("authorization failed", "err", err)
		return nil, &AuthError{Provider: b.provider, Err: err}
	}
	if res.Type != auth.ResultSuccess || res.Token == nil || res.Token.AccessToken == "" {
		b.log.Debug("authorization not successful", "result", string(res.Type))
		return nil, &AuthError{Provider: b.provider, Err: fmt.Errorf("authorization result: %s", res.Type)}
	}

	if err := b.store.Set(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return &Session{Token: res.Token}, nil
}

// Logout deletes the stored credential.
func (b *Bootstrap) Logout(ctx context.Context) error {
	return b.store.Delete(ctx)
}

// HasStored reports whether a credential is stored.
func (b *Bootstrap) HasStored(ctx context.Context) (bool, error) {
	_, err := b.store.Get(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
