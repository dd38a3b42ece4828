package testutil

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"notelog/internal/auth"
	"notelog/internal/credstore"
)

// MemStore is an in-memory credstore.Store.
type MemStore struct {
	mu    sync.Mutex
	token *oauth2.Token
	sets  int

	GetErr error
	SetErr error
}

// NewMemStore returns a store holding token (nil for empty).
func NewMemStore(token *oauth2.Token) *MemStore {
	return &MemStore{token: token}
}

// Get implements credstore.Store.
func (m *MemStore) Get(ctx context.Context) (*oauth2.Token, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, credstore.ErrNotFound
	}
	t := *m.token
	return &t, nil
}

// Set implements credstore.Store.
func (m *MemStore) Set(ctx context.Context, token *oauth2.Token) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *token
	m.token = &t
	m.sets++
	return nil
}

// Delete implements credstore.Store.
func (m *MemStore) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

// Sets returns how many times Set succeeded.
func (m *MemStore) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// FakeAuthenticator returns a canned authorization result.
type FakeAuthenticator struct {
	Result auth.Result
	Err    error
	Calls  int
}

// Success returns an authenticator whose redirect grants token.
func Success(token string) *FakeAuthenticator {
	return &FakeAuthenticator{Result: auth.Result{
		Type:  auth.ResultSuccess,
		Token: &oauth2.Token{AccessToken: token, TokenType: "bearer"},
	}}
}

// Authorize implements auth.Authenticator.
func (f *FakeAuthenticator) Authorize(ctx context.Context) (auth.Result, error) {
	f.Calls++
	return f.Result, f.Err
}
