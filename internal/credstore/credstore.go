// Package credstore persists the bearer token between runs.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned by Get when no credential is stored.
var ErrNotFound = errors.New("no stored credential")

// Store holds a single bearer token under one key.
type Store interface {
	// Get returns the stored token or ErrNotFound.
	Get(ctx context.Context) (*oauth2.Token, error)

	// Set replaces the stored token.
	Set(ctx context.Context, token *oauth2.Token) error

	// Delete removes the stored token. Deleting a missing token is not an error.
	Delete(ctx context.Context) error
}

func encode(token *oauth2.Token) ([]byte, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("refusing to store empty token")
	}
	return json.MarshalIndent(token, "", "  ")
}

func decode(data []byte) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid stored token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("invalid stored token: empty access token")
	}
	return &token, nil
}
