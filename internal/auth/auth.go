// Package auth runs the interactive OAuth redirect flow.
package auth

import (
	"context"
	"net/url"

	"golang.org/x/oauth2"
)

// ResultType discriminates the outcome of a redirect.
type ResultType string

const (
	// ResultSuccess means the provider granted access.
	ResultSuccess ResultType = "success"

	// ResultError means the provider redirected with an error, or the
	// redirect could not be turned into a token.
	ResultError ResultType = "error"

	// ResultCancel means the flow was abandoned before a redirect arrived.
	ResultCancel ResultType = "cancel"

	// ResultDismiss means no redirect arrived before the timeout.
	ResultDismiss ResultType = "dismiss"
)

// Result is the outcome of one authorization attempt.
type Result struct {
	Type ResultType

	// Params holds the redirect query parameters, if a redirect arrived.
	Params url.Values

	// Token is set when Type is ResultSuccess.
	Token *oauth2.Token
}

// Authenticator starts an interactive authorization against the storage
// provider and waits for its outcome.
type Authenticator interface {
	Authorize(ctx context.Context) (Result, error)
}
