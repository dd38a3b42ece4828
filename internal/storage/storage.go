// Package storage defines the backend-agnostic interface for the remote note log file.
package storage

import (
	"context"
	"io"
	"net/http"
)

// Client is the cloud storage surface the note log needs.
// Commands and the synchronizer never import a provider SDK directly.
type Client interface {
	// TemporaryLink returns a short-lived link from which the file at path
	// can be downloaded.
	TemporaryLink(ctx context.Context, path string) (Link, error)

	// Upload writes content to path, replacing any existing file.
	// No autorename, no change notifications.
	Upload(ctx context.Context, path string, content io.Reader) error
}

// Link is a download location for a remote file.
type Link struct {
	URL string

	// Client fetches URL. Nil means the link is self-authorizing and is
	// fetched with a plain HTTP client.
	Client *http.Client
}
