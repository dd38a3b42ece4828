// Package dropbox implements storage.Client using the Dropbox API.
package dropbox

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"golang.org/x/oauth2"

	"notelog/internal/storage"
)

// Endpoint is the Dropbox OAuth 2 endpoint. Dropbox public clients use PKCE
// and send the client id in the request body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.dropbox.com/oauth2/authorize",
	TokenURL:  "https://api.dropboxapi.com/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthConfig returns the OAuth client for appKey.
func OAuthConfig(appKey string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: appKey,
		Endpoint: Endpoint,
	}
}

// Client implements storage.Client using the Dropbox files API.
type Client struct {
	files files.Client
}

// New creates a Dropbox client authorized with token.
func New(token *oauth2.Token) *Client {
	cfg := dropbox.Config{
		Token:    token.AccessToken,
		LogLevel: dropbox.LogOff,
	}
	return &Client{files: files.New(cfg)}
}

// NewWithFiles creates a client over an existing files.Client (for testing).
func NewWithFiles(f files.Client) *Client {
	return &Client{files: f}
}

// TemporaryLink implements storage.Client. Dropbox links are valid for four
// hours and need no credential.
// The SDK takes no context; ctx only short-circuits an already cancelled call.
func (c *Client) TemporaryLink(ctx context.Context, path string) (storage.Link, error) {
	if err := ctx.Err(); err != nil {
		return storage.Link{}, err
	}
	res, err := c.files.GetTemporaryLink(files.NewGetTemporaryLinkArg(path))
	if err != nil {
		return storage.Link{}, wrapError(err)
	}
	return storage.Link{URL: res.Link}, nil
}

// Upload implements storage.Client with overwrite mode, autorename off and
// notifications muted.
func (c *Client) Upload(ctx context.Context, path string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	arg := files.NewUploadArg(path)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	arg.Autorename = false
	arg.Mute = true

	if _, err := c.files.Upload(arg, content); err != nil {
		return wrapError(err)
	}
	return nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid_access_token"),
		strings.Contains(errStr, "expired_access_token"),
		strings.Contains(errStr, "401"):
		return fmt.Errorf("access token rejected (run: notelog login): %w", err)
	case strings.Contains(errStr, "not_found"):
		return fmt.Errorf("not found: %w", err)
	case strings.Contains(errStr, "insufficient_space"):
		return fmt.Errorf("dropbox is full: %w", err)
	case strings.Contains(errStr, "too_many_requests"), strings.Contains(errStr, "429"):
		return fmt.Errorf("rate limited: %w", err)
	}
	return err
}
