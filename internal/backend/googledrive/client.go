// Package googledrive implements the storage.Client interface using the Google Drive API.
package googledrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"notelog/internal/storage"
)

const (
	// RootID is the alias of the user's My Drive folder.
	RootID = "root"

	// APITimeout is the timeout for metadata API calls.
	APITimeout = 10 * time.Second

	folderMimeType = "application/vnd.google-apps.folder"
	textMimeType   = "text/plain"
)

// Scope limits access to files this app created or opened.
const Scope = drive.DriveFileScope

// ErrNotFound is returned when a path does not resolve to a file.
var ErrNotFound = errors.New("not found")

// Client implements storage.Client using Google Drive.
// Drive has no paths; a path is resolved by walking folder names from the
// root of My Drive.
type Client struct {
	svc  *drive.Service
	http *http.Client
}

// OAuthConfig loads the OAuth client from oauth_client.json.
func OAuthConfig(clientPath string) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(clientPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// New creates a Drive client sending ts's token with every request.
// The token is not refreshed.
func New(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	return NewWithHTTPClient(ctx, oauth2.NewClient(ctx, ts))
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// Extra options (such as option.WithEndpoint) are passed to the service.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{svc: svc, http: httpClient}, nil
}

// TemporaryLink implements storage.Client. The link is the file's media URL
// and must be fetched with the authorized client carried in the Link.
func (c *Client) TemporaryLink(ctx context.Context, path string) (storage.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	dir, name, err := splitPath(path)
	if err != nil {
		return storage.Link{}, err
	}

	parentID, err := c.resolveFolders(ctx, dir, false)
	if err != nil {
		return storage.Link{}, wrapError(err)
	}
	file, err := c.find(ctx, parentID, name, false)
	if err != nil {
		return storage.Link{}, wrapError(err)
	}

	return storage.Link{
		URL:    c.svc.BasePath + "files/" + file.Id + "?alt=media",
		Client: c.http,
	}, nil
}

// Upload implements storage.Client. An existing file's content is replaced;
// otherwise the file and any missing folders are created.
func (c *Client) Upload(ctx context.Context, path string, content io.Reader) error {
	dir, name, err := splitPath(path)
	if err != nil {
		return err
	}

	parentID, err := c.resolveFolders(ctx, dir, true)
	if err != nil {
		return wrapError(err)
	}

	existing, err := c.find(ctx, parentID, name, false)
	switch {
	case err == nil:
		_, err = c.svc.Files.Update(existing.Id, &drive.File{}).
			Media(content, googleapi.ContentType(textMimeType)).
			Context(ctx).
			Do()
	case errors.Is(err, ErrNotFound):
		_, err = c.svc.Files.Create(&drive.File{
			Name:     name,
			Parents:  []string{parentID},
			MimeType: textMimeType,
		}).
			Media(content, googleapi.ContentType(textMimeType)).
			Context(ctx).
			Do()
	}
	return wrapError(err)
}

// AutoCreate wraps a Client so that reading a missing file first creates it
// empty. Under the drive.file scope the app cannot see files the user made
// in the Drive UI, so the log has to be created through the API.
type AutoCreate struct {
	*Client
}

// TemporaryLink implements storage.Client.
func (a AutoCreate) TemporaryLink(ctx context.Context, path string) (storage.Link, error) {
	link, err := a.Client.TemporaryLink(ctx, path)
	if !errors.Is(err, ErrNotFound) {
		return link, err
	}
	if err := a.Client.Upload(ctx, path, strings.NewReader("")); err != nil {
		return storage.Link{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return a.Client.TemporaryLink(ctx, path)
}

// resolveFolders walks dir from the root and returns the last folder's ID.
func (c *Client) resolveFolders(ctx context.Context, dir []string, create bool) (string, error) {
	parentID := RootID
	for _, name := range dir {
		folder, err := c.find(ctx, parentID, name, true)
		if errors.Is(err, ErrNotFound) && create {
			folder, err = c.svc.Files.Create(&drive.File{
				Name:     name,
				Parents:  []string{parentID},
				MimeType: folderMimeType,
			}).Fields("id").Context(ctx).Do()
		}
		if err != nil {
			return "", err
		}
		parentID = folder.Id
	}
	return parentID, nil
}

// find returns the first non-trashed child of parentID named name.
func (c *Client) find(ctx context.Context, parentID, name string, folder bool) (*drive.File, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), parentID)
	if folder {
		q += fmt.Sprintf(" and mimeType = '%s'", folderMimeType)
	} else {
		q += fmt.Sprintf(" and mimeType != '%s'", folderMimeType)
	}

	resp, err := c.svc.Files.List().
		Q(q).
		Spaces("drive").
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Files) == 0 {
		return nil, ErrNotFound
	}
	return resp.Files[0], nil
}

func splitPath(path string) ([]string, string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	name := parts[len(parts)-1]
	if name == "" {
		return nil, "", fmt.Errorf("invalid path: %q", path)
	}
	return parts[:len(parts)-1], name, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("access token rejected (run: notelog login): %w", err)
		case http.StatusNotFound:
			return fmt.Errorf("not found: %w", err)
		}
	}
	return err
}
