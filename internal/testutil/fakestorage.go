// Package testutil provides testing utilities.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"

	"notelog/internal/storage"
)

// ErrNotFound is returned when a file is not found.
var ErrNotFound = errors.New("not found")

const fakeHost = "fake.storage.test"

// FakeStorage is an in-memory implementation of storage.Client for testing.
// Links it issues are served by an in-process transport, so no network is used.
type FakeStorage struct {
	mu    sync.RWMutex
	files map[string]string

	fetches int
	uploads []Upload

	// Error injection for testing
	LinkErr   error
	FetchErr  error
	UploadErr error

	// LinkHook runs at the start of TemporaryLink, before any error
	// injection. Tests use it to pause a send in flight.
	LinkHook func(ctx context.Context)
}

// Upload records one call to Upload.
type Upload struct {
	Path    string
	Content string
}

// NewFakeStorage creates an empty FakeStorage.
func NewFakeStorage() *FakeStorage {
	return &FakeStorage{files: make(map[string]string)}
}

// SetFile stores content at path.
func (f *FakeStorage) SetFile(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

// File returns the content at path.
func (f *FakeStorage) File(path string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.files[path]
	return c, ok
}

// Uploads returns the recorded uploads in call order.
func (f *FakeStorage) Uploads() []Upload {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Upload, len(f.uploads))
	copy(out, f.uploads)
	return out
}

// Fetches returns how many link downloads were served.
func (f *FakeStorage) Fetches() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fetches
}

// TemporaryLink implements storage.Client.
func (f *FakeStorage) TemporaryLink(ctx context.Context, path string) (storage.Link, error) {
	if f.LinkHook != nil {
		f.LinkHook(ctx)
	}
	if f.LinkErr != nil {
		return storage.Link{}, f.LinkErr
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.files[path]; !ok {
		return storage.Link{}, ErrNotFound
	}

	u := url.URL{Scheme: "https", Host: fakeHost, Path: path}
	return storage.Link{
		URL:    u.String(),
		Client: &http.Client{Transport: roundTripFunc(f.serve)},
	}, nil
}

// Upload implements storage.Client.
func (f *FakeStorage) Upload(ctx context.Context, path string, content io.Reader) error {
	if f.UploadErr != nil {
		return f.UploadErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = string(data)
	f.uploads = append(f.uploads, Upload{Path: path, Content: string(data)})
	return nil
}

func (f *FakeStorage) serve(r *http.Request) (*http.Response, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	content, ok := f.files[r.URL.Path]
	if r.URL.Host != fakeHost || !ok {
		return response(r, http.StatusNotFound, "not found"), nil
	}
	f.fetches++
	return response(r, http.StatusOK, content), nil
}

func response(r *http.Request, code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Request:    r,
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}
