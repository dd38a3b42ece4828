// Package notelog reads and writes the remote note log and projects it into
// display items.
//
// The log is one text blob: notes joined by a fixed delimiter, the most
// recently added note first. Every write re-reads the remote copy, prepends
// the new note and overwrites the whole file. There is no conflict detection:
// when two clients send concurrently the last upload wins.
package notelog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"notelog/internal/storage"
)

// Config is the static configuration of a Synchronizer.
type Config struct {
	// Path is the remote file holding the log.
	Path string

	// Delimiter separates notes in the log.
	Delimiter string
}

// NoteItem is one note projected for display.
type NoteItem struct {
	Key   string
	Value string
}

// Synchronizer mediates all reads and writes of the remote note log.
type Synchronizer struct {
	client storage.Client
	http   *http.Client
	cfg    Config
	log    *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithHTTPClient sets the client used to fetch self-authorizing links.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Synchronizer) { s.http = c }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// New creates a Synchronizer over client.
func New(client storage.Client, cfg Config, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		client: client,
		http:   http.DefaultClient,
		cfg:    cfg,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the synchronizer's configuration.
func (s *Synchronizer) Config() Config {
	return s.cfg
}

// FetchLog downloads the whole remote log.
// Any failure is returned as *RemoteReadError. There is no retry.
func (s *Synchronizer) FetchLog(ctx context.Context) (string, error) {
	link, err := s.client.TemporaryLink(ctx, s.cfg.Path)
	if err != nil {
		return "", &RemoteReadError{Path: s.cfg.Path, Err: err}
	}

	hc := link.Client
	if hc == nil {
		hc = s.http
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return "", &RemoteReadError{Path: s.cfg.Path, Err: err}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", &RemoteReadError{Path: s.cfg.Path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RemoteReadError{Path: s.cfg.Path, Err: fmt.Errorf("download failed: %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RemoteReadError{Path: s.cfg.Path, Err: err}
	}

	s.log.Debug("fetched note log", "path", s.cfg.Path, "bytes", len(body))
	return string(body), nil
}

// ParseLog splits text into display items, most recent note first.
// Keys count up from "0" in output order. Empty notes are kept.
func (s *Synchronizer) ParseLog(text string) []NoteItem {
	return Parse(text, s.cfg.Delimiter)
}

// AppendNote returns the log with newText added. New notes go in front of
// the existing content.
func (s *Synchronizer) AppendNote(newText, currentLog string) string {
	return Compose(newText, currentLog, s.cfg.Delimiter)
}

// CommitLog overwrites the remote log with newLog.
// A failed upload leaves the previous remote log in place and is returned
// as *RemoteWriteError.
func (s *Synchronizer) CommitLog(ctx context.Context, newLog string) error {
	if err := s.client.Upload(ctx, s.cfg.Path, strings.NewReader(newLog)); err != nil {
		return &RemoteWriteError{Path: s.cfg.Path, Err: err}
	}
	s.log.Debug("committed note log", "path", s.cfg.Path, "bytes", len(newLog))
	return nil
}

// Send re-reads the remote log, prepends text and uploads the result.
// It returns the log that was written. A read failure means nothing was
// uploaded.
func (s *Synchronizer) Send(ctx context.Context, text string) (string, error) {
	current, err := s.FetchLog(ctx)
	if err != nil {
		return "", err
	}
	newLog := s.AppendNote(text, current)
	if err := s.CommitLog(ctx, newLog); err != nil {
		return "", err
	}
	return newLog, nil
}

// Parse splits text on delimiter into display items. Blob order is kept
// without reversal: prepending already puts the most recent note first.
func Parse(text, delimiter string) []NoteItem {
	parts := strings.Split(text, delimiter)
	items := make([]NoteItem, len(parts))
	for i, p := range parts {
		items[i] = NoteItem{Key: strconv.Itoa(i), Value: p}
	}
	return items
}

// Compose returns newText + delimiter + currentLog.
func Compose(newText, currentLog, delimiter string) string {
	return newText + delimiter + currentLog
}

// Chronological returns items oldest first, re-keyed from "0".
func Chronological(items []NoteItem) []NoteItem {
	out := make([]NoteItem, len(items))
	for i, it := range items {
		out[len(items)-1-i] = NoteItem{Value: it.Value}
	}
	for i := range out {
		out[i].Key = strconv.Itoa(i)
	}
	return out
}
