// Package screen holds the client's single state record and the transitions
// that move it between the login screen and the notes screen.
package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"notelog/internal/notelog"
	"notelog/internal/session"
)

// Phase is the progress of a send on the notes screen.
type Phase int

const (
	// Idle means the send action is enabled.
	Idle Phase = iota
	// Fetching means the remote log is being re-read.
	Fetching
	// Composing means the new log is being built.
	Composing
	// Uploading means the new log is being written.
	Uploading
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Composing:
		return "composing"
	case Uploading:
		return "uploading"
	default:
		return "unknown"
	}
}

var (
	// ErrNotAuthenticated is returned by transitions that need the notes screen.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrSendInFlight is returned when Send is triggered while a send runs.
	ErrSendInFlight = errors.New("a note is already being sent")

	// ErrAlreadyAuthenticated is returned by Login on the notes screen.
	ErrAlreadyAuthenticated = errors.New("already logged in")
)

// State is one of Loading, Unauthenticated or Authenticated.
type State interface {
	isState()
}

// Loading is the state before the credential store has been read.
type Loading struct{}

// Unauthenticated is the login screen.
type Unauthenticated struct {
	// ErrorMessage is the text of the last failed login, if any.
	ErrorMessage string
}

// Authenticated is the notes screen.
type Authenticated struct {
	Notes []notelog.NoteItem
	Input string
	Phase Phase
}

// SendEnabled reports whether the send action is available.
func (a Authenticated) SendEnabled() bool { return a.Phase == Idle }

func (Loading) isState()         {}
func (Unauthenticated) isState() {}
func (Authenticated) isState()   {}

// SyncFactory builds a synchronizer for an authenticated session.
type SyncFactory func(ctx context.Context, s *session.Session) (*notelog.Synchronizer, error)

// Screen owns the state and serializes transitions. I/O runs with the lock
// released; the send phase keeps a second send from starting meanwhile.
type Screen struct {
	mu    sync.Mutex
	state State

	boot    *session.Bootstrap
	newSync SyncFactory
	syncer  *notelog.Synchronizer
	log     *slog.Logger
}

// New returns a Screen in the Loading state.
func New(boot *session.Bootstrap, newSync SyncFactory, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Screen{
		state:   Loading{},
		boot:    boot,
		newSync: newSync,
		log:     logger,
	}
}

// Snapshot returns a copy of the current state.
func (s *Screen) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.(Authenticated); ok {
		a.Notes = append([]notelog.NoteItem(nil), a.Notes...)
		return a
	}
	return s.state
}

// Bootstrap returns the session bootstrap the screen was built with.
func (s *Screen) Bootstrap() *session.Bootstrap {
	return s.boot
}

// Start restores the session and, when one exists, loads the notes.
// A failed load keeps the notes screen and returns the read error.
func (s *Screen) Start(ctx context.Context) error {
	if err := s.Restore(ctx); err != nil {
		return err
	}
	if _, ok := s.Snapshot().(Authenticated); !ok {
		return nil
	}
	return s.Refresh(ctx)
}

// Restore reads the credential store and moves to the login or notes
// screen. The stored credential is trusted as is.
func (s *Screen) Restore(ctx context.Context) error {
	sess, err := s.boot.Restore(ctx)
	if errors.Is(err, session.ErrNoSession) {
		s.set(Unauthenticated{})
		return nil
	}
	if err != nil {
		return err
	}
	return s.authenticate(ctx, sess)
}

// Login runs the interactive login from the login screen. On failure the
// login screen shows the fixed error message and the error is returned.
func (s *Screen) Login(ctx context.Context) error {
	s.mu.Lock()
	if _, ok := s.state.(Authenticated); ok {
		s.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	s.state = Unauthenticated{}
	s.mu.Unlock()

	sess, err := s.boot.Login(ctx)
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			s.set(Unauthenticated{ErrorMessage: authErr.Error()})
		}
		return err
	}

	if err := s.authenticate(ctx, sess); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Refresh reloads the notes from the remote log.
func (s *Screen) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if _, ok := s.state.(Authenticated); !ok {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	syncer := s.syncer
	s.mu.Unlock()

	text, err := syncer.FetchLog(ctx)
	if err != nil {
		return err
	}
	notes := syncer.ParseLog(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.(Authenticated); ok {
		a.Notes = notes
		s.state = a
	}
	return nil
}

// SetInput replaces the text in the entry box.
func (s *Screen) SetInput(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.(Authenticated)
	if !ok {
		return ErrNotAuthenticated
	}
	a.Input = text
	s.state = a
	return nil
}

// Send submits the current input. The input is cleared while the send
// runs; on failure it is restored exactly and the send action re-enabled.
func (s *Screen) Send(ctx context.Context) error {
	s.mu.Lock()
	a, ok := s.state.(Authenticated)
	if !ok {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if a.Phase != Idle {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	content := a.Input
	a.Input = ""
	a.Phase = Fetching
	s.state = a
	syncer := s.syncer
	s.mu.Unlock()

	s.log.Debug("send started", "chars", len(content))

	current, err := syncer.FetchLog(ctx)
	if err != nil {
		s.fail(content, err)
		return err
	}

	s.setPhase(Composing)
	newLog := syncer.AppendNote(content, current)

	s.setPhase(Uploading)
	if err := syncer.CommitLog(ctx, newLog); err != nil {
		s.fail(content, err)
		return err
	}

	notes := syncer.ParseLog(newLog)
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.(Authenticated); ok {
		a.Notes = notes
		a.Phase = Idle
		s.state = a
	}
	s.log.Debug("send finished", "notes", len(notes))
	return nil
}

func (s *Screen) authenticate(ctx context.Context, sess *session.Session) error {
	syncer, err := s.newSync(ctx, sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncer = syncer
	s.state = Authenticated{}
	return nil
}

func (s *Screen) fail(content string, err error) {
	s.log.Debug("send failed", "err", err)
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.(Authenticated); ok {
		a.Input = content
		a.Phase = Idle
		s.state = a
	}
}

func (s *Screen) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.state.(Authenticated); ok {
		a.Phase = p
		s.state = a
	}
}

func (s *Screen) set(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}
