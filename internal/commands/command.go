// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"notelog/internal/config"
	"notelog/internal/exitcode"
	"notelog/internal/notelog"
	"notelog/internal/screen"
	"notelog/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a restored session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, settings).
	// scr is always provided; it is on the notes screen if NeedsAuth()
	// returns true and still Loading otherwise.
	// args contains positional arguments after flag parsing.
	// in is read by interactive commands.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, scr *screen.Screen, args []string, in io.Reader, out, errOut io.Writer) int
}

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	var authErr *session.AuthError
	var readErr *notelog.RemoteReadError
	var writeErr *notelog.RemoteWriteError

	switch {
	case errors.As(err, &authErr):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	case errors.As(err, &readErr), errors.As(err, &writeErr):
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	case errors.Is(err, screen.ErrNotAuthenticated):
		fmt.Fprintln(errOut, "error: not logged in (run: notelog login)")
		return exitcode.AuthError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
}
