package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"notelog/internal/config"
	"notelog/internal/exitcode"
	"notelog/internal/screen"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return nil }
func (c *AddCmd) Synopsis() string  { return "Append a note" }
func (c *AddCmd) Usage() string     { return "notelog add <text...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, scr *screen.Screen, args []string, in io.Reader, out, errOut io.Writer) int {
	// Join args to form the note
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(errOut, "error: note text required")
		return exitcode.UserError
	}

	if err := scr.SetInput(text); err != nil {
		return reportError(errOut, err)
	}
	if err := scr.Send(ctx); err != nil {
		code := reportError(errOut, err)
		printUnsent(scr, errOut)
		return code
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// printUnsent echoes the restored input so a failed note is not lost.
func printUnsent(scr *screen.Screen, errOut io.Writer) {
	if a, ok := scr.Snapshot().(screen.Authenticated); ok && a.Input != "" {
		fmt.Fprintln(errOut, "note not sent:")
		fmt.Fprintln(errOut, a.Input)
	}
}
