package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"notelog/internal/config"
	"notelog/internal/exitcode"
	"notelog/internal/notelog"
	"notelog/internal/output"
	"notelog/internal/screen"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
// Handles both `notelog` (no args) and `notelog show`.
type ShowCmd struct {
	oldestFirst bool
}

// SetOldestFirst sets the display order (for testing).
func (c *ShowCmd) SetOldestFirst(v bool) {
	c.oldestFirst = v
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return []string{"list"} }
func (c *ShowCmd) Synopsis() string  { return "Print the notes" }
func (c *ShowCmd) Usage() string     { return "notelog show [--oldest-first]" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.oldestFirst, "oldest-first", false, "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, scr *screen.Screen, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if err := scr.Refresh(ctx); err != nil {
		return reportError(errOut, err)
	}

	printNotes(scr, c.oldestFirst, out)
	return exitcode.Success
}

// printNotes prints the notes currently on the screen.
func printNotes(scr *screen.Screen, oldestFirst bool, out io.Writer) {
	a, ok := scr.Snapshot().(screen.Authenticated)
	if !ok {
		return
	}
	notes := a.Notes
	if oldestFirst {
		notes = notelog.Chronological(notes)
	}
	output.FormatNotes(out, notes)
}
