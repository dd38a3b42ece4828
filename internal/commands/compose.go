package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"notelog/internal/config"
	"notelog/internal/exitcode"
	"notelog/internal/screen"
)

// sendLine on its own sends the buffered text.
const sendLine = "."

func init() {
	Register(&ComposeCmd{})
}

// ComposeCmd implements the interactive compose command.
// Lines read from stdin accumulate in the entry box until a line with a
// single "." sends them. EOF sends whatever is pending.
type ComposeCmd struct {
	oldestFirst bool
}

func (c *ComposeCmd) Name() string      { return "compose" }
func (c *ComposeCmd) Aliases() []string { return nil }
func (c *ComposeCmd) Synopsis() string  { return "Write notes interactively" }
func (c *ComposeCmd) Usage() string     { return "notelog compose [--oldest-first]" }
func (c *ComposeCmd) NeedsAuth() bool   { return true }

func (c *ComposeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.oldestFirst, "oldest-first", false, "")
}

func (c *ComposeCmd) Run(ctx context.Context, cfg *config.Config, scr *screen.Screen, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	// A failed load keeps the notes screen; sending still works.
	code := exitcode.Success
	if err := scr.Refresh(ctx); err != nil {
		code = reportError(errOut, err)
	} else {
		printNotes(scr, c.oldestFirst, out)
	}

	if !cfg.Quiet {
		fmt.Fprintf(errOut, "Type your note. A line with a single %q sends it; EOF sends and exits.\n", sendLine)
	}

	// ReadString has no line length limit, unlike bufio.Scanner.
	reader := bufio.NewReader(in)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if line == sendLine {
				code = c.sendPending(ctx, cfg, scr, out, errOut)
			} else if err := appendLine(scr, line); err != nil {
				return reportError(errOut, err)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read input: %v\n", err)
			printUnsent(scr, errOut)
			return exitcode.UserError
		}
	}

	if strings.TrimSpace(pendingInput(scr)) != "" {
		code = c.sendPending(ctx, cfg, scr, out, errOut)
		if code != exitcode.Success {
			printUnsent(scr, errOut)
		}
	}
	return code
}

// sendPending sends the entry box. Whitespace-only input is not sent.
func (c *ComposeCmd) sendPending(ctx context.Context, cfg *config.Config, scr *screen.Screen, out, errOut io.Writer) int {
	if strings.TrimSpace(pendingInput(scr)) == "" {
		return exitcode.Success
	}

	if err := scr.Send(ctx); err != nil {
		code := reportError(errOut, err)
		if !cfg.Quiet {
			fmt.Fprintf(errOut, "note kept; add more lines or type %q to retry\n", sendLine)
		}
		return code
	}

	if !cfg.Quiet {
		printNotes(scr, c.oldestFirst, out)
	}
	return exitcode.Success
}

func appendLine(scr *screen.Screen, line string) error {
	text := pendingInput(scr)
	if text != "" {
		text += "\n"
	}
	return scr.SetInput(text + line)
}

func pendingInput(scr *screen.Screen) string {
	a, _ := scr.Snapshot().(screen.Authenticated)
	return a.Input
}
