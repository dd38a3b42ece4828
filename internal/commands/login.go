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
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct{}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Authenticate with the storage provider" }
func (c *LoginCmd) Usage() string     { return "notelog login [common flags]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, scr *screen.Screen, args []string, in io.Reader, out, errOut io.Writer) int {
	if cfg.Settings.Provider == config.ProviderGoogleDrive && !cfg.HasOAuthClient() {
		printOAuthClientHelp(cfg, errOut)
		return exitcode.AuthError
	}

	// A stored credential is trusted as is; it is not checked with the provider.
	if err := scr.Restore(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if _, ok := scr.Snapshot().(screen.Authenticated); ok {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	err := scr.Login(ctx)
	var readErr *notelog.RemoteReadError
	switch {
	case err == nil:
	case errors.As(err, &readErr):
		// The session is stored; only the first load failed.
		fmt.Fprintf(errOut, "warning: could not load notes: %v\n", err)
	default:
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func printOAuthClientHelp(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "To store notes in Google Drive, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Google Drive API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/drive.googleapis.com")
	fmt.Fprintln(errOut, "4. Create OAuth 2.0 credentials:")
	fmt.Fprintln(errOut, "   - Click 'Create Credentials' > 'OAuth client ID'")
	fmt.Fprintln(errOut, "   - Choose 'Desktop app' as application type")
	fmt.Fprintln(errOut, "   - Download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s/oauth_client.json\n", cfg.Dir)
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'notelog login' again.")
}
