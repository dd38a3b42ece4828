// Package app builds the notes screen for the configured provider.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"notelog/internal/auth"
	"notelog/internal/backend/dropbox"
	"notelog/internal/backend/googledrive"
	"notelog/internal/config"
	"notelog/internal/credstore"
	"notelog/internal/notelog"
	"notelog/internal/screen"
	"notelog/internal/session"
	"notelog/internal/storage"
)

// New wires the credential store, the login flow and the storage backend
// selected by cfg.Settings. Login prompts are written to prompt.
// The returned closer releases the credential store.
func New(ctx context.Context, cfg *config.Config, prompt io.Writer) (*screen.Screen, io.Closer, error) {
	if err := cfg.Settings.Validate(); err != nil {
		return nil, nil, err
	}

	store, closer := NewStore(cfg)
	authn := NewAuthenticator(cfg, prompt)
	boot := session.NewBootstrap(store, authn, cfg.Settings.ProviderDisplayName(), cfg.Log())

	return screen.New(boot, SyncFactory(cfg), cfg.Log()), closer, nil
}

// NewStore returns the credential store named by the settings.
func NewStore(cfg *config.Config) (credstore.Store, io.Closer) {
	creds := cfg.Settings.Credentials
	if creds.Backend == config.CredentialsRedis {
		s := credstore.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     creds.Redis.Addr,
			Password: creds.Redis.Password,
			DB:       creds.Redis.DB,
		}), creds.Key)
		return s, s
	}
	return credstore.NewFileStore(cfg.TokenPath()), nopCloser{}
}

// NewAuthenticator returns the interactive login for the provider.
func NewAuthenticator(cfg *config.Config, prompt io.Writer) auth.Authenticator {
	if cfg.Settings.Provider == config.ProviderGoogleDrive {
		return &driveLogin{cfg: cfg, prompt: prompt}
	}
	return &auth.Loopback{
		Config: dropbox.OAuthConfig(cfg.Settings.ClientID),
		Prompt: prompt,
		Logger: cfg.Log(),
	}
}

// SyncFactory returns a screen.SyncFactory building the provider's storage
// client around the session token.
func SyncFactory(cfg *config.Config) screen.SyncFactory {
	return func(ctx context.Context, s *session.Session) (*notelog.Synchronizer, error) {
		var client storage.Client
		switch cfg.Settings.Provider {
		case config.ProviderGoogleDrive:
			c, err := googledrive.New(ctx, s.TokenSource())
			if err != nil {
				return nil, err
			}
			client = googledrive.AutoCreate{Client: c}
		default:
			client = dropbox.New(s.Token)
		}

		return notelog.New(client, notelog.Config{
			Path:      cfg.Settings.RemotePath,
			Delimiter: cfg.Settings.Delimiter,
		}, notelog.WithLogger(cfg.Log())), nil
	}
}

// driveLogin reads oauth_client.json only when a login is attempted, so a
// stored session works without it.
type driveLogin struct {
	cfg    *config.Config
	prompt io.Writer
}

func (d *driveLogin) Authorize(ctx context.Context) (auth.Result, error) {
	oauthConfig, err := googledrive.OAuthConfig(d.cfg.OAuthClientPath())
	if err != nil {
		return auth.Result{}, fmt.Errorf("google drive login: %w", err)
	}
	l := &auth.Loopback{
		Config: oauthConfig,
		Prompt: d.prompt,
		Logger: d.cfg.Log(),
	}
	return l.Authorize(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
