package testutil

import (
	"context"

	"notelog/internal/config"
	"notelog/internal/notelog"
	"notelog/internal/screen"
	"notelog/internal/session"
)

// Fakes bundles the fakes behind a screen built by NewScreen.
type Fakes struct {
	Storage *FakeStorage
	Creds   *MemStore
	Authn   *FakeAuthenticator
}

// NewFakes returns empty fakes with an authenticator that fails.
func NewFakes() *Fakes {
	return &Fakes{
		Storage: NewFakeStorage(),
		Creds:   NewMemStore(nil),
		Authn:   &FakeAuthenticator{},
	}
}

// NewScreen returns a Dropbox screen over the fakes, using the default
// remote path and delimiter.
func (f *Fakes) NewScreen() *screen.Screen {
	boot := session.NewBootstrap(f.Creds, f.Authn, "Dropbox", nil)
	return screen.New(boot, func(ctx context.Context, s *session.Session) (*notelog.Synchronizer, error) {
		return notelog.New(f.Storage, notelog.Config{
			Path:      config.DefaultRemotePath,
			Delimiter: config.DefaultDelimiter,
		}), nil
	}, nil)
}
