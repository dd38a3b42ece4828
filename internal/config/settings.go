package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderDropbox     = "dropbox"
	ProviderGoogleDrive = "googledrive"
)

// Credential store backends.
const (
	CredentialsFile  = "file"
	CredentialsRedis = "redis"
)

// Defaults used when config.yaml leaves a field unset. The client ID is the
// public Dropbox app key; the credential key keeps existing stores readable.
const (
	DefaultClientID       = "x1vpgttqmls8oco"
	DefaultRemotePath     = "/notes_log.txt"
	DefaultDelimiter      = "\n\n----------\n\n"
	DefaultCredentialsKey = "dropboxAccessToken"
)

// Settings is the static configuration record read from config.yaml.
type Settings struct {
	Provider    string              `yaml:"provider"`
	ClientID    string              `yaml:"client_id"`
	RemotePath  string              `yaml:"remote_path"`
	Delimiter   string              `yaml:"delimiter"`
	Credentials CredentialsSettings `yaml:"credentials"`
	Logging     LoggingSettings     `yaml:"logging"`
}

// CredentialsSettings selects where the bearer token is kept.
type CredentialsSettings struct {
	Backend string        `yaml:"backend"`
	Key     string        `yaml:"key"`
	Redis   RedisSettings `yaml:"redis"`
}

// RedisSettings configures the redis credential store.
type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingSettings configures the optional rotating log file.
type LoggingSettings struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultSettings returns the settings used when config.yaml is absent.
func DefaultSettings() Settings {
	return Settings{
		Provider:   ProviderDropbox,
		ClientID:   DefaultClientID,
		RemotePath: DefaultRemotePath,
		Delimiter:  DefaultDelimiter,
		Credentials: CredentialsSettings{
			Backend: CredentialsFile,
			Key:     DefaultCredentialsKey,
			Redis:   RedisSettings{Addr: "localhost:6379"},
		},
		Logging: LoggingSettings{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadSettings reads path over the defaults, applies environment overrides
// and validates the result. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Settings{}, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	}

	if err := s.applyEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) applyEnv() error {
	overrides := []struct {
		env string
		dst *string
	}{
		{"NOTELOG_PROVIDER", &s.Provider},
		{"NOTELOG_CLIENT_ID", &s.ClientID},
		{"NOTELOG_REMOTE_PATH", &s.RemotePath},
		{"NOTELOG_CREDENTIALS_BACKEND", &s.Credentials.Backend},
		{"NOTELOG_REDIS_ADDR", &s.Credentials.Redis.Addr},
		{"NOTELOG_REDIS_PASSWORD", &s.Credentials.Redis.Password},
		{"NOTELOG_LOG_FILE", &s.Logging.File},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.dst = v
		}
	}

	if v, ok := os.LookupEnv("NOTELOG_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NOTELOG_REDIS_DB: %s", v)
		}
		s.Credentials.Redis.DB = db
	}
	return nil
}

// Validate checks that the settings describe a usable setup.
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderDropbox, ProviderGoogleDrive:
	default:
		return fmt.Errorf("unknown provider: %s", s.Provider)
	}

	switch s.Credentials.Backend {
	case CredentialsFile:
	case CredentialsRedis:
		if s.Credentials.Redis.Addr == "" {
			return errors.New("credentials.redis.addr required for redis backend")
		}
	default:
		return fmt.Errorf("unknown credentials backend: %s", s.Credentials.Backend)
	}

	if s.Provider == ProviderDropbox && s.ClientID == "" {
		return errors.New("client_id required for dropbox")
	}
	if !strings.HasPrefix(s.RemotePath, "/") || len(s.RemotePath) < 2 {
		return fmt.Errorf("remote_path must be an absolute file path: %q", s.RemotePath)
	}
	if s.Delimiter == "" {
		return errors.New("delimiter must not be empty")
	}
	if s.Credentials.Key == "" {
		return errors.New("credentials.key must not be empty")
	}
	return nil
}

// ProviderDisplayName returns the human name used in user-facing messages.
func (s Settings) ProviderDisplayName() string {
	switch s.Provider {
	case ProviderGoogleDrive:
		return "Google Drive"
	default:
		return "Dropbox"
	}
}
