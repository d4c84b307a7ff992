// Package config persists application settings: the registered accounts
// with their API tokens, the active account, and the sync tuning knobs.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"gopkg.in/yaml.v3"
)

// Defaults applied when no config file exists yet.
const (
	DefaultAppName        = "Smart Repository Manager"
	DefaultVersion        = "1.0.0"
	DefaultTimeoutSeconds = 30
	DefaultMaxRetries     = 3
)

// SyncConfig tunes the synchronization engine.
type SyncConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
}

// Config is the persisted application state.
type Config struct {
	AppName    string            `yaml:"app_name"`
	Version    string            `yaml:"version"`
	LastLaunch string            `yaml:"last_launch,omitempty"`
	ActiveUser string            `yaml:"active_user,omitempty"`
	Users      map[string]string `yaml:"users"`
	Sync       SyncConfig        `yaml:"sync"`
}

// HasUsers reports whether any account is registered.
func (c *Config) HasUsers() bool {
	return len(c.Users) > 0
}

// UserNames returns the registered account names.
func (c *Config) UserNames() []string {
	names := make([]string, 0, len(c.Users))
	for name := range c.Users {
		names = append(names, name)
	}
	return names
}

func defaultConfig() *Config {
	return &Config{
		AppName: DefaultAppName,
		Version: DefaultVersion,
		Users:   make(map[string]string),
		Sync: SyncConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			MaxRetries:     DefaultMaxRetries,
		},
	}
}

// Options configures a Store.
type Options struct {
	// Path is the config file location. Defaults to
	// smart-repo-manager/config.yaml under the XDG config home.
	Path string

	// FS is the filesystem the store reads and writes. Defaults to the
	// native filesystem.
	FS fs.Filesystem
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithPath overrides the config file location.
func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

// WithFS overrides the backing filesystem.
func WithFS(fsys fs.Filesystem) Option {
	return func(o *Options) { o.FS = fsys }
}

// Store loads and persists the application config.
type Store struct {
	path   string
	fs     fs.Filesystem
	config *Config
	now    func() time.Time
}

// NewStore creates a config store.
func NewStore(opts ...Option) *Store {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Path == "" {
		options.Path = filepath.Join(xdg.ConfigHome, "smart-repo-manager", "config.yaml")
	}
	if options.FS == nil {
		options.FS = billy.NewBaseOSFS()
	}
	return &Store{
		path: options.Path,
		fs:   options.FS,
		now:  time.Now,
	}
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the config file. A missing file yields the defaults with
// the launch timestamp stamped, persisted immediately.
func (s *Store) Load() (*Config, error) {
	exists, err := s.fs.Exists(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}

	if !exists {
		s.config = defaultConfig()
		s.config.LastLaunch = s.now().Format(time.RFC3339)
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s.config, nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Users == nil {
		cfg.Users = make(map[string]string)
	}
	s.config = cfg
	return cfg, nil
}

// Config returns the loaded config, loading it on first use.
func (s *Store) Config() (*Config, error) {
	if s.config != nil {
		return s.config, nil
	}
	return s.Load()
}

// Save writes the current config to disk with owner-only permissions.
// Tokens live in this file.
func (s *Store) Save() error {
	if s.config == nil {
		return fmt.Errorf("no config loaded")
	}

	data, err := yaml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.fs.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// TouchLastLaunch stamps the launch time and persists it.
func (s *Store) TouchLastLaunch() error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	cfg.LastLaunch = s.now().Format(time.RFC3339)
	return s.Save()
}

// AddUser registers an account with its token and makes it active.
func (s *Store) AddUser(username, token string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	cfg.Users[username] = token
	cfg.ActiveUser = username
	return s.Save()
}

// RemoveUser deletes an account. The active account is cleared when it
// is the one removed.
func (s *Store) RemoveUser(username string) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	delete(cfg.Users, username)
	if cfg.ActiveUser == username {
		cfg.ActiveUser = ""
	}
	return s.Save()
}

// SetActiveUser switches the active account to a registered one.
func (s *Store) SetActiveUser(username string) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if _, ok := cfg.Users[username]; !ok {
		return fmt.Errorf("unknown user: %s", username)
	}
	cfg.ActiveUser = username
	return s.Save()
}

// ActiveUser returns the active account name, empty when none is set.
func (s *Store) ActiveUser() (string, error) {
	cfg, err := s.Config()
	if err != nil {
		return "", err
	}
	return cfg.ActiveUser, nil
}

// UserToken returns the token of a registered account.
func (s *Store) UserToken(username string) (string, error) {
	cfg, err := s.Config()
	if err != nil {
		return "", err
	}
	token, ok := cfg.Users[username]
	if !ok {
		return "", fmt.Errorf("unknown user: %s", username)
	}
	return token, nil
}
