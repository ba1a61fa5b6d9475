// Package config handles TOML-based configuration loading and validation.
// Settings come from an XDG config file merged over defaults; secrets (bot
// token, catalog API key) come from the environment, with .env support.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variable names for secrets.
const (
	EnvBotToken   = "VIXBOT_TOKEN"
	EnvTMDBAPIKey = "TMDB_API_KEY"
)

// Config holds all application configuration.
type Config struct {
	VixDomain    string  `toml:"vix_domain"`
	Language     string  `toml:"language"`
	ResolverBase string  `toml:"resolver_base"`
	DownloadDir  string  `toml:"download_dir"`
	AllowedUsers []int64 `toml:"allowed_users"`
	PollTimeout  int     `toml:"poll_timeout"` // long-poll timeout in seconds
	Debug        bool    `toml:"debug"`

	// Secrets, environment only.
	BotToken   string `toml:"-"`
	TMDBAPIKey string `toml:"-"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		VixDomain:    "vixsrc.to",
		Language:     "it-IT",
		ResolverBase: "http://127.0.0.1:3001",
		DownloadDir:  "~/Videos/vixbot",
		PollTimeout:  30,
		Debug:        false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vixbot"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vixbot"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, merges it with defaults, and pulls secrets
// from the environment. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// .env is a convenience for development; absence is fine.
	_ = godotenv.Load()
	cfg.BotToken = os.Getenv(EnvBotToken)
	cfg.TMDBAPIKey = os.Getenv(EnvTMDBAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.VixDomain == "" {
		return fmt.Errorf("vix_domain cannot be empty")
	}
	if strings.Contains(c.VixDomain, "/") {
		return fmt.Errorf("vix_domain must be a bare host, got %q", c.VixDomain)
	}
	if c.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if c.ResolverBase != "" {
		u, err := url.Parse(c.ResolverBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("resolver_base must be a full URL, got %q", c.ResolverBase)
		}
	}
	if c.PollTimeout < 1 || c.PollTimeout > 300 {
		return fmt.Errorf("poll_timeout must be between 1 and 300 seconds, got %d", c.PollTimeout)
	}
	return nil
}

// Allowed reports whether a user may talk to the bot. An empty allowlist
// admits everyone.
func (c *Config) Allowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryDBPath returns the path to the download history database.
func HistoryDBPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "vixbot", "history.db"), nil
}
