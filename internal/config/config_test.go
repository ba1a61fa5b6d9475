package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty domain", func(c *Config) { c.VixDomain = "" }},
		{"domain with path", func(c *Config) { c.VixDomain = "vixsrc.to/embed" }},
		{"empty language", func(c *Config) { c.Language = "" }},
		{"relative resolver", func(c *Config) { c.ResolverBase = "localhost:3001" }},
		{"poll timeout too low", func(c *Config) { c.PollTimeout = 0 }},
		{"poll timeout too high", func(c *Config) { c.PollTimeout = 301 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateAllowsEmptyResolver(t *testing.T) {
	c := Default()
	c.ResolverBase = ""
	if err := c.Validate(); err != nil {
		t.Errorf("empty resolver base should be allowed: %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvBotToken, "tok")
	t.Setenv(EnvTMDBAPIKey, "key")

	cfgDir := filepath.Join(dir, "vixbot")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := []byte("language = \"en-US\"\npoll_timeout = 60\nallowed_users = [11, 22]\n")
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "en-US" || cfg.PollTimeout != 60 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.VixDomain != "vixsrc.to" {
		t.Errorf("default not kept: %q", cfg.VixDomain)
	}
	if cfg.BotToken != "tok" || cfg.TMDBAPIKey != "key" {
		t.Errorf("secrets not loaded from environment")
	}
	if len(cfg.AllowedUsers) != 2 {
		t.Errorf("allowed_users = %v", cfg.AllowedUsers)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without a config file: %v", err)
	}
	if cfg.VixDomain != "vixsrc.to" {
		t.Errorf("domain = %q", cfg.VixDomain)
	}
}

func TestAllowed(t *testing.T) {
	c := Default()
	if !c.Allowed(123) {
		t.Error("empty allowlist should admit everyone")
	}
	c.AllowedUsers = []int64{1, 2}
	if !c.Allowed(2) {
		t.Error("listed user should be admitted")
	}
	if c.Allowed(3) {
		t.Error("unlisted user should be rejected")
	}
}

func TestExpandDownloadDir(t *testing.T) {
	c := Default()
	c.DownloadDir = "~/Videos/vixbot"
	dir, err := c.ExpandDownloadDir()
	if err != nil {
		t.Fatalf("ExpandDownloadDir: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("dir = %q, want absolute", dir)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "Videos", "vixbot"); dir != want {
		t.Errorf("dir = %q, want %q", dir, want)
	}
}
