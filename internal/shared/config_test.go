package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ytaudio.db" {
			t.Errorf("expected database path ./ytaudio.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Search.BaseURL != "https://youtube.com/results" {
			t.Errorf("expected search base url https://youtube.com/results, got %s", config.Search.BaseURL)
		}

		if config.Search.Timeout() != 15*time.Second {
			t.Errorf("expected 15s timeout, got %v", config.Search.Timeout())
		}

		if config.Tools.Downloader.Path != "yt-dlp" || len(config.Tools.Downloader.Args) != 7 {
			t.Errorf("unexpected downloader %v", config.Tools.Downloader)
		}

		if config.Tools.Transcoder.Args[4] != "file:{output}" {
			t.Errorf("expected transcoder to write file:{output}, got %s", config.Tools.Transcoder.Args[4])
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[tools.resolver]
path = "/opt/bin/youtube-dl"
args = ["-g", "{url}"]

[jobs]
max_concurrent = 4
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Tools.Resolver.Path != "/opt/bin/youtube-dl" {
			t.Errorf("expected resolver youtube-dl, got %s", config.Tools.Resolver.Path)
		}

		if config.Audio.Codec != "libmp3lame" {
			t.Errorf("expected unset keys to keep defaults, got codec %q", config.Audio.Codec)
		}

		if config.Jobs.MaxConcurrent != 4 {
			t.Errorf("expected 4 concurrent jobs, got %d", config.Jobs.MaxConcurrent)
		}
	})

	t.Run("LoadConfig with invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[search\nbase_url ="), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(c *Config)
		}{
			{"relative base url", func(c *Config) { c.Search.BaseURL = "/results" }},
			{"empty watch url", func(c *Config) { c.Search.WatchURL = "" }},
			{"zero rate", func(c *Config) { c.Search.RequestsPerSecond = 0 }},
			{"zero timeout", func(c *Config) { c.Search.TimeoutSeconds = 0 }},
			{"empty codec", func(c *Config) { c.Audio.Codec = "" }},
			{"empty resolver path", func(c *Config) { c.Tools.Resolver.Path = "" }},
			{"unknown downloader placeholder", func(c *Config) { c.Tools.Downloader.Args = []string{"{input}"} }},
			{"empty database path", func(c *Config) { c.Database.Path = "" }},
			{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
			{"no job slots", func(c *Config) { c.Jobs.MaxConcurrent = 0 }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)

				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
