package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/ytaudio/internal/tools"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Search   SearchConfig   `toml:"search"`
	Audio    AudioConfig    `toml:"audio"`
	Tools    ToolsConfig    `toml:"tools"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Jobs     JobsConfig     `toml:"jobs"`
}

// SearchConfig controls requests to the results page.
type SearchConfig struct {
	BaseURL           string  `toml:"base_url"`
	WatchURL          string  `toml:"watch_url"`
	UserAgent         string  `toml:"user_agent"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Timeout returns the request timeout as a [time.Duration].
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// AudioConfig holds the output format passed to the downloader and the codec passed to the transcoder.
type AudioConfig struct {
	Format string `toml:"format"`
	Codec  string `toml:"codec"`
}

// ToolsConfig locates the external programs.
type ToolsConfig struct {
	Resolver   tools.Tool `toml:"resolver"`
	Downloader tools.Tool `toml:"downloader"`
	Transcoder tools.Tool `toml:"transcoder"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// JobsConfig bounds background download and stream jobs.
type JobsConfig struct {
	MaxConcurrent int    `toml:"max_concurrent"`
	OutputDir     string `toml:"output_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports every problem found in c, joined, each wrapping [ErrInvalidConfig].
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	for key, raw := range map[string]string{"search.base_url": c.Search.BaseURL, "search.watch_url": c.Search.WatchURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			invalid("%s must be an absolute url, got %q", key, raw)
		}
	}
	if c.Search.RequestsPerSecond <= 0 {
		invalid("search.requests_per_second must be positive")
	}
	if c.Search.TimeoutSeconds <= 0 {
		invalid("search.timeout_seconds must be positive")
	}

	if c.Audio.Format == "" || c.Audio.Codec == "" {
		invalid("audio.format and audio.codec are required")
	}

	checks := []struct {
		key   string
		tool  tools.Tool
		names []string
	}{
		{"tools.resolver", c.Tools.Resolver, []string{"url"}},
		{"tools.downloader", c.Tools.Downloader, []string{"url", "output", "format"}},
		{"tools.transcoder", c.Tools.Transcoder, []string{"input", "codec", "output"}},
	}
	for _, check := range checks {
		if err := check.tool.Validate(check.names...); err != nil {
			invalid("%s: %v", check.key, err)
		}
	}

	if c.Database.Path == "" {
		invalid("database.path is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		invalid("server.port %d out of range", c.Server.Port)
	}
	if c.Jobs.MaxConcurrent <= 0 {
		invalid("jobs.max_concurrent must be positive")
	}

	return errors.Join(errs...)
}
