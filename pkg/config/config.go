// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/mediactl/pkg/adapters/fsnotifystore"
	"github.com/user/mediactl/pkg/player"
	"github.com/user/mediactl/pkg/ports"
)

// Config represents the full configuration for mediactl.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Player   PlayerConfig  `yaml:"player"`
	Surface  SurfaceConfig `yaml:"surface"`
	Library  LibraryConfig `yaml:"library"`
}

// PlayerConfig configures every player created by the registry.
type PlayerConfig struct {
	PollIntervalMs   int `yaml:"poll_interval_ms"`
	EventBuffer      int `yaml:"event_buffer"`
	CaptureTimeoutMs int `yaml:"capture_timeout_ms"`
}

// SurfaceConfig sets the size of the presentation surface.
type SurfaceConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LibraryConfig configures media library change notifications.
type LibraryConfig struct {
	Roots      []string `yaml:"roots"`
	Extensions []string `yaml:"extensions"`
	CoalesceMs int      `yaml:"coalesce_ms"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Player: PlayerConfig{
			PollIntervalMs:   int(player.DefaultPollInterval / time.Millisecond),
			EventBuffer:      player.DefaultEventBuffer,
			CaptureTimeoutMs: int(player.DefaultCaptureTimeout / time.Millisecond),
		},
		Surface: SurfaceConfig{
			Width:  1280,
			Height: 720,
		},
		Library: LibraryConfig{
			Extensions: append([]string{}, fsnotifystore.DefaultExtensions...),
			CoalesceMs: 250,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(fs ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "quiet":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.Player.PollIntervalMs <= 0 {
		return fmt.Errorf("player.poll_interval_ms must be positive, got %d", c.Player.PollIntervalMs)
	}
	if c.Player.EventBuffer <= 0 {
		return fmt.Errorf("player.event_buffer must be positive, got %d", c.Player.EventBuffer)
	}
	if c.Player.CaptureTimeoutMs <= 0 {
		return fmt.Errorf("player.capture_timeout_ms must be positive, got %d", c.Player.CaptureTimeoutMs)
	}
	if c.Surface.Width < 0 || c.Surface.Height < 0 {
		return fmt.Errorf("surface size must not be negative, got %dx%d", c.Surface.Width, c.Surface.Height)
	}
	if c.Library.CoalesceMs < 0 {
		return fmt.Errorf("library.coalesce_ms must not be negative, got %d", c.Library.CoalesceMs)
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// PlayerOptions converts the player section to player.Options.
func (c Config) PlayerOptions() player.Options {
	opts := player.DefaultOptions()
	opts.PollInterval = time.Duration(c.Player.PollIntervalMs) * time.Millisecond
	opts.EventBuffer = c.Player.EventBuffer
	opts.CaptureTimeout = time.Duration(c.Player.CaptureTimeoutMs) * time.Millisecond
	return opts
}

// Coalesce returns the library coalescing window.
func (c Config) Coalesce() time.Duration {
	return time.Duration(c.Library.CoalesceMs) * time.Millisecond
}
