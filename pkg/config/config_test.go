package config

import (
	"errors"
	"testing"
	"time"

	"github.com/user/mediactl/pkg/mocks"
	"github.com/user/mediactl/pkg/ports"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Player.PollIntervalMs != 500 {
		t.Errorf("PollIntervalMs = %d, want 500", cfg.Player.PollIntervalMs)
	}
	if cfg.Player.EventBuffer != 64 {
		t.Errorf("EventBuffer = %d, want 64", cfg.Player.EventBuffer)
	}
	if cfg.Player.CaptureTimeoutMs != 5000 {
		t.Errorf("CaptureTimeoutMs = %d, want 5000", cfg.Player.CaptureTimeoutMs)
	}
	if cfg.Surface.Width != 1280 || cfg.Surface.Height != 720 {
		t.Errorf("surface = %dx%d, want 1280x720", cfg.Surface.Width, cfg.Surface.Height)
	}
	if cfg.Library.CoalesceMs != 250 {
		t.Errorf("CoalesceMs = %d, want 250", cfg.Library.CoalesceMs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("mediactl.yaml", []byte(`
log_level: debug
player:
  poll_interval_ms: 250
  capture_timeout_ms: 1000
surface:
  width: 640
  height: 360
library:
  roots: [/srv/media]
  extensions: [.mp4]
`))

	cfg, err := Load(fs, "mediactl.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Level() != ports.LevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Level())
	}
	// Unset keys keep their defaults
	if cfg.Player.EventBuffer != 64 {
		t.Errorf("EventBuffer = %d, want default 64", cfg.Player.EventBuffer)
	}
	if cfg.Surface.Width != 640 || cfg.Surface.Height != 360 {
		t.Errorf("surface = %dx%d, want 640x360", cfg.Surface.Width, cfg.Surface.Height)
	}
	if len(cfg.Library.Roots) != 1 || cfg.Library.Roots[0] != "/srv/media" {
		t.Errorf("Roots = %v", cfg.Library.Roots)
	}
	if len(cfg.Library.Extensions) != 1 || cfg.Library.Extensions[0] != ".mp4" {
		t.Errorf("Extensions = %v", cfg.Library.Extensions)
	}

	opts := cfg.PlayerOptions()
	if opts.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", opts.PollInterval)
	}
	if opts.CaptureTimeout != time.Second {
		t.Errorf("CaptureTimeout = %v, want 1s", opts.CaptureTimeout)
	}
	if opts.EventBuffer != 64 {
		t.Errorf("EventBuffer = %d, want 64", opts.EventBuffer)
	}
	if cfg.Coalesce() != 250*time.Millisecond {
		t.Errorf("Coalesce = %v, want 250ms", cfg.Coalesce())
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load(mocks.NewFileSystem(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Player.PollIntervalMs != 500 {
		t.Errorf("expected defaults, got %+v", cfg.Player)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "player: [unclosed"},
		{"unknown log level", "log_level: loud"},
		{"zero poll interval", "player:\n  poll_interval_ms: 0"},
		{"negative event buffer", "player:\n  event_buffer: -1"},
		{"zero capture timeout", "player:\n  capture_timeout_ms: 0"},
		{"negative surface", "surface:\n  width: -1"},
		{"negative coalesce", "library:\n  coalesce_ms: -5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			fs.AddFile("c.yaml", []byte(tt.data))
			if _, err := Load(fs, "c.yaml"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_ReadError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.ReadFileFunc = func(path string) ([]byte, error) {
		return nil, errors.New("permission denied")
	}
	if _, err := Load(fs, "c.yaml"); err == nil {
		t.Error("expected read error")
	}
}
