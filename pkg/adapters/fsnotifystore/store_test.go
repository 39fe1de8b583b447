package fsnotifystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/mediactl/pkg/adapters/logger"
	"github.com/user/mediactl/pkg/ports"
)

func waitChange(t *testing.T, ch <-chan ports.ContentChange, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed while waiting for %s", want)
			}
			if c.URI == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestStore_ReportsMediaFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New([]string{dir}, []string{"mp4"}, logger.NewNoop())
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// Non-matching and hidden files are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".clip.mp4.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	waitChange(t, ch, FileURI(path))
}

func TestStore_WatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New([]string{dir}, nil, logger.NewNoop())
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	sub := filepath.Join(dir, "season1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	// The new directory is watched asynchronously; retry the write until
	// its change is observed.
	path := filepath.Join(sub, "episode.mp4")
	deadline := time.Now().Add(3 * time.Second)
	for {
		if err := os.WriteFile(path, []byte(time.Now().String()), 0644); err != nil {
			t.Fatal(err)
		}
		select {
		case c := <-ch:
			if c.URI == FileURI(path) {
				return
			}
		case <-time.After(100 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no change reported from new subdirectory")
		}
	}
}

func TestStore_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := New([]string{t.TempDir()}, nil, logger.NewNoop())
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestStore_WatchErrors(t *testing.T) {
	s := New(nil, nil, logger.NewNoop())
	if _, err := s.Watch(context.Background()); err == nil {
		t.Error("expected error without roots")
	}

	s = New([]string{filepath.Join(t.TempDir(), "missing")}, nil, logger.NewNoop())
	if _, err := s.Watch(context.Background()); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestFileURI(t *testing.T) {
	got := FileURI("/media/My Clips/a.mp4")
	if got != "file:///media/My%20Clips/a.mp4" {
		t.Errorf("FileURI = %q", got)
	}
}
