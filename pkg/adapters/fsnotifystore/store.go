// Package fsnotifystore provides a ports.ContentStore over media library
// directories watched with fsnotify.
package fsnotifystore

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/user/mediactl/pkg/ports"
)

// DefaultExtensions are the media file extensions reported when none are
// configured.
var DefaultExtensions = []string{".mp4", ".m4v", ".m4a", ".mov"}

// Store watches library roots recursively and reports changed media files.
type Store struct {
	roots      []string
	extensions map[string]bool
	logger     ports.Logger
}

// New creates a store for the given roots. An empty extension list reports
// every file.
func New(roots []string, extensions []string, logger ports.Logger) *Store {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &Store{
		roots:      roots,
		extensions: exts,
		logger:     logger.WithComponent("fsnotify"),
	}
}

// Watch starts watching every root and its subdirectories. The returned
// channel is closed when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan ports.ContentChange, error) {
	if len(s.roots) == 0 {
		return nil, fmt.Errorf("no library roots configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, root := range s.roots {
		if err := s.addTree(watcher, root); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
		s.logger.Info("Watching library %s", root)
	}

	out := make(chan ports.ContentChange, 16)
	go s.loop(ctx, watcher, out)
	return out, nil
}

func (s *Store) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- ports.ContentChange) {
	defer close(out)
	defer func() {
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.addTree(watcher, event.Name); err != nil {
						s.logger.Warn("Failed to watch %s: %s", event.Name, err)
					}
					continue
				}
			}
			if !s.matches(event.Name) {
				continue
			}
			s.logger.Debug("Library change %s: %s", event.Op.String(), event.Name)
			select {
			case out <- ports.ContentChange{URI: FileURI(event.Name)}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Library watcher error: %s", err)
		}
	}
}

// addTree adds root and every directory below it.
func (s *Store) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (s *Store) matches(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if len(s.extensions) == 0 {
		return true
	}
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// FileURI converts a filesystem path to a file URI.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

var _ ports.ContentStore = (*Store)(nil)
