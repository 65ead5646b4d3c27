package devserver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// skippedDirs are never watched, wherever they appear in the tree.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// watcher reports debounced source changes under a directory tree.
type watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	logger   zerolog.Logger
}

// newWatcher watches every directory under root except the skipped names and
// the ignored absolute paths (the build output).
func newWatcher(root string, ignore []string, debounce time.Duration, logger zerolog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &watcher{
		root:     filepath.Clean(root),
		debounce: debounce,
		fsw:      fsw,
		logger:   logger,
	}
	for _, p := range ignore {
		w.ignore = append(w.ignore, filepath.Clean(p))
	}

	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) ignored(path string) bool {
	if skippedDirs[filepath.Base(path)] {
		return true
	}
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.logger.Debug().Str("dir", path).Msg("Watching directory")
		return nil
	})
}

// run calls onChange once per burst of changes until ctx is cancelled. The
// watcher is closed when run returns.
func (w *watcher) run(ctx context.Context, onChange func(context.Context)) error {
	defer func() { _ = w.fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || w.ignored(event.Name) {
				continue
			}

			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Source changed")

			if event.Has(fsnotify.Create) {
				if err := w.addTree(event.Name); err != nil {
					// the path may already be gone or be a plain file
					w.logger.Debug().Err(err).Str("path", event.Name).Msg("Not watching created path")
				}
			}

			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-timer.C:
			onChange(ctx)
		}
	}
}
