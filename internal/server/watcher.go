package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
	"git.home.luguber.info/inful/tripsite/internal/logfields"
)

// watchEvent is emitted once a burst of changes has gone quiet.
type watchEvent struct {
	Path    string // last changed path
	Changes int
}

type watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	done chan struct{}
	once sync.Once
}

// newWatcher watches every existing directory in dirs recursively.
func newWatcher(dirs []string, debounce time.Duration, logger *slog.Logger) (*watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	w := &watcher{fs: fw, debounce: debounce, logger: logger, done: make(chan struct{})}
	watched := 0
	for _, dir := range dirs {
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			logger.Debug("Watch directory missing", logfields.Path(dir))
			continue
		}
		w.addRecursive(dir)
		watched++
	}
	if watched == 0 {
		_ = fw.Close()
		return nil, errors.ValidationError("none of the watch directories exist").
			WithContext("dirs", strings.Join(dirs, ",")).
			Build()
	}
	return w, nil
}

// Run forwards debounced changes until ctx is canceled or the watcher closes.
func (w *watcher) Run(ctx context.Context) <-chan watchEvent {
	out := make(chan watchEvent)
	go w.loop(ctx, out)
	return out
}

func (w *watcher) loop(ctx context.Context, out chan<- watchEvent) {
	defer close(out)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var quiet <-chan time.Time
	var pending watchEvent

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod || shouldIgnoreEvent(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					w.addRecursive(ev.Name)
				}
			}
			pending.Path = ev.Name
			pending.Changes++
			timer.Reset(w.debounce)
			quiet = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", logfields.Error(err))
		case <-quiet:
			quiet = nil
			select {
			case out <- pending:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
			pending = watchEvent{}
		}
	}
}

// Close stops the watcher; safe to call more than once.
func (w *watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent matches hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
