package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a scene file. It watches the parent
// directory so atomic saves that replace the file are seen too.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	log      *zap.Logger
}

// NewWatcher starts watching path.
func NewWatcher(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{fs: fs, path: abs, debounce: debounce, log: log}, nil
}

// Run calls onChange after the file settles from a change, until ctx is
// done. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.fs.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("scene file event", zap.String("op", e.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("scene watcher error", zap.Error(err))

		case <-timer.C:
			onChange()
		}
	}
}
