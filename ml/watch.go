package ml

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher notices when an artifact file changes on disk. Loaded artifacts are
// never swapped; the flag only tells operators the process needs a restart.
type Watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	changed atomic.Bool
	logger  *zap.Logger
}

// NewWatcher watches the directories holding files, since editors and deploy
// tools usually replace files by rename rather than writing them in place.
func NewWatcher(files []string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		files:   make(map[string]struct{}, len(files)),
		logger:  logger,
	}
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run consumes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[abs]; !ok {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.changed.Swap(true) {
		w.logger.Warn("artifact changed on disk, restart to serve it",
			zap.String("path", abs), zap.String("op", event.Op.String()))
	}
}

// Changed reports whether any artifact was modified since startup.
func (w *Watcher) Changed() bool {
	return w.changed.Load()
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
