package registry

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
)

// Watcher rebuilds the catalogue when its file changes on disk. Each change
// produces a freshly built, frozen catalogue delivered to the callback;
// consumers swap their store reference, never mutate in place. A catalogue
// that fails to load leaves the previous one in service.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *zap.SugaredLogger
	onLoad  func(*Catalogue)
}

// NewWatcher watches path and calls onLoad with each successfully reloaded
// catalogue. Call Run to start it.
func NewWatcher(path string, log *zap.SugaredLogger, onLoad func(*Catalogue)) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}
	return &Watcher{path: path, watcher: fw, log: log, onLoad: onLoad}, nil
}

// Run blocks, reloading the catalogue on every write to the watched file,
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			cat, err := Load(w.path)
			if err != nil {
				w.log.Warnw("catalogue reload failed, keeping previous", "path", w.path, "error", err)
				continue
			}
			w.log.Infow("catalogue reloaded", "path", w.path, "commands", len(cat.Commands))
			w.onLoad(cat)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("catalogue watcher error", "error", err)
		}
	}
}
