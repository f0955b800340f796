package tui

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"svcman/internal/logger"
)

// Watcher signals on C whenever the watched file is created, written,
// renamed over or removed.
type Watcher struct {
	C chan struct{}

	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
	log     logger.Logger
}

// WatchFile watches path through its parent directory, since the registry
// is replaced by rename rather than written in place.
func WatchFile(path string, log logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		C:       make(chan struct{}, 1),
		path:    filepath.Clean(path),
		watcher: fw,
		done:    make(chan struct{}),
		log:     log,
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.C)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("registry changed", logger.String("event", event.String()))
			select {
			case w.C <- struct{}{}:
			default:
				// a reload is already pending
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("registry watch error", logger.Error(err))

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// Close stops the watcher and closes C.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
