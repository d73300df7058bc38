package scene

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"forward-engine/core"
)

// Watcher reports writes to a scene file. Events are coalesced over a short
// window and delivered on Changes; the frame loop drains it once per frame
// and reloads on the main thread.
type Watcher struct {
	path    string
	watch   *fsnotify.Watcher
	changes chan string
	done    chan struct{}
	once    sync.Once
}

const watchDebounce = 100 * time.Millisecond

// WatchFile starts watching path. The parent directory is watched so editors
// that save by rename are still seen.
func WatchFile(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "watch %q", path)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %q", path)
	}
	w := &Watcher{
		path:    abs,
		watch:   fw,
		changes: make(chan string, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Changes() <-chan string { return w.changes }

func (w *Watcher) run() {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watch.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-w.watch.Errors:
			if !ok {
				return
			}
			core.Logger().Warn("scene watcher", "path", w.path, "err", err)
		case <-fire:
			fire = nil
			select {
			case w.changes <- w.path:
			default:
				// A reload is already pending.
			}
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watch.Close()
	})
	return err
}
