package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/screenloop/internal/logging"
)

// ReloadFunc receives the freshly loaded configuration after the watched
// file changes.
type ReloadFunc func(cfg Config)

// Watcher reloads configuration when the file changes on disk. Editors
// often produce bursts of writes, so changes are debounced before reload.
type Watcher struct {
	path     string
	onReload ReloadFunc
	debounce time.Duration
	logger   *logging.Logger

	fsw       *fsnotify.Watcher
	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher starts watching path and calls onReload with the newly loaded
// configuration after each change. The reload callback runs on the
// watcher's goroutine; hand it to the dispatch loop if it touches UI
// state.
func NewWatcher(path string, onReload ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: rename-and-replace saves would
	// otherwise drop the watch.
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		onReload: onReload,
		debounce: 100 * time.Millisecond,
		logger:   logging.Default().WithComponent("config"),
		fsw:      fsw,
		closeCh:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Close stops the watcher. Idempotent.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.closeCh)
		w.fsw.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerCh <-chan time.Time

	abs, _ := filepath.Abs(w.path)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			evAbs, _ := filepath.Abs(ev.Name)
			if evAbs != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed: %v", err)
				continue
			}
			w.logger.Info("config reloaded from %s", w.path)
			w.onReload(cfg)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error: %v", err)

		case <-w.closeCh:
			return
		}
	}
}
