// Package watch reloads a stage session when one of its layer files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/usdinspect/internal/logger"
)

var watchLog = logger.For("watch")

// DefaultDebounce is how long the watcher waits for further writes before
// reloading.
const DefaultDebounce = 200 * time.Millisecond

// Reloader is the part of a stage session the watcher drives.
type Reloader interface {
	// LayerFiles returns the layer files on disk.
	LayerFiles() []string

	// Reload reopens the document.
	Reload(ctx context.Context) error
}

// Event reports one debounced reload.
type Event struct {
	// Files are the layer files that changed since the previous reload.
	Files []string

	// Err is the reload error, if any. The session keeps its previous
	// document when a reload fails.
	Err error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithCallback is called after every reload attempt.
func WithCallback(fn func(Event)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher watches the directories holding a session's layer files.
// Directories rather than files are watched so editors that replace a file
// by rename are still seen.
type Watcher struct {
	target   Reloader
	debounce time.Duration
	onReload func(Event)

	files   map[string]bool
	dirs    map[string]bool
	started chan struct{}
}

// New creates a watcher for target.
func New(target Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		target:   target,
		debounce: DefaultDebounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		started:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Changes arriving within the debounce
// window are coalesced into a single reload. After each reload the watch
// list follows the session's current layer files.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	w.sync(fw)
	if len(w.files) == 0 {
		watchLog.Warn("no layer files on disk to watch")
	}
	close(w.started)
	watchLog.Debug("watching %d layer files in %d directories", len(w.files), len(w.dirs))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		changed = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			watchLog.Debug("watcher stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !w.files[name] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			watchLog.Debug("%s %s", ev.Op, name)
			changed[name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			files := make([]string, 0, len(changed))
			for f := range changed {
				files = append(files, f)
			}
			sort.Strings(files)
			clear(changed)
			timer, timerCh = nil, nil

			err := w.target.Reload(ctx)
			if err != nil {
				watchLog.Warn("reload failed: %v", err)
			} else {
				watchLog.Debug("reloaded after change to %v", files)
				w.sync(fw)
			}
			if w.onReload != nil {
				w.onReload(Event{Files: files, Err: err})
			}

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			watchLog.Warn("watch error: %v", werr)
		}
	}
}

// sync points the watch list at the target's current layer files.
func (w *Watcher) sync(fw *fsnotify.Watcher) {
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range w.target.LayerFiles() {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range w.dirs {
		if !dirs[dir] {
			if err := fw.Remove(dir); err != nil {
				watchLog.Debug("unwatch %s: %v", dir, err)
			}
		}
	}
	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			watchLog.Warn("watch %s: %v", dir, err)
			delete(dirs, dir)
		}
	}
	w.files, w.dirs = files, dirs
}
