// Package watch reports edits to a scene config file.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the bursts of events editors emit on save. An
// event is forwarded once the file has been quiet for this long.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches the directory of one file, since editors often replace
// files by rename, and forwards events for that file only.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	Events   chan string
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once

	mu     sync.Mutex
	closed bool
}

func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Path() string { return w.path }

// Changed drains pending events without blocking and reports whether any
// arrived. It suits loops that poll once per frame.
func (w *Watcher) Changed() bool {
	changed := false
	for {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return changed
			}
			changed = true
		default:
			return changed
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

// emit runs on the debounce timer. It drops the event when the buffer is
// full since Changed only needs to see one.
func (w *Watcher) emit(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.Events <- name:
	default:
	}
}

func (w *Watcher) run() {
	defer func() {
		w.mu.Lock()
		w.closed = true
		close(w.Events)
		w.mu.Unlock()
		close(w.Errors)
		close(w.done)
	}()

	debounced := debounce.New(w.debounce)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			name := event.Name
			debounced(func() { w.emit(name) })
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
