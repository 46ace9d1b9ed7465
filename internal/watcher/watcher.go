// Package watcher reports changes to the displayed file.
//
// The directory holding the file is watched rather than the file itself,
// since editors often save by writing a new file and renaming it over the
// old one. Bursts of events are debounced into a single notification.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file was created or replaced.
	OpCreate

	// OpRemove indicates the file was deleted or renamed away.
	OpRemove
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event represents a debounced file change.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration for rapid changes.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// Watcher monitors one file for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration

	changes chan Event
	errs    chan error
	done    chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New starts watching path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		path:      abs,
		debounce:  100 * time.Millisecond,
		changes:   make(chan Event, 1),
		errs:      make(chan error, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(abs)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Changes delivers debounced change events. Only the latest undelivered
// event is kept.
func (w *Watcher) Changes() <-chan Event { return w.changes }

// Errors delivers watcher errors. Errors are dropped while one is pending.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending Event
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			op, relevant := w.classify(event)
			if !relevant {
				continue
			}
			pending = coalesce(pending, Event{Path: w.path, Op: op, Time: time.Now()})

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.emit(pending)
			pending = Event{}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}

		case <-w.done:
			return
		}
	}
}

// classify maps an fsnotify event on the watched file to an Operation.
func (w *Watcher) classify(event fsnotify.Event) (Operation, bool) {
	if filepath.Clean(event.Name) != w.path {
		return 0, false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return OpRemove, true
	case event.Has(fsnotify.Create):
		return OpCreate, true
	case event.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// coalesce merges a new event into the pending one. A later create wins
// over an earlier remove (replace-by-rename), a remove wins over writes.
func coalesce(pending, next Event) Event {
	if pending.Path == "" {
		return next
	}
	switch {
	case next.Op == OpCreate:
	case next.Op == OpRemove:
	case pending.Op == OpWrite:
	default:
		next.Op = pending.Op
	}
	return next
}

// emit replaces any undelivered event with ev.
func (w *Watcher) emit(ev Event) {
	for {
		select {
		case w.changes <- ev:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}
