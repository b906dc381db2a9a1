// Package watch reloads compared files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mark3labs/oascompare/internal/logger"
)

// DefaultDebounce coalesces bursts of events produced by editors that write
// a file in several steps.
const DefaultDebounce = 150 * time.Millisecond

// Op is the action a change implies for the working set.
type Op int

const (
	Reload Op = iota
	Drop
)

// Change is one debounced change to a watched file.
type Change struct {
	Path string
	Op   Op
}

// Watcher watches a fixed set of files through their parent directories, so
// files replaced via rename are still picked up.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	log      logger.Logger

	mu      sync.Mutex
	pending map[string]Op
	timer   *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option { return func(w *Watcher) { w.debounce = d } }
func WithLogger(l logger.Logger) Option   { return func(w *Watcher) { w.log = l } }

// New watches paths. Call Run to start delivering changes and Close when done.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create file watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]struct{}, len(paths)),
		debounce: DefaultDebounce,
		log:      logger.Discard(),
		pending:  make(map[string]Op),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch: resolve path %q: %w", p, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run delivers batches of debounced changes to fn until ctx is done or the
// watcher is closed. Changes within one batch are ordered by path.
func (w *Watcher) Run(ctx context.Context, fn func([]Change)) error {
	batches := make(chan []Change, 1)
	done := make(chan struct{})
	defer func() {
		close(done)
		w.stopTimer()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch := <-batches:
			fn(batch)
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event, batches, done)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.log.Warn("file watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, batches chan<- []Change, done <-chan struct{}) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}
	var op Op
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		op = Reload
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = Drop
	default:
		return
	}
	w.log.Debug("file changed", "file", filepath.Base(path), "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		batch := w.flush()
		if len(batch) == 0 {
			return
		}
		select {
		case batches <- batch:
		case <-done:
		}
	})
}

func (w *Watcher) flush() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]Change, 0, len(w.pending))
	for p, op := range w.pending {
		batch = append(batch, Change{Path: p, Op: op})
	}
	clear(w.pending)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	if err := w.fsw.Close(); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		return err
	}
	return nil
}
