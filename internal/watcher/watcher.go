// Package watcher reports batches of changed Python modules under a
// reference directory.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/SebastianScherer88/graphit/pkg/errors"
	"github.com/SebastianScherer88/graphit/pkg/source"
)

// DefaultDebounce is how long the tree must stay quiet before a batch is
// emitted.
const DefaultDebounce = 300 * time.Millisecond

// Config holds configuration for the watcher.
type Config struct {
	Root     string
	Scope    source.Scope
	Debounce time.Duration
	Logger   *log.Logger
}

// Batch is a set of module paths that changed within one debounce window.
type Batch struct {
	Paths []string
	Time  time.Time
}

// Watcher watches a directory tree and emits debounced batches.
type Watcher struct {
	cfg    Config
	filter *source.Filter
	fsw    *fsnotify.Watcher
	mu     sync.Mutex
	closed bool
}

// New creates a watcher for cfg.Root.
func New(cfg Config) (*Watcher, error) {
	if err := errors.ValidateDirectory(cfg.Root); err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	filter, err := source.NewFilter(cfg.Root, cfg.Scope)
	if err != nil {
		return nil, err
	}
	return &Watcher{cfg: cfg, filter: filter}, nil
}

// Start adds every in-scope directory and returns the batch channel. The
// channel is closed when ctx is done or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) (<-chan Batch, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	if err := w.addRecursive(w.cfg.Root); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan Batch, 1)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !d.IsDir() {
			return nil
		}
		if w.filter.SkipsDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrap(errors.ErrCodeFileAccess, err, "watch %s", path)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Batch) {
	defer close(out)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev.Op) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !w.filter.SkipsDir(ev.Name) {
						if err := w.addRecursive(ev.Name); err != nil {
							w.cfg.Logger.Warn("cannot watch new directory", "dir", ev.Name, "err", err)
						}
					}
					continue
				}
			}
			if !w.filter.Selects(ev.Name) {
				continue
			}
			w.cfg.Logger.Debug("module changed", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = true
			timer.Reset(w.cfg.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := Batch{Time: time.Now()}
			for p := range pending {
				batch.Paths = append(batch.Paths, p)
			}
			sort.Strings(batch.Paths)
			pending = make(map[string]bool)
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Warn("file watcher error", "err", err)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
