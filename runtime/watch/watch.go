// Package watch keeps a resource snapshot current while the workspace
// files change.
//
// Snapshots are published through an atomic pointer: readers always see a
// complete, immutable index, and a failed reload keeps the last good one.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opal-lang/seqscope/core/invariant"
	"github.com/opal-lang/seqscope/core/resources"
)

// Loader builds a snapshot from the workspace.
type Loader interface {
	Load() (*resources.Index, error)
}

// DefaultDebounce collapses the burst of events one save produces.
const DefaultDebounce = 50 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Logger   *slog.Logger  // nil discards
	Debounce time.Duration // 0 uses DefaultDebounce
	// OnReload, if set, is called after every reload attempt from the
	// watch goroutine. idx is nil when the reload failed.
	OnReload func(idx *resources.Index, err error)
}

// Watcher owns the current snapshot.
type Watcher struct {
	loader  Loader
	dirs    []string
	opts    Options
	logger  *slog.Logger
	current atomic.Pointer[resources.Index]
	reloads atomic.Uint64
}

// New loads the first snapshot. dirs are the directories to watch; ones
// that do not exist yet are skipped.
func New(loader Loader, dirs []string, opts Options) (*Watcher, error) {
	invariant.NotNil(loader, "loader")

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	w := &Watcher{loader: loader, dirs: dirs, opts: opts, logger: opts.Logger}

	idx, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	w.current.Store(idx)
	return w, nil
}

// Current returns the latest good snapshot.
func (w *Watcher) Current() *resources.Index {
	return w.current.Load()
}

// Reloads counts successful reloads since New.
func (w *Watcher) Reloads() uint64 {
	return w.reloads.Load()
}

// Reload rebuilds the snapshot now. On failure the previous snapshot stays
// current.
func (w *Watcher) Reload() error {
	idx, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("reload failed, keeping previous snapshot", "error", err)
		w.notify(nil, err)
		return err
	}
	w.current.Store(idx)
	n := w.reloads.Add(1)
	w.logger.Debug("snapshot reloaded", "reload", n, "sequences", len(idx.SequenceIDs()))
	w.notify(idx, nil)
	return nil
}

func (w *Watcher) notify(idx *resources.Index, err error) {
	if w.opts.OnReload != nil {
		w.opts.OnReload(idx, err)
	}
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, dir := range w.dirs {
		if err := w.add(fw, dir); err != nil {
			return err
		}
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && w.isWatchedDir(ev.Name) {
				// The sequences directory may appear after startup.
				if err := w.add(fw, ev.Name); err != nil {
					w.logger.Warn("cannot watch new directory", "dir", ev.Name, "error", err)
				}
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("workspace changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			_ = w.Reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) add(fw *fsnotify.Watcher, dir string) error {
	if err := fw.Add(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("directory does not exist yet", "dir", dir)
			return nil
		}
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) isWatchedDir(path string) bool {
	for _, dir := range w.dirs {
		if filepath.Clean(dir) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

// relevant keeps changes to documents and drops editor and temp files.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".")
}
