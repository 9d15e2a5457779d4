// Copyright ©2023 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch reports changes to a set of files.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is the default duration we wait after the last change to a
// file before reporting it, to allow writers to complete.
const Debounce = 50 * time.Millisecond

// Watcher reports changes to a set of files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	log      *slog.Logger
}

// New returns a Watcher for the files at paths. Files are watched by
// watching their containing directories, so files that are replaced
// rather than rewritten are still reported. If debounce is less than
// zero, Debounce is used.
func New(paths []string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	if debounce < 0 {
		debounce = Debounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  watcher,
		files:    make(map[string]bool),
		debounce: debounce,
		log:      log,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		p, err = filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		w.files[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		err = watcher.Add(dir)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		dirs[dir] = true
	}
	return w, nil
}

// Watch calls fn with the sorted absolute paths of watched files that
// have been written, created or renamed over since the last call. Watch
// returns when ctx is cancelled, or with the first error returned by fn
// or the underlying watcher.
func (w *Watcher) Watch(ctx context.Context, fn func(changed []string) error) error {
	pending := make(map[string]bool)
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.files[ev.Name] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			w.debug(ctx, "change", slog.String("name", ev.Name), slog.String("op", ev.Op.String()))
			pending[ev.Name] = true
			timer = time.After(w.debounce)
		case <-timer:
			timer = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			err := fn(changed)
			if err != nil {
				return err
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close releases the resources held by the Watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if w.log == nil {
		return
	}
	w.log.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}
