// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package schemastore

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cached schema documents when their backing files
// change on disk.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher feeding invalidations into store.
func NewWatcher(store *Store) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{store: store, watcher: w}, nil
}

// Add starts watching a schema file path.
func (w *Watcher) Add(path string) error {
	return w.watcher.Add(path)
}

// Start consumes events until ctx is done or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					uri := FileURI(event.Name)
					log.Debugf("schema file changed, invalidating %s", uri)
					w.store.Invalidate(uri)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Warningf("schema watcher: %v", err)
			}
		}
	}()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// FileURI converts a filesystem path to its file:// URI form.
func FileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + filepath.ToSlash(abs)
}
