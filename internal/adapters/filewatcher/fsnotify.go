// Package filewatcher provides the drop-folder adapter implementing
// ports.FileWatcher. Files appearing in the watched directory are picked
// up for server-side ingestion.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DropWatcher implements ports.FileWatcher using fsnotify. Only create
// and write events for ingestible extensions are emitted.
type DropWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
}

// NewDropWatcher creates a watcher for the given file extensions.
func NewDropWatcher(extensions []string) (*DropWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".pdf"}
	}
	return &DropWatcher{watcher: w, extensions: extensions}, nil
}

// Watch starts monitoring dir and emits paths of created or modified
// files until ctx is cancelled.
func (w *DropWatcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	paths := make(chan string, 64)
	go func() {
		defer close(paths)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !w.watched(event.Name) {
					continue
				}
				select {
				case paths <- event.Name:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return paths, nil
}

// Stop stops the watcher.
func (w *DropWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *DropWatcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
