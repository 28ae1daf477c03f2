// Package filesystem scans and watches a local directory for documents.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsift/internal/logger"
)

// ErrClosed is returned when the watcher has been closed.
var ErrClosed = errors.New("filesystem watcher is closed")

// ChangeType describes what happened to a file.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one observed file event.
type Change struct {
	Type ChangeType
	Path string
}

// FileName returns the base name of the changed file.
func (c Change) FileName() string {
	return filepath.Base(c.Path)
}

// Watcher scans a root directory and reports file changes below it.
// Hidden files and directories are ignored.
type Watcher struct {
	root    string
	include func(path string) bool

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithFilter limits reported files to those for which include returns true.
func WithFilter(include func(path string) bool) Option {
	return func(w *Watcher) {
		w.include = include
	}
}

// New creates a watcher for root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{root: root}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Scan lists the files currently below root in walk order.
func (w *Watcher) Scan(ctx context.Context) ([]string, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", w.root, err)
	}
	return files, nil
}

// Watch starts reporting changes. The channel closes when ctx is cancelled
// or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.addTree(fw, w.root); err != nil {
		fw.Close()
		return nil, err
	}
	w.watcher = fw

	changes := make(chan Change)
	go w.loop(ctx, fw, changes)
	return changes, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			change, ok := w.translate(fw, event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error under %s: %v", w.root, err)
		}
	}
}

// translate maps an fsnotify event to a Change. New directories are added
// to the watch list and produce no change of their own.
func (w *Watcher) translate(fw *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	if isHidden(filepath.Base(event.Name)) {
		return Change{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return Change{}, false
		}
		if info.IsDir() {
			if err := w.addTree(fw, event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
			return Change{}, false
		}
		if !info.Mode().IsRegular() || !w.accepts(event.Name) {
			return Change{}, false
		}
		return Change{Type: ChangeCreated, Path: event.Name}, true

	case event.Has(fsnotify.Write):
		if !w.accepts(event.Name) {
			return Change{}, false
		}
		return Change{Type: ChangeUpdated, Path: event.Name}, true

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.accepts(event.Name) {
			return Change{}, false
		}
		return Change{Type: ChangeDeleted, Path: event.Name}, true
	}
	return Change{}, false
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path error: %s does not exist", w.root)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}
	return nil
}

func (w *Watcher) accepts(path string) bool {
	return w.include == nil || w.include(path)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
