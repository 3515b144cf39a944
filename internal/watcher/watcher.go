// Package watcher ingests inventories dropped as JSON files into watched
// directories, with fsnotify and per-file debouncing.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches directories for inventory JSON files and invokes a
// callback for each created or modified file.
type Watcher struct {
	roots       []string
	onInventory func(path string)
	debounce    time.Duration
	logger      *zap.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	started     bool
	stopOnce    sync.Once
	done        chan struct{}
}

// New creates a watcher over roots. onInventory is called with the path of
// each settled .json file.
func New(roots []string, onInventory func(path string), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		roots:       roots,
		onInventory: onInventory,
		debounce:    defaultDebounce,
		logger:      logger,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	for _, root := range w.roots {
		if err := fsw.Add(root); err != nil {
			_ = fsw.Close()
			w.mu.Unlock()
			return err
		}
	}
	w.watcher = fsw
	w.started = true
	w.mu.Unlock()

	w.logger.Debug("watcher started", zap.Strings("roots", w.roots))
	go w.run(ctx)
	return nil
}

// SyncExistingFiles invokes the callback for every .json file already present
// in the watched directories.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			w.logger.Warn("sync read dir failed", zap.String("dir", root), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !isInventoryFile(entry.Name()) {
				continue
			}
			w.onInventory(filepath.Join(root, entry.Name()))
		}
	}
}

// Stop stops the watcher and cancels pending debounce timers.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		for _, timer := range w.debounceMap {
			timer.Stop()
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

// handleEvent debounces create/write events per path so a file being written
// in several chunks is ingested once, after it settles.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !isInventoryFile(ev.Name) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounceMap[ev.Name]; ok {
		timer.Stop()
	}
	path := ev.Name
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.onInventory(path)
	})
}

func isInventoryFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
