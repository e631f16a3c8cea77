// Package hotreload watches front-end template directories and reloads them during development
package hotreload

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounceDelay coalesces the burst of events an editor emits on save
const DefaultDebounceDelay = 250 * time.Millisecond

// FileChangeEvent represents a debounced file system change
type FileChangeEvent struct {
	Path      string
	Operation string
	Timestamp time.Time
}

// FileHandler reacts to changes of the files it claims
type FileHandler interface {
	HandleChange(event FileChangeEvent) error
	ShouldHandle(path string) bool
	Description() string
}

// FileWatcher dispatches debounced fsnotify events to registered handlers
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	handlers  []FileHandler
	debouncer map[string]*time.Timer
	mu        sync.Mutex
	delay     time.Duration
	logger    *zap.Logger
}

// NewFileWatcher creates a watcher. A non-positive delay uses DefaultDebounceDelay.
func NewFileWatcher(delay time.Duration, logger *zap.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}

	return &FileWatcher{
		watcher:   watcher,
		debouncer: make(map[string]*time.Timer),
		delay:     delay,
		logger:    logger.Named("hotreload"),
	}, nil
}

// RegisterHandler adds a handler
func (fw *FileWatcher) RegisterHandler(handler FileHandler) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.handlers = append(fw.handlers, handler)
	fw.logger.Debug("Registered file handler", zap.String("handler", handler.Description()))
}

// AddWatchPath watches path and every directory below it
func (fw *FileWatcher) AddWatchPath(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if walkPath != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(walkPath); err != nil {
			return fmt.Errorf("failed to watch %s: %w", walkPath, err)
		}
		fw.logger.Debug("Watching directory", zap.String("path", walkPath))
		return nil
	})
}

// Run processes events until ctx is cancelled, then closes the watcher
func (fw *FileWatcher) Run(ctx context.Context) {
	defer fw.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) stop() {
	fw.mu.Lock()
	for path, timer := range fw.debouncer {
		timer.Stop()
		delete(fw.debouncer, path)
	}
	fw.mu.Unlock()

	if err := fw.watcher.Close(); err != nil {
		fw.logger.Warn("Failed to close file watcher", zap.Error(err))
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod || isScratchFile(event.Name) {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, exists := fw.debouncer[event.Name]; exists {
		timer.Stop()
	}

	fw.debouncer[event.Name] = time.AfterFunc(fw.delay, func() {
		fw.mu.Lock()
		delete(fw.debouncer, event.Name)
		handlers := append([]FileHandler(nil), fw.handlers...)
		fw.mu.Unlock()

		fw.dispatch(handlers, FileChangeEvent{
			Path:      event.Name,
			Operation: event.Op.String(),
			Timestamp: time.Now(),
		})
	})
}

func (fw *FileWatcher) dispatch(handlers []FileHandler, event FileChangeEvent) {
	for _, h := range handlers {
		if !h.ShouldHandle(event.Path) {
			continue
		}
		if err := h.HandleChange(event); err != nil {
			fw.logger.Error("File change handler failed",
				zap.String("handler", h.Description()),
				zap.String("path", event.Path),
				zap.Error(err),
			)
		}
	}
}

func isScratchFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, ".#")
}

// Reloader is anything that can rebuild itself from disk
type Reloader interface {
	Reload() error
}

// TemplateHandler reloads templates when an HTML file changes
type TemplateHandler struct {
	reloader Reloader
	logger   *zap.Logger
}

// NewTemplateHandler creates the handler for template files
func NewTemplateHandler(reloader Reloader, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{reloader: reloader, logger: logger}
}

// HandleChange reparses the templates
func (th *TemplateHandler) HandleChange(event FileChangeEvent) error {
	if err := th.reloader.Reload(); err != nil {
		return fmt.Errorf("reload templates: %w", err)
	}
	th.logger.Info("Templates reloaded", zap.String("changed", event.Path))
	return nil
}

// ShouldHandle claims HTML template files
func (th *TemplateHandler) ShouldHandle(path string) bool {
	switch filepath.Ext(path) {
	case ".html", ".tmpl":
		return true
	}
	return false
}

// Description names the handler in logs
func (th *TemplateHandler) Description() string {
	return "template reloader (html, tmpl)"
}
