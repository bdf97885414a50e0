package tilebuilder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/tileforge/internal/logger"
)

// TextureWatcher reports texture files that were written or created, so an
// open tile can reload them after an external paint tool saves.
type TextureWatcher struct {
	w      *fsnotify.Watcher
	events chan string
	log    *zap.Logger
}

// NewTextureWatcher starts an fsnotify watcher. Call Close when done.
func NewTextureWatcher() (*TextureWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	return &TextureWatcher{
		w:      w,
		events: make(chan string, 16),
		log:    logger.Named("tilebuilder"),
	}, nil
}

// Watch starts reporting changes to path, a file or a directory.
func (tw *TextureWatcher) Watch(path string) error {
	return tw.w.Add(filepath.Clean(path))
}

// Unwatch stops reporting changes to path.
func (tw *TextureWatcher) Unwatch(path string) error {
	return tw.w.Remove(filepath.Clean(path))
}

// Events delivers the paths of changed textures.
func (tw *TextureWatcher) Events() <-chan string { return tw.events }

// Run forwards write and create events until ctx is done. The Events
// channel is closed when Run returns. Events are dropped while nobody reads.
func (tw *TextureWatcher) Run(ctx context.Context) error {
	defer close(tw.events)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-tw.w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			select {
			case tw.events <- ev.Name:
			default:
				tw.log.Debug("dropping texture event", zap.String("path", ev.Name))
			}
		case err, ok := <-tw.w.Errors:
			if !ok {
				return nil
			}
			tw.log.Warn("texture watcher error", zap.Error(err))
		}
	}
}

// Close stops the underlying watcher.
func (tw *TextureWatcher) Close() error {
	return tw.w.Close()
}
