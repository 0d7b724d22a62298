// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/nmrcfg/internal/log"
)

// DefaultDebounce collapses bursts of writes from editors into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Outcome is the result of one reload.
type Outcome struct {
	// Doc is the reloaded document, or nil when it could not be parsed.
	Doc *Document
	// Err is nil when the document loaded and validated.
	Err error
	// Changes is relative to the last valid document. Empty on failure.
	Changes ChangeSummary
}

// Watcher holds the last valid document and reloads it when the file changes.
// Invalid reloads are reported but never replace the current document.
type Watcher struct {
	mu       sync.RWMutex
	current  *Document
	loader   *Loader
	template bool
	debounce time.Duration
	logger   zerolog.Logger

	// Reload notifications
	listenersMu sync.RWMutex
	listeners   []chan<- Outcome
}

// NewWatcher creates a watcher for the loader's document. initial may be nil.
func NewWatcher(loader *Loader, initial *Document) *Watcher {
	return &Watcher{
		current:  initial,
		loader:   loader,
		debounce: DefaultDebounce,
		logger:   log.WithComponent("config"),
	}
}

// SetDebounce changes the quiet period before a reload. Zero reloads on
// every event.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d < 0 {
		d = 0
	}
	w.debounce = d
}

// AllowPlaceholders makes reloads validate the document as a template.
func (w *Watcher) AllowPlaceholders(allow bool) {
	w.template = allow
}

// Current returns the last valid document (thread-safe read).
func (w *Watcher) Current() *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe registers a channel to receive every reload outcome.
// Sends never block; a full channel misses the outcome.
// The caller is responsible for closing the channel.
func (w *Watcher) Subscribe(ch chan<- Outcome) {
	w.listenersMu.Lock()
	defer w.listenersMu.Unlock()
	w.listeners = append(w.listeners, ch)
}

// Reload reloads and validates the document. If validation fails the current
// document is kept. Listeners receive the outcome either way.
func (w *Watcher) Reload(ctx context.Context) Outcome {
	w.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading document")

	var (
		doc *Document
		err error
	)
	if w.template {
		doc, err = w.loader.LoadTemplate(ctx)
	} else {
		doc, err = w.loader.Load(ctx)
	}

	out := Outcome{Doc: doc, Err: err}
	if err != nil {
		w.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("reloaded document rejected, keeping previous")
		w.notify(out)
		return out
	}

	w.mu.Lock()
	old := w.current
	w.current = doc
	w.mu.Unlock()

	if old != nil {
		out.Changes = Diff(old, doc)
		for _, f := range out.Changes.ChangedFields {
			w.logger.Info().Str(log.FieldField, f).Msg("document changed")
		}
	}

	w.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Int(log.FieldCount, len(out.Changes.ChangedFields)).
		Msg("document reloaded successfully")

	w.notify(out)
	return out
}

// Run watches the document until ctx is canceled. The parent directory is
// watched so that atomic replacements by rename are seen. Run returns only
// after its watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	path := filepath.Clean(w.loader.Path())
	if path == "" || path == "." {
		return fmt.Errorf("watch: no document path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	w.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str(log.FieldPath, path).
		Msg("watching document for changes")

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("document watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// Write, Create and Rename cover in-place edits and atomic saves.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("document changed on disk")

			if w.debounce == 0 {
				w.Reload(ctx)
				continue
			}
			// Debounce: reset timer on each event
			timer.Stop()
			select {
			case <-timer.C:
			default:
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.Reload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str(log.FieldEvent, "config.watcher_error").
				Msg("document watcher error")
		}
	}
}

// notify sends the outcome to all registered listeners (non-blocking).
func (w *Watcher) notify(out Outcome) {
	w.listenersMu.RLock()
	defer w.listenersMu.RUnlock()

	for _, ch := range w.listeners {
		select {
		case ch <- out:
		default:
			// Skip if channel is full (non-blocking send)
			w.logger.Warn().
				Str(log.FieldEvent, "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}
