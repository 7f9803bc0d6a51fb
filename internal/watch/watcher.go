// Package watch opens documents as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spherical/pdf-redactor/internal/domain"
	"github.com/spherical/pdf-redactor/internal/observability"
	"github.com/spherical/pdf-redactor/internal/pdf"
)

// DefaultSettle is how long a file must go without writes before it is handed over.
const DefaultSettle = 750 * time.Millisecond

// Handler receives a settled document path.
type Handler func(ctx context.Context, path string)

// Watcher reports PDF files created or rewritten in one directory.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *observability.Logger
}

// New creates a watcher for dir. Nothing is watched until Run.
func New(dir string, settle time.Duration, handler Handler, logger *observability.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		handler: handler,
		logger:  logger.WithComponent("watch"),
	}
}

// Run watches until ctx is cancelled. The handler is called from Run's
// goroutine, one path at a time.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.ConfigError("failed to create file watcher", err)
	}
	defer watcher.Close()

	dir, err := filepath.Abs(w.dir)
	if err != nil {
		return domain.ConfigError(fmt.Sprintf("bad watch directory %q", w.dir), err)
	}
	if err := watcher.Add(dir); err != nil {
		return domain.ConfigError(fmt.Sprintf("failed to watch %q", dir), err)
	}

	w.logger.Info().Str("dir", dir).Dur("settle", w.settle).Msg("Watching for PDFs")

	d := newDebouncer(w.settle)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("Watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !pdf.IsDocumentPath(event.Name) {
				continue
			}
			d.touch(event.Name)

		case s := <-d.settled:
			if !d.accept(s) {
				continue
			}
			w.logger.Info().Str("path", s.path).Msg("PDF settled, opening")
			if w.handler != nil {
				w.handler(ctx, s.path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

type settledPath struct {
	path string
	gen  uint64
}

// debouncer delays each path until it has gone quiet for settle. A timer that
// already fired cannot be stopped, so every send carries the generation it
// was armed with and accept drops anything older than the latest touch.
// Only the owning goroutine may call touch, accept and stop.
type debouncer struct {
	settle  time.Duration
	gen     uint64
	pending map[string]uint64
	timers  map[string]*time.Timer
	settled chan settledPath
	done    chan struct{}
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{
		settle:  settle,
		pending: make(map[string]uint64),
		timers:  make(map[string]*time.Timer),
		settled: make(chan settledPath),
		done:    make(chan struct{}),
	}
}

func (d *debouncer) touch(path string) {
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.gen++
	s := settledPath{path: path, gen: d.gen}
	d.pending[path] = s.gen
	d.timers[path] = time.AfterFunc(d.settle, func() {
		select {
		case d.settled <- s:
		case <-d.done:
		}
	})
}

// accept reports whether s is the latest arming for its path and clears it.
func (d *debouncer) accept(s settledPath) bool {
	if gen, ok := d.pending[s.path]; !ok || gen != s.gen {
		return false
	}
	delete(d.pending, s.path)
	delete(d.timers, s.path)
	return true
}

// stop cancels pending timers and releases any fired ones still sending.
func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
	close(d.done)
}
