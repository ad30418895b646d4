package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher re-parses settings sources when they change on disk and rebuilds
// the layer graph, for live settings reload.
type Watcher struct {
	parser   *Parser
	sources  []string
	debounce time.Duration
}

// NewWatcher creates a watcher over the given sources. Editors typically
// produce bursts of filesystem events per save, so reloads are debounced.
func NewWatcher(parser *Parser, sources []string) *Watcher {
	return &Watcher{
		parser:   parser,
		sources:  sources,
		debounce: 250 * time.Millisecond,
	}
}

// Watch blocks until ctx is canceled, invoking onReload with the freshly
// built graph (or the load error) after each change to a watched source.
// The initial state is also delivered once before watching begins.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Graph, error)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the containing directories: editors replace files by rename,
	// which drops plain file watches.
	dirs := make(map[string]bool)
	for _, source := range w.sources {
		info, err := os.Stat(source)
		if err != nil {
			return fmt.Errorf("failed to stat source %s: %w", source, err)
		}
		dir := source
		if !info.IsDir() {
			dir = filepath.Dir(source)
		}
		if !dirs[dir] {
			if err := fsw.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	onReload(w.load(ctx))

	var timer *time.Timer
	var pending <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Settings source changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			onReload(w.load(ctx))

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Filesystem watcher error")
		}
	}
}

// load re-parses all sources and rebuilds the graph.
func (w *Watcher) load(ctx context.Context) (*Graph, error) {
	doc, err := w.parser.Parse(ctx, w.sources)
	if err != nil {
		return nil, err
	}
	return BuildGraph(doc)
}

// relevant filters events down to changes of the watched sources.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	for _, source := range w.sources {
		if event.Name == source || filepath.Dir(event.Name) == source {
			return true
		}
	}
	return false
}
