// Package watch regenerates the Espanso documents when the catalogue or
// the category definitions are edited outside the manager.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/brm/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 200 * time.Millisecond

// Watcher monitors a set of files in one directory using fsnotify.
type Watcher struct {
	Dir      string
	Debounce time.Duration

	files map[string]bool
	log   logrus.FieldLogger
}

// New returns a watcher for the named files (base names) in dir.
func New(dir string, files []string, log logrus.FieldLogger) *Watcher {
	w := &Watcher{
		Dir:      dir,
		Debounce: DefaultDebounce,
		files:    make(map[string]bool, len(files)),
		log:      logging.OrDiscard(log),
	}
	for _, f := range files {
		w.files[f] = true
	}
	return w
}

// Run watches until ctx is done. Once a burst of events on the watched
// files settles, onChange is called with the changed base names, sorted.
// Errors from onChange are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange func(files []string) error) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating watch directory %s: %w", w.Dir, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.Dir, err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if !w.files[base] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				w.log.WithFields(logrus.Fields{"file": base, "op": event.Op.String()}).Debug("watch event")
				pending[base] = time.Now()
			}

		case <-ticker.C:
			var ready []string
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					ready = append(ready, file)
					delete(pending, file)
				}
			}
			if len(ready) == 0 {
				continue
			}
			sort.Strings(ready)
			if err := onChange(ready); err != nil {
				w.log.WithError(err).WithField("files", ready).Warn("regeneration after change failed")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}
