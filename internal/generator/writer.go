package generator

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/brm/internal/codec"
	"github.com/mesh-intelligence/brm/internal/logging"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// Writer renders documents into an Espanso rule directory.
type Writer struct {
	dir string
	log logrus.FieldLogger
}

// NewWriter returns a Writer targeting ruleDir.
func NewWriter(ruleDir string, log logrus.FieldLogger) *Writer {
	return &Writer{dir: ruleDir, log: logging.OrDiscard(log)}
}

// ActiveVarsPath returns the path of the active-vars document.
func (w *Writer) ActiveVarsPath() string {
	return filepath.Join(w.dir, types.ActiveVarsFileName)
}

// SelectorPath returns the path of the selector document.
func (w *Writer) SelectorPath() string {
	return filepath.Join(w.dir, types.SelectorFileName)
}

// Sync brings both documents in line with cat: the active project's
// variables, or the cleared document when nothing is active, and the
// selector. Both documents are rendered before either is written.
func (w *Writer) Sync(cat *types.Catalogue, defs *types.CategoryDefinitions) error {
	active := RenderCleared()
	if p := cat.Active(); p != nil {
		doc, err := RenderActiveVars(p, defs)
		if err != nil {
			return fmt.Errorf("rendering variables for %q: %w", p.ID, err)
		}
		active = doc
	}
	selector, err := RenderSelector(cat)
	if err != nil {
		return fmt.Errorf("rendering selector: %w", err)
	}

	if err := w.write(w.ActiveVarsPath(), active); err != nil {
		return err
	}
	return w.write(w.SelectorPath(), selector)
}

// Clear writes the cleared active-vars document.
func (w *Writer) Clear() error {
	return w.write(w.ActiveVarsPath(), RenderCleared())
}

func (w *Writer) write(path, doc string) error {
	if err := codec.AtomicWriteString(path, doc); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	w.log.WithField("file", path).Debug("generated document written")
	return nil
}
