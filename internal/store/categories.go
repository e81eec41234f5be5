package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/brm/internal/codec"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// ErrInvalidFileName is returned for a backing file name that is not a bare
// file name or collides with a generated file.
var ErrInvalidFileName = errors.New("invalid category file name")

// CategoryStore owns the category-definition file and the rule files that
// back each category in the Espanso match directory.
type CategoryStore struct {
	cfg types.Config
	options
}

// NewCategoryStore returns a store for the category definitions described by cfg.
func NewCategoryStore(cfg types.Config, opts ...Option) (*CategoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CategoryStore{cfg: cfg, options: buildOptions(opts)}, nil
}

// Path returns the category-definition file path.
func (s *CategoryStore) Path() string {
	return s.cfg.CategoriesFile()
}

// Load returns the stored definitions, or the built-in defaults when the
// file does not exist. Defaults are not written.
func (s *CategoryStore) Load() (*types.CategoryDefinitions, error) {
	path := s.Path()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultCategories(types.Timestamp(s.now())), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var defs types.CategoryDefinitions
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &defs, nil
}

// Save stamps lastUpdated and writes defs atomically.
func (s *CategoryStore) Save(defs *types.CategoryDefinitions) error {
	defs.LastUpdated = types.Timestamp(s.now())
	out := *defs
	if out.Categories == nil {
		out.Categories = []types.CategoryDefinition{}
	}
	for i := range out.Categories {
		if out.Categories[i].VariableDefinitions == nil {
			out.Categories[i].VariableDefinitions = []types.VariableDefinition{}
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding category definitions: %w", err)
	}
	if err := codec.AtomicWrite(s.Path(), append(data, '\n')); err != nil {
		return fmt.Errorf("writing category definitions: %w", err)
	}
	return nil
}

// Write replaces the stored definitions with defs. Categories whose backing
// rule file is missing get a skeleton file; backing files of categories no
// longer present are deleted unless a remaining category names the same
// file. An unreadable previous table counts as empty.
func (s *CategoryStore) Write(defs *types.CategoryDefinitions) error {
	for i := range defs.Categories {
		if name := defs.Categories[i].BackingFile(); name != "" {
			if err := validFileName(name); err != nil {
				return fmt.Errorf("category %q: %w", defs.Categories[i].ID, err)
			}
		}
	}

	previous, err := s.Load()
	if err != nil {
		s.log.WithError(err).Warn("previous category definitions unreadable, treating as empty")
		previous = &types.CategoryDefinitions{}
	}

	for i := range defs.Categories {
		if _, err := s.ensureBackingFile(&defs.Categories[i]); err != nil {
			return err
		}
	}

	inUse := make(map[string]bool, len(defs.Categories))
	for i := range defs.Categories {
		inUse[defs.Categories[i].BackingFile()] = true
	}
	for i := range previous.Categories {
		old := &previous.Categories[i]
		if _, kept := defs.Find(old.ID); kept {
			continue
		}
		name := old.BackingFile()
		if name == "" || inUse[name] || validFileName(name) != nil {
			continue
		}
		path := filepath.Join(s.cfg.RuleDir(), name)
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("deleting rule file for category %q: %w", old.Name, err)
		}
		s.log.WithFields(logrus.Fields{"category": old.Name, "file": path}).Info("deleted category rule file")
	}

	return s.Save(defs)
}

// EnsureFileNames gives every category a backing file name and creates
// missing backing files. The table is saved only when something changed;
// the result reports whether it was.
func (s *CategoryStore) EnsureFileNames() (bool, error) {
	defs, err := s.Load()
	if err != nil {
		return false, err
	}

	updated := false
	for i := range defs.Categories {
		def := &defs.Categories[i]
		if def.FileName == nil {
			name := FileNameFor(def)
			def.FileName = &name
			updated = true
			s.log.WithFields(logrus.Fields{"category": def.Name, "file": name}).Info("assigned category file name")
		}
		if validFileName(def.BackingFile()) != nil {
			s.log.WithField("file", def.BackingFile()).Warn("skipping invalid category file name")
			continue
		}
		created, err := s.ensureBackingFile(def)
		if err != nil {
			return false, err
		}
		updated = updated || created
	}

	if !updated {
		return false, nil
	}
	if err := s.Save(defs); err != nil {
		return false, err
	}
	return true, nil
}

// FileNameFor derives a backing file name from the category name, or from
// its id when the name is empty.
func FileNameFor(def *types.CategoryDefinition) string {
	if def.Name == "" {
		return def.ID + ".yml"
	}
	name := strings.ToLower(def.Name)
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return name + ".yml"
}

// ensureBackingFile writes the skeleton rule file for def when it has a
// file name and the file does not exist yet. Existing files are left alone.
func (s *CategoryStore) ensureBackingFile(def *types.CategoryDefinition) (bool, error) {
	name := def.BackingFile()
	if name == "" {
		return false, nil
	}
	path := filepath.Join(s.cfg.RuleDir(), name)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking rule file %s: %w", path, err)
	}
	if err := codec.AtomicWriteString(path, backingSkeleton(def)); err != nil {
		return false, fmt.Errorf("creating rule file for category %q: %w", def.Name, err)
	}
	s.log.WithFields(logrus.Fields{"category": def.Name, "file": path}).Info("created category rule file")
	return true, nil
}

func backingSkeleton(def *types.CategoryDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", codec.CommentSafe(def.Name))
	if def.Description != nil && *def.Description != "" {
		fmt.Fprintf(&b, "# %s\n", codec.CommentSafe(*def.Description))
	}
	b.WriteString("matches:\n")
	b.WriteString("  # Add your replacements here\n")
	b.WriteString("  # Example:\n")
	b.WriteString("  # - trigger: \":hello\"\n")
	b.WriteString("  #   replace: \"Hello, World!\"\n")
	return b.String()
}

// validFileName rejects names with a directory part and generated file names.
func validFileName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	if types.ReservedRuleFile(name) {
		return fmt.Errorf("%w: %q is a generated file", ErrInvalidFileName, name)
	}
	return nil
}
