// Package store persists the project catalogue and the category-definition
// table as pretty-printed JSON under the Espanso config directory, and
// migrates catalogues written by earlier releases.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/brm/internal/codec"
	"github.com/mesh-intelligence/brm/internal/logging"
	"github.com/mesh-intelligence/brm/internal/normalize"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// Option configures a store.
type Option func(*options)

type options struct {
	log  logrus.FieldLogger
	norm *normalize.Normalizer
	now  func() time.Time
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithNormalizer sets the normalizer used on load and migration.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *options) { o.norm = n }
}

// WithClock sets the time source for lastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logging.OrDiscard(o.log)
	if o.norm == nil {
		o.norm = normalize.New()
	}
	return o
}

// CatalogueStore owns the catalogue file. Every write of the catalogue goes
// through Save.
type CatalogueStore struct {
	cfg types.Config
	options
}

// NewCatalogueStore returns a store for the catalogue described by cfg.
func NewCatalogueStore(cfg types.Config, opts ...Option) (*CatalogueStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CatalogueStore{cfg: cfg, options: buildOptions(opts)}, nil
}

// Path returns the catalogue file path.
func (s *CatalogueStore) Path() string {
	return s.cfg.CatalogueFile()
}

// Load reads, normalizes and returns the catalogue.
//
// A missing file triggers legacy discovery and, failing that, an empty
// catalogue is written and returned. An existing file must be valid JSON;
// if it holds no projects legacy discovery is tried before the parsed data
// is used. The normalized catalogue is written back only when normalization
// changed it.
func (s *CatalogueStore) Load() (*types.Catalogue, error) {
	path := s.Path()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		migrated, err := s.DiscoverLegacy()
		if err != nil {
			return nil, err
		}
		if migrated != nil {
			return migrated, nil
		}
		cat := types.NewCatalogue()
		if err := s.Save(cat); err != nil {
			return nil, err
		}
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw normalize.RawCatalogue
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(raw.Projects) == 0 {
		migrated, err := s.DiscoverLegacy()
		if err != nil {
			return nil, err
		}
		if migrated != nil {
			return migrated, nil
		}
	}

	cat, changed := s.norm.Catalogue(raw.Projects, raw.ActiveProjectID)
	if changed {
		s.log.WithField("file", path).Info("catalogue repaired during load")
		if err := s.Save(cat); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// Save writes cat to the catalogue file atomically.
func (s *CatalogueStore) Save(cat *types.Catalogue) error {
	out := *cat
	if out.Projects == nil {
		out.Projects = []types.Project{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalogue: %w", err)
	}
	if err := codec.AtomicWrite(s.Path(), append(data, '\n')); err != nil {
		return fmt.Errorf("writing catalogue: %w", err)
	}
	s.log.WithFields(logrus.Fields{"file": s.Path(), "projects": len(out.Projects)}).Debug("catalogue saved")
	return nil
}
