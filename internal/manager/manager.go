// Package manager implements the catalogue operations. Each mutation runs
// a load, change, normalize, save cycle and then regenerates the Espanso
// documents, so the generated files always match the saved catalogue.
package manager

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/brm/internal/generator"
	"github.com/mesh-intelligence/brm/internal/logging"
	"github.com/mesh-intelligence/brm/internal/normalize"
	"github.com/mesh-intelligence/brm/internal/store"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDSource sets the project id generator.
func WithIDSource(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// Manager coordinates the catalogue store, the category store and the
// document writer.
type Manager struct {
	catalogue  *store.CatalogueStore
	categories *store.CategoryStore
	writer     *generator.Writer
	norm       *normalize.Normalizer

	log   logrus.FieldLogger
	now   func() time.Time
	newID func() string
}

// New returns a Manager for the directories in cfg.
func New(cfg types.Config, opts ...Option) (*Manager, error) {
	m := &Manager{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.OrDiscard(m.log)
	m.norm = normalize.New(normalize.WithClock(m.now), normalize.WithIDSource(m.newID))

	storeOpts := []store.Option{
		store.WithLogger(m.log),
		store.WithNormalizer(m.norm),
		store.WithClock(m.now),
	}
	var err error
	if m.catalogue, err = store.NewCatalogueStore(cfg, storeOpts...); err != nil {
		return nil, err
	}
	if m.categories, err = store.NewCategoryStore(cfg, storeOpts...); err != nil {
		return nil, err
	}
	m.writer = generator.NewWriter(cfg.RuleDir(), m.log)
	return m, nil
}

// Projects loads the catalogue, migrating legacy data when needed.
func (m *Manager) Projects() (*types.Catalogue, error) {
	return m.catalogue.Load()
}

// Project returns the project with the given id.
func (m *Manager) Project(id string) (*types.Project, error) {
	cat, err := m.catalogue.Load()
	if err != nil {
		return nil, err
	}
	p, _ := cat.Find(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrProjectNotFound, id)
	}
	return p, nil
}

// CreateProject adds p to the catalogue. A blank id is replaced with a new
// one, timestamps are set to now, and the project starts inactive. The
// stored project is returned.
func (m *Manager) CreateProject(p types.Project) (types.Project, error) {
	cat, err := m.catalogue.Load()
	if err != nil {
		return types.Project{}, err
	}

	if p.ID == "" {
		p.ID = m.newID()
	}
	stamp := types.Timestamp(m.now())
	p.CreatedAt = stamp
	p.UpdatedAt = stamp
	p.IsActive = false
	p.CategoryValues = p.CategoryValues.Clone()
	mirrorGeneral(&p, true, true)

	cat.Projects = append(cat.Projects, p)
	cat, err = m.commit(cat)
	if err != nil {
		return types.Project{}, err
	}
	created := cat.Projects[len(cat.Projects)-1]
	m.log.WithFields(logrus.Fields{"project": created.ID, "name": created.Name}).Info("project created")
	return created, nil
}

// UpdateProject applies patch to the project with the given id and
// refreshes its updatedAt. A name or description carried by the patch is
// mirrored into the general category, so clearing the description sticks.
func (m *Manager) UpdateProject(id string, patch types.ProjectPatch) (types.Project, error) {
	cat, err := m.catalogue.Load()
	if err != nil {
		return types.Project{}, err
	}
	p, idx := cat.Find(id)
	if p == nil {
		return types.Project{}, fmt.Errorf("%w: %s", types.ErrProjectNotFound, id)
	}

	patch.Apply(p, m.now())
	mirrorGeneral(p, patch.Name != nil, patch.Description != nil || patch.ClearDescription)
	if len(patch.Ignored) > 0 {
		m.log.WithFields(logrus.Fields{"project": id, "keys": patch.Ignored}).Debug("ignored update keys")
	}

	cat, err = m.commit(cat)
	if err != nil {
		return types.Project{}, err
	}
	return cat.Projects[idx], nil
}

// DeleteProject removes the project with the given id, clearing the active
// project when it was the one removed. Unknown ids are not an error.
func (m *Manager) DeleteProject(id string) error {
	cat, err := m.catalogue.Load()
	if err != nil {
		return err
	}
	wasActive := cat.ActiveID() == id
	if cat.Remove(id) {
		m.log.WithFields(logrus.Fields{"project": id, "was_active": wasActive}).Info("project deleted")
	}
	_, err = m.commit(cat)
	return err
}

// SetActiveProject makes id the active project; an empty id clears it.
func (m *Manager) SetActiveProject(id string) error {
	cat, err := m.catalogue.Load()
	if err != nil {
		return err
	}
	if err := cat.SetActive(id); err != nil {
		return fmt.Errorf("%w: %s", err, id)
	}
	if _, err := m.commit(cat); err != nil {
		return err
	}
	if id == "" {
		m.log.Info("active project cleared")
	} else {
		m.log.WithField("project", id).Info("active project changed")
	}
	return nil
}

// Regenerate rewrites both generated documents from the stored state.
func (m *Manager) Regenerate() error {
	cat, err := m.catalogue.Load()
	if err != nil {
		return err
	}
	return m.regenerate(cat)
}

// Categories returns the category definitions.
func (m *Manager) Categories() (*types.CategoryDefinitions, error) {
	return m.categories.Load()
}

// WriteCategories replaces the category definitions and regenerates, since
// definitions decide which variables are emitted.
func (m *Manager) WriteCategories(defs *types.CategoryDefinitions) error {
	if err := m.categories.Write(defs); err != nil {
		return err
	}
	return m.Regenerate()
}

// EnsureCategoryFiles assigns missing backing file names and creates
// missing backing files. It reports whether anything changed.
func (m *Manager) EnsureCategoryFiles() (bool, error) {
	return m.categories.EnsureFileNames()
}

// Paths of the files the manager reads and writes.
func (m *Manager) Paths() (catalogue, categories, activeVars, selector string) {
	return m.catalogue.Path(), m.categories.Path(), m.writer.ActiveVarsPath(), m.writer.SelectorPath()
}

// commit normalizes cat, saves it and regenerates the documents.
func (m *Manager) commit(cat *types.Catalogue) (*types.Catalogue, error) {
	raw := normalize.FromCatalogue(cat)
	cat, _ = m.norm.Catalogue(raw.Projects, raw.ActiveProjectID)
	if err := m.catalogue.Save(cat); err != nil {
		return nil, err
	}
	if err := m.regenerate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (m *Manager) regenerate(cat *types.Catalogue) error {
	defs, err := m.categories.Load()
	if err != nil {
		return fmt.Errorf("loading category definitions: %w", err)
	}
	return m.writer.Sync(cat, defs)
}

// mirrorGeneral copies the project's name and description into the
// general category so normalization keeps the explicit values.
func mirrorGeneral(p *types.Project, name, description bool) {
	if !name && !description {
		return
	}
	if p.CategoryValues == nil {
		p.CategoryValues = types.CategoryValues{}
	}
	general := p.CategoryValues[types.CategoryGeneral]
	if general == nil {
		general = map[string]string{}
		p.CategoryValues[types.CategoryGeneral] = general
	}
	if name && p.Name != "" {
		general[types.VarProjectName] = p.Name
		general[types.VarActiveProjectName] = p.Name
	}
	if description {
		general[types.VarProjectDescription] = p.DescriptionText()
	}
}
