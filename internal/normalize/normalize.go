// Package normalize repairs raw project records, in any historical shape,
// into catalogues that satisfy the catalogue invariants: unique non-empty
// ids, a resolvable active id mirrored by exactly one IsActive flag, and
// general/development category buckets that mirror the project's fields.
//
// Every step returns its result together with a changed flag and callers
// OR the flags together, so a clean catalogue normalizes with changed=false
// and can be left on disk untouched.
package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/brm/pkg/types"
)

// devField pairs a canonical development variable with its legacy alias.
type devField struct {
	canonical string
	alias     string
}

var (
	stackField     = devField{types.VarTechStack, types.VarActiveProjectStack}
	directoryField = devField{types.VarDirectory, types.VarActiveProjectDirectory}
	restartField   = devField{types.VarRestartCommand, types.VarActiveProjectRestartCmd}
	logField       = devField{types.VarLogCommand, types.VarActiveProjectLogCmd}
)

// Normalizer carries the clock and id source used when a record needs
// synthesized identity or a refreshed timestamp.
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDSource sets the identifier generator.
func WithIDSource(newID func() string) Option {
	return func(n *Normalizer) { n.newID = newID }
}

// New returns a Normalizer using the wall clock and random UUIDs.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:   time.Now,
		newID: generateID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// generateID returns a new random project identifier.
func generateID() string {
	return uuid.NewString()
}

// Normalize runs a default Normalizer over a raw catalogue.
func Normalize(raw RawCatalogue) (*types.Catalogue, bool) {
	return New().Catalogue(raw.Projects, raw.ActiveProjectID)
}

// Catalogue normalizes every record, then repairs the catalogue-level
// invariants: unique ids, an active id that resolves, promotion of the
// first IsActive project when no active id is set, and IsActive flags that
// agree with the active id.
func (n *Normalizer) Catalogue(raws []RawProject, activeID *string) (*types.Catalogue, bool) {
	changed := false
	cat := &types.Catalogue{Projects: make([]types.Project, 0, len(raws))}

	for _, raw := range raws {
		p, c := n.Project(raw)
		cat.Projects = append(cat.Projects, p)
		changed = changed || c
	}

	c := n.dedupeIDs(cat.Projects)
	changed = changed || c

	cat.ActiveProjectID, c = resolveActiveID(cat.Projects, activeID)
	changed = changed || c

	c = syncActiveFlags(cat.Projects, cat.ActiveID())
	changed = changed || c

	return cat, changed
}

// dedupeIDs gives every repeated id after its first occurrence a fresh id.
func (n *Normalizer) dedupeIDs(projects []types.Project) bool {
	changed := false
	seen := make(map[string]bool, len(projects))
	for i := range projects {
		p := &projects[i]
		for seen[p.ID] {
			p.ID = n.newID()
			p.UpdatedAt = types.Timestamp(n.now())
			changed = true
		}
		seen[p.ID] = true
	}
	return changed
}

// resolveActiveID returns the active id after checking it against the
// project list. An empty id counts as unset; an unset id adopts the first
// project flagged active.
func resolveActiveID(projects []types.Project, activeID *string) (*string, bool) {
	if activeID != nil && *activeID == "" {
		id, _ := resolveActiveID(projects, nil)
		return id, true
	}
	if activeID != nil {
		for i := range projects {
			if projects[i].ID == *activeID {
				id := *activeID
				return &id, false
			}
		}
		return nil, true
	}
	for i := range projects {
		if projects[i].IsActive {
			id := projects[i].ID
			return &id, true
		}
	}
	return nil, false
}

// syncActiveFlags sets IsActive on exactly the project whose id is activeID.
func syncActiveFlags(projects []types.Project, activeID string) bool {
	changed := false
	for i := range projects {
		want := activeID != "" && projects[i].ID == activeID
		if projects[i].IsActive != want {
			projects[i].IsActive = want
			changed = true
		}
	}
	return changed
}

// Project normalizes a single record.
func (n *Normalizer) Project(raw RawProject) (types.Project, bool) {
	stamp := types.Timestamp(n.now())
	changed := false

	id, c := orElse(raw.ID, n.newID)
	changed = changed || c
	createdAt, c := orElse(raw.CreatedAt, func() string { return stamp })
	changed = changed || c
	updatedAt, c := orElse(raw.UpdatedAt, func() string { return stamp })
	changed = changed || c

	legacy := legacyFields(raw)

	categoryID, c := resolveCategory(deref(raw.CategoryID), legacy.any())
	changed = changed || c

	values, c := ensureValues(raw.CategoryValues)
	changed = changed || c

	name, description, c := synthesizeGeneral(values, deref(raw.Name), raw.Description)
	changed = changed || c

	c = synthesizeDevelopment(values, categoryID, legacy)
	changed = changed || c

	if raw.Name == nil || *raw.Name != name {
		changed = true
	}
	if !sameString(raw.Description, description) {
		changed = true
	}

	if changed {
		updatedAt = stamp
	}

	return types.Project{
		ID:             id,
		Name:           name,
		Description:    description,
		CategoryID:     categoryID,
		IsActive:       raw.IsActive != nil && *raw.IsActive,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		CategoryValues: values,
	}, changed
}

// legacy holds the flat development fields of pre-category records.
type legacy struct {
	stack, directory, restart, log string
}

func legacyFields(raw RawProject) legacy {
	return legacy{
		stack:     deref(raw.Stack),
		directory: deref(raw.Directory),
		restart:   deref(raw.RestartCommand),
		log:       deref(raw.LogCommand),
	}
}

func (l legacy) any() bool {
	return !blank(l.stack) || !blank(l.directory) || !blank(l.restart) || !blank(l.log)
}

// orElse returns *v when it is non-empty, otherwise a generated value and true.
func orElse(v *string, gen func() string) (string, bool) {
	if v != nil && *v != "" {
		return *v, false
	}
	return gen(), true
}

// resolveCategory infers a category for records that carry none.
func resolveCategory(categoryID string, hasLegacyDev bool) (string, bool) {
	if !blank(categoryID) {
		return categoryID, false
	}
	if hasLegacyDev {
		return types.CategoryDevelopment, true
	}
	return types.CategoryGeneral, true
}

// ensureValues copies the raw category values, replacing a missing map or
// missing per-category maps with empty ones.
func ensureValues(raw *RawCategoryValues) (types.CategoryValues, bool) {
	if raw == nil || raw.Values == nil {
		return types.CategoryValues{}, true
	}
	changed := raw.Coerced
	values := raw.Values.Clone()
	for _, catID := range sortedKeys(values) {
		if values[catID] == nil {
			values[catID] = map[string]string{}
			changed = true
		}
	}
	return values, changed
}

// ensureBucket returns the map for catID, creating it when absent.
func ensureBucket(values types.CategoryValues, catID string) (map[string]string, bool) {
	if bucket, ok := values[catID]; ok && bucket != nil {
		return bucket, false
	}
	bucket := map[string]string{}
	values[catID] = bucket
	return bucket, true
}

// ensureField stores value under key unless that would replace a non-blank
// value with a blank one. Reports whether the map changed.
func ensureField(m map[string]string, key, value string) bool {
	existing, ok := m[key]
	if ok && existing == value {
		return false
	}
	if ok && blank(value) && !blank(existing) {
		return false
	}
	m[key] = value
	return true
}

// synthesizeGeneral resolves the project name and description against the
// general bucket and mirrors them into it.
func synthesizeGeneral(values types.CategoryValues, rawName string, rawDescription *string) (string, *string, bool) {
	general, changed := ensureBucket(values, types.CategoryGeneral)

	name := firstNonBlank(rawName, general[types.VarProjectName], general[types.VarActiveProjectName])
	if name == "" {
		name = types.UnnamedProject
	}
	c1 := ensureField(general, types.VarProjectName, name)
	c2 := ensureField(general, types.VarActiveProjectName, name)

	descText := firstNonBlank(deref(rawDescription), general[types.VarProjectDescription])
	c3 := ensureField(general, types.VarProjectDescription, descText)

	var description *string
	if descText != "" {
		description = &descText
	}
	return name, description, changed || c1 || c2 || c3
}

// synthesizeDevelopment fills the development bucket for development
// projects and for any record that carries development data.
func synthesizeDevelopment(values types.CategoryValues, categoryID string, l legacy) bool {
	dev := values[types.CategoryDevelopment]
	resolved := []struct {
		field devField
		value string
	}{
		{stackField, firstNonBlank(l.stack, dev[stackField.canonical], dev[stackField.alias])},
		{directoryField, firstNonBlank(l.directory, dev[directoryField.canonical], dev[directoryField.alias])},
		{restartField, firstNonBlank(l.restart, dev[restartField.canonical], dev[restartField.alias])},
		{logField, firstNonBlank(l.log, dev[logField.canonical], dev[logField.alias])},
	}

	triggered := categoryID == types.CategoryDevelopment || l.any()
	for _, r := range resolved {
		triggered = triggered || r.value != ""
	}
	if !triggered {
		return false
	}

	bucket, changed := ensureBucket(values, types.CategoryDevelopment)
	for _, r := range resolved {
		c1 := ensureField(bucket, r.field.canonical, r.value)
		c2 := ensureField(bucket, r.field.alias, r.value)
		changed = changed || c1 || c2
	}
	return changed
}

// firstNonBlank returns the first candidate that is not blank, or "".
func firstNonBlank(candidates ...string) string {
	for _, c := range candidates {
		if !blank(c) {
			return c
		}
	}
	return ""
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
