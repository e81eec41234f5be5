package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/brm/internal/generator"
	"github.com/mesh-intelligence/brm/pkg/types"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, types.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := types.Config{
		DataDir:    filepath.Join(root, "data"),
		EspansoDir: filepath.Join(root, "espanso"),
	}
	seq := 0
	m, err := New(cfg,
		WithClock(func() time.Time { return fixedTime }),
		WithIDSource(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, err)
	return m, cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func devValues(stack string) types.CategoryValues {
	return types.CategoryValues{types.CategoryDevelopment: {types.VarTechStack: stack}}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(types.Config{DataDir: "/d"})
	assert.ErrorIs(t, err, types.ErrEspansoDirEmpty)
}

func TestCreateProject(t *testing.T) {
	m, cfg := newTestManager(t)

	p, err := m.CreateProject(types.Project{
		Name:           "Api",
		CategoryID:     types.CategoryDevelopment,
		IsActive:       true,
		CategoryValues: devValues("Go"),
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", p.ID)
	assert.False(t, p.IsActive, "new projects start inactive")
	assert.Equal(t, types.Timestamp(fixedTime), p.CreatedAt)
	assert.Equal(t, "Api", p.CategoryValues.Get(types.CategoryGeneral, types.VarProjectName))
	assert.Equal(t, "Go", p.CategoryValues.Get(types.CategoryDevelopment, types.VarActiveProjectStack))

	cat, err := m.Projects()
	require.NoError(t, err)
	require.Len(t, cat.Projects, 1)
	assert.Equal(t, p, cat.Projects[0])

	_, _, activeVars, selector := m.Paths()
	assert.Equal(t, generator.ClearedDocument, readFile(t, activeVars))
	assert.Contains(t, readFile(t, selector), `id: "id-1"`)
	assert.FileExists(t, cfg.CatalogueFile())
}

func TestCreateProjectKeepsExplicitID(t *testing.T) {
	m, _ := newTestManager(t)

	p, err := m.CreateProject(types.Project{ID: "mine", Name: "Docs"})
	require.NoError(t, err)
	assert.Equal(t, "mine", p.ID)
	assert.Equal(t, types.CategoryGeneral, p.CategoryID)

	dup, err := m.CreateProject(types.Project{ID: "mine", Name: "Copy"})
	require.NoError(t, err)
	assert.NotEqual(t, "mine", dup.ID, "colliding id is replaced")
}

func TestUpdateProject(t *testing.T) {
	m, _ := newTestManager(t)
	p, err := m.CreateProject(types.Project{Name: "Api", Description: strPtr("old")})
	require.NoError(t, err)

	updated, err := m.UpdateProject(p.ID, types.ParsePatch([]byte(`{"name":"Billing","bogus":1,"categoryId":7}`)))
	require.NoError(t, err)
	assert.Equal(t, "Billing", updated.Name)
	assert.Equal(t, "Billing", updated.CategoryValues.Get(types.CategoryGeneral, types.VarActiveProjectName))
	assert.Equal(t, types.CategoryGeneral, updated.CategoryID)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "old", *updated.Description)

	cleared, err := m.UpdateProject(p.ID, types.ParsePatch([]byte(`{"description":null}`)))
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, "", cleared.CategoryValues.Get(types.CategoryGeneral, types.VarProjectDescription))
}

func TestUpdateProjectAlwaysRefreshesUpdatedAt(t *testing.T) {
	root := t.TempDir()
	cfg := types.Config{DataDir: filepath.Join(root, "data"), EspansoDir: filepath.Join(root, "espanso")}
	now := fixedTime
	m, err := New(cfg, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	p, err := m.CreateProject(types.Project{Name: "Api"})
	require.NoError(t, err)

	now = fixedTime.Add(time.Hour)
	updated, err := m.UpdateProject(p.ID, types.ParsePatch([]byte(`"not an object"`)))
	require.NoError(t, err)
	assert.Equal(t, types.Timestamp(now), updated.UpdatedAt)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Api", updated.Name)
}

func TestUpdateProjectNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.UpdateProject("missing", types.ProjectPatch{})
	assert.ErrorIs(t, err, types.ErrProjectNotFound)
}

func TestSetActiveProject(t *testing.T) {
	m, _ := newTestManager(t)
	a, err := m.CreateProject(types.Project{Name: "Api", CategoryValues: devValues("Go")})
	require.NoError(t, err)
	b, err := m.CreateProject(types.Project{Name: "Docs"})
	require.NoError(t, err)

	require.NoError(t, m.SetActiveProject(a.ID))
	cat, err := m.Projects()
	require.NoError(t, err)
	assert.Equal(t, a.ID, cat.ActiveID())
	assert.True(t, cat.Projects[0].IsActive)
	assert.False(t, cat.Projects[1].IsActive)

	_, _, activeVars, _ := m.Paths()
	doc := readFile(t, activeVars)
	assert.Contains(t, doc, "# Generated active project variables for: Api\n")
	assert.Contains(t, doc, "      echo: Go\n")

	require.NoError(t, m.SetActiveProject(b.ID))
	assert.Contains(t, readFile(t, activeVars), "for: Docs\n")

	err = m.SetActiveProject("missing")
	assert.ErrorIs(t, err, types.ErrProjectNotFound)
	cat, err = m.Projects()
	require.NoError(t, err)
	assert.Equal(t, b.ID, cat.ActiveID(), "failed activation leaves state alone")

	require.NoError(t, m.SetActiveProject(""))
	cat, err = m.Projects()
	require.NoError(t, err)
	assert.Nil(t, cat.ActiveProjectID)
	assert.Equal(t, generator.ClearedDocument, readFile(t, activeVars))
}

func TestDeleteActiveProjectClearsDocuments(t *testing.T) {
	m, _ := newTestManager(t)
	a, err := m.CreateProject(types.Project{Name: "Api"})
	require.NoError(t, err)
	b, err := m.CreateProject(types.Project{Name: "Docs"})
	require.NoError(t, err)
	require.NoError(t, m.SetActiveProject(a.ID))

	require.NoError(t, m.DeleteProject(a.ID))

	cat, err := m.Projects()
	require.NoError(t, err)
	assert.Nil(t, cat.ActiveProjectID)
	require.Len(t, cat.Projects, 1)
	assert.Equal(t, b.ID, cat.Projects[0].ID)

	_, _, activeVars, selector := m.Paths()
	assert.Equal(t, generator.ClearedDocument, readFile(t, activeVars))
	assert.NotContains(t, readFile(t, selector), a.ID)
}

func TestDeleteUnknownProjectIsNoOp(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.CreateProject(types.Project{Name: "Api"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteProject("missing"))
	cat, err := m.Projects()
	require.NoError(t, err)
	assert.Len(t, cat.Projects, 1)
}

func TestRegenerateAfterHandEdit(t *testing.T) {
	m, cfg := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.CatalogueFile()), 0o755))
	require.NoError(t, os.WriteFile(cfg.CatalogueFile(), []byte(`{"projects":[{"id":"x","name":"Hand","isActive":true}]}`), 0o644))

	require.NoError(t, m.Regenerate())

	_, _, activeVars, selector := m.Paths()
	assert.Contains(t, readFile(t, activeVars), "for: Hand\n")
	assert.Contains(t, readFile(t, selector), "- label: Hand\n")
}

func TestWriteCategoriesRegenerates(t *testing.T) {
	m, cfg := newTestManager(t)
	p, err := m.CreateProject(types.Project{Name: "Site", CategoryID: "web", CategoryValues: types.CategoryValues{
		"web": {"url": "https://example.com"},
	}})
	require.NoError(t, err)
	require.NoError(t, m.SetActiveProject(p.ID))

	_, _, activeVars, _ := m.Paths()
	assert.NotContains(t, readFile(t, activeVars), "example.com", "no definition yet")

	defs, err := m.Categories()
	require.NoError(t, err)
	file := "web.yml"
	defs.Categories = append(defs.Categories, types.CategoryDefinition{
		ID:                  "web",
		Name:                "Web",
		FileName:            &file,
		VariableDefinitions: []types.VariableDefinition{{ID: "url", Name: "site_url"}},
	})
	require.NoError(t, m.WriteCategories(defs))

	doc := readFile(t, activeVars)
	assert.Contains(t, doc, "  - name: site_url\n")
	assert.Contains(t, doc, "      echo: 'https://example.com'\n")
	assert.FileExists(t, filepath.Join(cfg.RuleDir(), "web.yml"))
}

func TestEnsureCategoryFiles(t *testing.T) {
	m, cfg := newTestManager(t)

	changed, err := m.EnsureCategoryFiles()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.FileExists(t, filepath.Join(cfg.RuleDir(), "project_general.yml"))
}

func strPtr(s string) *string {
	return &s
}
