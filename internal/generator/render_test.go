package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/brm/internal/store"
	"github.com/mesh-intelligence/brm/pkg/types"
)

func defaultDefs() *types.CategoryDefinitions {
	return store.DefaultCategories("2026-01-01T00:00:00Z")
}

func devProject() types.Project {
	return types.Project{
		ID:         "p1",
		Name:       "Api",
		CategoryID: types.CategoryDevelopment,
		CategoryValues: types.CategoryValues{
			types.CategoryGeneral: {
				types.VarProjectName:        "Api",
				types.VarActiveProjectName:  "Api",
				types.VarProjectDescription: "",
			},
			types.CategoryDevelopment: {
				types.VarTechStack:          "Go",
				types.VarActiveProjectStack: "Go",
				types.VarRestartCommand:     "make run",
				types.VarLogCommand:         "  ",
			},
		},
	}
}

func TestRenderActiveVars(t *testing.T) {
	p := devProject()
	doc, err := RenderActiveVars(&p, defaultDefs())
	require.NoError(t, err)

	want := `# Generated active project variables for: Api
global_vars:
  - name: tech_stack
    type: echo
    params:
      echo: Go
  - name: active_project_stack
    type: echo
    params:
      echo: Go
  - name: restart_command
    type: echo
    params:
      echo: make run
  - name: project_name
    type: echo
    params:
      echo: Api
  - name: active_project_name
    type: echo
    params:
      echo: Api
`
	assert.Equal(t, want, doc)
}

func TestRenderActiveVarsBlockValue(t *testing.T) {
	p := types.Project{
		ID:   "p1",
		Name: "Multi: line\nname",
		CategoryValues: types.CategoryValues{
			types.CategoryGeneral: {types.VarProjectDescription: "first line\n  indented: yes\n\nlast"},
		},
	}
	doc, err := RenderActiveVars(&p, defaultDefs())
	require.NoError(t, err)

	assert.Contains(t, doc, "# Generated active project variables for: |-   Multi: line   name\n")
	assert.Contains(t, doc, "      echo: |-\n        first line\n          indented: yes\n        \n        last\n")

	var parsed activeVarsDoc
	require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	require.Len(t, parsed.GlobalVars, 1)
	assert.Equal(t, "first line\n  indented: yes\n\nlast", parsed.GlobalVars[0].Params.Echo)
}

func TestRenderActiveVarsRoundTripsAwkwardValues(t *testing.T) {
	values := []string{
		"key: value",
		"- item",
		"# not a comment",
		"it's",
		`say "hi"`,
		"true",
		"NULL",
		"0x1F",
		"1e3",
		" padded ",
		"{flow}",
		"[list]",
		"tab\there",
		"trailing newline\n",
		"\nleading newline",
		"  indented\nblock",
		"crlf\r\nline",
		"bell\x07",
		"unicode é ✓",
		"{{nested_var}}",
	}
	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			p := types.Project{
				ID:             "p1",
				Name:           v,
				CategoryValues: types.CategoryValues{types.CategoryGeneral: {types.VarProjectName: v}},
			}
			doc, err := RenderActiveVars(&p, defaultDefs())
			require.NoError(t, err)

			var parsed activeVarsDoc
			require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
			require.Len(t, parsed.GlobalVars, 1)
			assert.Equal(t, v, parsed.GlobalVars[0].Params.Echo)

			sel, err := RenderSelector(&types.Catalogue{Projects: []types.Project{p}})
			require.NoError(t, err)
			var s selectorDoc
			require.NoError(t, yaml.Unmarshal([]byte(sel), &s))
			assert.Equal(t, v, s.Matches[0].Vars[0].Params.Values[0].Label)
		})
	}
}

func TestRenderActiveVarsSkipsUnknownCategoriesAndBlanks(t *testing.T) {
	p := types.Project{
		ID:   "p1",
		Name: "Notes",
		CategoryValues: types.CategoryValues{
			"unknown":             {"x": "y"},
			types.CategoryGeneral: {types.VarProjectName: "", types.VarActiveProjectName: " \t"},
		},
	}
	doc, err := RenderActiveVars(&p, defaultDefs())
	require.NoError(t, err)
	assert.Equal(t, "# Generated active project variables for: Notes\nglobal_vars: []\n", doc)
}

func TestRenderActiveVarsUsesDefinitionDisplayName(t *testing.T) {
	defs := &types.CategoryDefinitions{Categories: []types.CategoryDefinition{{
		ID:   "web",
		Name: "Web",
		VariableDefinitions: []types.VariableDefinition{
			{ID: "b", Name: "second"},
			{ID: "a", Name: "first: var"},
		},
	}}}
	p := types.Project{ID: "p1", Name: "Site", CategoryValues: types.CategoryValues{
		"web": {"a": "A", "b": "B"},
	}}

	bindings := Bindings(&p, defs)
	assert.Equal(t, []Binding{{Name: "second", Value: "B"}, {Name: "first: var", Value: "A"}}, bindings)

	doc, err := RenderActiveVars(&p, defs)
	require.NoError(t, err)
	assert.Contains(t, doc, "  - name: 'first: var'\n")
}

func TestRenderActiveVarsNilDefinitions(t *testing.T) {
	p := devProject()
	doc, err := RenderActiveVars(&p, nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "global_vars: []\n")
}

func TestRenderActiveVarsDeterministic(t *testing.T) {
	p := devProject()
	first, err := RenderActiveVars(&p, defaultDefs())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := RenderActiveVars(&p, defaultDefs())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidateActiveVarsDetectsMismatch(t *testing.T) {
	doc := "global_vars:\n  - name: x\n    type: echo\n    params:\n      echo: yes please\n"
	err := validateActiveVars(doc, []Binding{{Name: "x", Value: "no"}})
	assert.ErrorIs(t, err, ErrGeneratedInvalid)

	err = validateActiveVars("global_vars: [\n", nil)
	assert.ErrorIs(t, err, ErrGeneratedInvalid)
}

func TestRenderSelector(t *testing.T) {
	cat := &types.Catalogue{Projects: []types.Project{
		{ID: "a1", Name: "Api"},
		{ID: "b2", Name: "Docs: internal"},
	}}
	doc, err := RenderSelector(cat)
	require.NoError(t, err)

	want := `# Generated project selector for quick switching
matches:
  - trigger: ":project"
    replace: "{{project_choice}}"
    vars:
      - name: project_choice
        type: choice
        params:
          values:
          - label: Api
            id: "a1"
          - label: 'Docs: internal'
            id: "b2"
`
	assert.Equal(t, want, doc)
}

func TestRenderSelectorEmpty(t *testing.T) {
	doc, err := RenderSelector(types.NewCatalogue())
	require.NoError(t, err)
	assert.Contains(t, doc, "          values: []\n")

	var parsed selectorDoc
	require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	assert.Empty(t, parsed.Matches[0].Vars[0].Params.Values)
}

func TestRenderCleared(t *testing.T) {
	assert.Equal(t, "# No active project - project variables will not be available\nglobal_vars: []\n", RenderCleared())

	var parsed activeVarsDoc
	require.NoError(t, yaml.Unmarshal([]byte(RenderCleared()), &parsed))
	assert.Empty(t, parsed.GlobalVars)
}

func TestWriterSync(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "match")
	w := NewWriter(dir, nil)

	p := devProject()
	id := p.ID
	cat := &types.Catalogue{Projects: []types.Project{p}, ActiveProjectID: &id}
	require.NoError(t, w.Sync(cat, defaultDefs()))

	active, err := os.ReadFile(w.ActiveVarsPath())
	require.NoError(t, err)
	assert.Contains(t, string(active), "for: Api\n")
	selector, err := os.ReadFile(w.SelectorPath())
	require.NoError(t, err)
	assert.Contains(t, string(selector), `id: "p1"`)

	require.NoError(t, cat.SetActive(""))
	require.NoError(t, w.Sync(cat, defaultDefs()))
	active, err = os.ReadFile(w.ActiveVarsPath())
	require.NoError(t, err)
	assert.Equal(t, ClearedDocument, string(active))
}

func TestWriterClear(t *testing.T) {
	w := NewWriter(t.TempDir(), nil)
	require.NoError(t, w.Clear())

	data, err := os.ReadFile(w.ActiveVarsPath())
	require.NoError(t, err)
	assert.Equal(t, ClearedDocument, string(data))
	assert.NoFileExists(t, w.SelectorPath())
}
