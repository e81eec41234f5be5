// Package generator renders the Espanso documents derived from the
// catalogue: the active project's global variables and the project
// selector. Every rendered document is parsed back before it is returned.
package generator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/brm/internal/codec"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// ErrGeneratedInvalid is wrapped by render errors when a produced document
// does not parse back to the values it was built from.
var ErrGeneratedInvalid = errors.New("generated document is invalid")

// ClearedDocument is written in place of the active variables when no
// project is active.
const ClearedDocument = "# No active project - project variables will not be available\nglobal_vars: []\n"

// SelectorTrigger is the Espanso trigger that opens the project chooser.
const SelectorTrigger = ":project"

// Indentation of values inside the generated documents.
const (
	echoIndent  = "      "
	labelIndent = "            "
)

// Binding is one global variable of the active-vars document.
type Binding struct {
	Name  string
	Value string
}

// Bindings lists the variables a project contributes, in document order:
// category ids sorted lexically, then each category's variable definitions
// in declaration order. Values that are missing or blank are skipped, as
// are categories without a definition.
func Bindings(project *types.Project, defs *types.CategoryDefinitions) []Binding {
	catIDs := make([]string, 0, len(project.CategoryValues))
	for id := range project.CategoryValues {
		catIDs = append(catIDs, id)
	}
	sort.Strings(catIDs)

	var out []Binding
	for _, catID := range catIDs {
		def, ok := defs.Find(catID)
		if !ok {
			continue
		}
		values := project.CategoryValues[catID]
		for _, v := range def.VariableDefinitions {
			value, ok := values[v.ID]
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			out = append(out, Binding{Name: v.Name, Value: value})
		}
	}
	return out
}

// RenderActiveVars renders the global_vars document for project.
func RenderActiveVars(project *types.Project, defs *types.CategoryDefinitions) (string, error) {
	bindings := Bindings(project, defs)

	var b strings.Builder
	fmt.Fprintf(&b, "# Generated active project variables for: %s\n", codec.CommentSafe(codec.EscapeScalar(project.Name)))
	if len(bindings) == 0 {
		b.WriteString("global_vars: []\n")
	} else {
		b.WriteString("global_vars:\n")
		for _, bind := range bindings {
			fmt.Fprintf(&b, "  - name: %s\n", valueToken(bind.Name, echoIndent))
			b.WriteString("    type: echo\n")
			b.WriteString("    params:\n")
			fmt.Fprintf(&b, "      echo: %s\n", valueToken(bind.Value, echoIndent))
		}
	}

	doc := b.String()
	if err := validateActiveVars(doc, bindings); err != nil {
		return "", err
	}
	return doc, nil
}

// RenderSelector renders the project chooser listing every project.
func RenderSelector(cat *types.Catalogue) (string, error) {
	var b strings.Builder
	b.WriteString("# Generated project selector for quick switching\n")
	b.WriteString("matches:\n")
	fmt.Fprintf(&b, "  - trigger: %s\n", codec.QuoteDouble(SelectorTrigger))
	b.WriteString("    replace: \"{{project_choice}}\"\n")
	b.WriteString("    vars:\n")
	b.WriteString("      - name: project_choice\n")
	b.WriteString("        type: choice\n")
	b.WriteString("        params:\n")
	if len(cat.Projects) == 0 {
		b.WriteString("          values: []\n")
	} else {
		b.WriteString("          values:\n")
		for _, p := range cat.Projects {
			fmt.Fprintf(&b, "          - label: %s\n", valueToken(p.Name, labelIndent))
			fmt.Fprintf(&b, "            id: %s\n", codec.QuoteDouble(p.ID))
		}
	}

	doc := b.String()
	if err := validateSelector(doc, cat.Projects); err != nil {
		return "", err
	}
	return doc, nil
}

// RenderCleared returns the document used when no project is active.
func RenderCleared() string {
	return ClearedDocument
}

// valueToken escapes s and, for block scalars, shifts the block's lines by
// indent so they sit under a key at that depth.
func valueToken(s, indent string) string {
	token := codec.EscapeScalar(s)
	if !codec.IsBlock(token) {
		return token
	}
	return strings.ReplaceAll(token, "\n", "\n"+indent)
}

type activeVarsDoc struct {
	GlobalVars []struct {
		Name   string `yaml:"name"`
		Type   string `yaml:"type"`
		Params struct {
			Echo string `yaml:"echo"`
		} `yaml:"params"`
	} `yaml:"global_vars"`
}

func validateActiveVars(doc string, want []Binding) error {
	var got activeVarsDoc
	if err := yaml.Unmarshal([]byte(doc), &got); err != nil {
		return fmt.Errorf("%w: %v", ErrGeneratedInvalid, err)
	}
	if len(got.GlobalVars) != len(want) {
		return fmt.Errorf("%w: %d variables parsed, %d rendered", ErrGeneratedInvalid, len(got.GlobalVars), len(want))
	}
	for i, v := range got.GlobalVars {
		if v.Name != want[i].Name || v.Type != "echo" || v.Params.Echo != want[i].Value {
			return fmt.Errorf("%w: variable %d does not round-trip", ErrGeneratedInvalid, i)
		}
	}
	return nil
}

type selectorDoc struct {
	Matches []struct {
		Trigger string `yaml:"trigger"`
		Replace string `yaml:"replace"`
		Vars    []struct {
			Name   string `yaml:"name"`
			Type   string `yaml:"type"`
			Params struct {
				Values []struct {
					Label string `yaml:"label"`
					ID    string `yaml:"id"`
				} `yaml:"values"`
			} `yaml:"params"`
		} `yaml:"vars"`
	} `yaml:"matches"`
}

func validateSelector(doc string, projects []types.Project) error {
	var got selectorDoc
	if err := yaml.Unmarshal([]byte(doc), &got); err != nil {
		return fmt.Errorf("%w: %v", ErrGeneratedInvalid, err)
	}
	if len(got.Matches) != 1 || got.Matches[0].Trigger != SelectorTrigger || len(got.Matches[0].Vars) != 1 {
		return fmt.Errorf("%w: selector structure", ErrGeneratedInvalid)
	}
	values := got.Matches[0].Vars[0].Params.Values
	if len(values) != len(projects) {
		return fmt.Errorf("%w: %d choices parsed, %d rendered", ErrGeneratedInvalid, len(values), len(projects))
	}
	for i, v := range values {
		if v.Label != projects[i].Name || v.ID != projects[i].ID {
			return fmt.Errorf("%w: choice %d does not round-trip", ErrGeneratedInvalid, i)
		}
	}
	return nil
}
