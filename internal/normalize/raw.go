package normalize

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/mesh-intelligence/brm/pkg/types"
)

// RawProject is a project record as found on disk, in any historical shape.
// Every field is optional; the flat development fields (Stack, Directory,
// RestartCommand, LogCommand) only appear in records written before
// category values existed.
type RawProject struct {
	ID             *string            `json:"id"`
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	CategoryID     *string            `json:"categoryId"`
	IsActive       *bool              `json:"isActive"`
	CreatedAt      *string            `json:"createdAt"`
	UpdatedAt      *string            `json:"updatedAt"`
	CategoryValues *RawCategoryValues `json:"categoryValues"`
	Stack          *string            `json:"stack"`
	Directory      *string            `json:"directory"`
	RestartCommand *string            `json:"restartCommand"`
	LogCommand     *string            `json:"logCommand"`
}

// RawCatalogue is the current on-disk catalogue shape before normalization.
type RawCatalogue struct {
	Projects        []RawProject `json:"projects"`
	ActiveProjectID *string      `json:"activeProjectId"`
}

// RawCategoryValues decodes a categoryValues object leniently: string
// leaves are kept, other scalars and nested values are kept as their JSON
// text, null leaves and non-object categories are dropped. Coerced reports
// whether anything was rewritten so the record gets persisted canonically.
type RawCategoryValues struct {
	Values  types.CategoryValues
	Coerced bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawCategoryValues) UnmarshalJSON(data []byte) error {
	var cats map[string]json.RawMessage
	if err := json.Unmarshal(data, &cats); err != nil {
		return err
	}
	r.Values = make(types.CategoryValues, len(cats))
	for catID, catRaw := range cats {
		if isNull(catRaw) {
			r.Values[catID] = nil
			continue
		}
		var vars map[string]json.RawMessage
		if err := json.Unmarshal(catRaw, &vars); err != nil {
			r.Coerced = true
			continue
		}
		values := make(map[string]string, len(vars))
		for varID, valRaw := range vars {
			var s string
			switch {
			case isNull(valRaw):
				r.Coerced = true
			case json.Unmarshal(valRaw, &s) == nil:
				values[varID] = s
			default:
				var buf bytes.Buffer
				if err := json.Compact(&buf, valRaw); err != nil {
					return err
				}
				values[varID] = buf.String()
				r.Coerced = true
			}
		}
		r.Values[catID] = values
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r RawCategoryValues) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Values)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// FromProject turns a normalized project back into its raw form, so it can
// be run through the normalizer again.
func FromProject(p types.Project) RawProject {
	raw := RawProject{
		ID:         strPtr(p.ID),
		Name:       strPtr(p.Name),
		CategoryID: strPtr(p.CategoryID),
		IsActive:   &p.IsActive,
		CreatedAt:  strPtr(p.CreatedAt),
		UpdatedAt:  strPtr(p.UpdatedAt),
	}
	if p.Description != nil {
		raw.Description = strPtr(*p.Description)
	}
	if p.CategoryValues != nil {
		raw.CategoryValues = &RawCategoryValues{Values: p.CategoryValues.Clone()}
	}
	return raw
}

// FromCatalogue turns a catalogue back into its raw form.
func FromCatalogue(c *types.Catalogue) RawCatalogue {
	raw := RawCatalogue{Projects: make([]RawProject, 0, len(c.Projects))}
	for _, p := range c.Projects {
		raw.Projects = append(raw.Projects, FromProject(p))
	}
	if c.ActiveProjectID != nil {
		raw.ActiveProjectID = strPtr(*c.ActiveProjectID)
	}
	return raw
}

func strPtr(s string) *string {
	return &s
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
