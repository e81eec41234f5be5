package types

// VariableDefinition declares one variable of a category.
type VariableDefinition struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	DefaultValue *string `json:"defaultValue,omitempty"`
	Required     *bool   `json:"required,omitempty"`
}

// CategoryDefinition is a named bucket of variable definitions, optionally
// backed by a rule file in the Espanso match directory.
type CategoryDefinition struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Description         *string              `json:"description,omitempty"`
	Icon                *string              `json:"icon,omitempty"`
	Color               *string              `json:"color,omitempty"`
	IsDefault           *bool                `json:"isDefault,omitempty"`
	FileName            *string              `json:"fileName,omitempty"`
	VariableDefinitions []VariableDefinition `json:"variableDefinitions"`
}

// BackingFile returns the rule file name, or "" when the category has none.
func (d *CategoryDefinition) BackingFile() string {
	if d.FileName == nil {
		return ""
	}
	return *d.FileName
}

// CategoryDefinitions is the persisted category-definition table.
type CategoryDefinitions struct {
	Categories  []CategoryDefinition `json:"categories"`
	LastUpdated string               `json:"lastUpdated"`
}

// Find returns the definition with the given id. An unknown id is not an
// error: callers treat it as a category that contributes no variables.
func (d *CategoryDefinitions) Find(id string) (*CategoryDefinition, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return &d.Categories[i], true
		}
	}
	return nil, false
}
