package types

import (
	"errors"
	"time"
)

// Well-known category ids.
const (
	CategoryGeneral     = "general"
	CategoryDevelopment = "development"
)

// Variable ids in the general category.
const (
	VarProjectName        = "project_name"
	VarActiveProjectName  = "active_project_name"
	VarProjectDescription = "project_description"
)

// Variable ids in the development category. Each canonical id has a legacy
// alias kept in sync for rules written against the flat project schema.
const (
	VarTechStack               = "tech_stack"
	VarActiveProjectStack      = "active_project_stack"
	VarDirectory               = "directory"
	VarActiveProjectDirectory  = "active_project_directory"
	VarRestartCommand          = "restart_command"
	VarActiveProjectRestartCmd = "active_project_restart_cmd"
	VarLogCommand              = "log_command"
	VarActiveProjectLogCmd     = "active_project_log_cmd"
)

// UnnamedProject is the name given to projects that carry no name anywhere.
const UnnamedProject = "Unnamed Project"

// TimestampLayout formats CreatedAt and UpdatedAt.
const TimestampLayout = time.RFC3339Nano

// Timestamp renders t in the catalogue's timestamp format.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ErrProjectNotFound is returned when an operation names an unknown project id.
var ErrProjectNotFound = errors.New("project not found")

// CategoryValues maps category id to variable id to value.
type CategoryValues map[string]map[string]string

// Get returns the value of a variable, or "" when absent.
func (cv CategoryValues) Get(categoryID, variableID string) string {
	return cv[categoryID][variableID]
}

// Clone returns a deep copy.
func (cv CategoryValues) Clone() CategoryValues {
	if cv == nil {
		return nil
	}
	out := make(CategoryValues, len(cv))
	for cat, vars := range cv {
		if vars == nil {
			out[cat] = nil
			continue
		}
		cp := make(map[string]string, len(vars))
		for k, v := range vars {
			cp[k] = v
		}
		out[cat] = cp
	}
	return out
}

// Project is a catalogue entry: a named bundle of category variables.
type Project struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    *string        `json:"description"`
	CategoryID     string         `json:"categoryId"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
	CategoryValues CategoryValues `json:"categoryValues"`
}

// DescriptionText returns the description, or "" when absent.
func (p *Project) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// Catalogue is the persisted set of projects plus the active project id.
type Catalogue struct {
	Projects        []Project `json:"projects"`
	ActiveProjectID *string   `json:"activeProjectId"`
}

// NewCatalogue returns an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{Projects: []Project{}}
}

// ActiveID returns the active project id, or "" when none is active.
func (c *Catalogue) ActiveID() string {
	if c.ActiveProjectID == nil {
		return ""
	}
	return *c.ActiveProjectID
}

// Find returns the project with the given id and its index, or nil and -1.
func (c *Catalogue) Find(id string) (*Project, int) {
	for i := range c.Projects {
		if c.Projects[i].ID == id {
			return &c.Projects[i], i
		}
	}
	return nil, -1
}

// Active returns the active project, or nil when none is active or the
// active id does not resolve.
func (c *Catalogue) Active() *Project {
	id := c.ActiveID()
	if id == "" {
		return nil
	}
	p, _ := c.Find(id)
	return p
}

// SetActive points the catalogue at id ("" clears it) and brings every
// project's IsActive flag in line with the new active id.
// Returns ErrProjectNotFound when id is non-empty and unknown; the catalogue
// is left untouched in that case.
func (c *Catalogue) SetActive(id string) error {
	if id != "" {
		if p, _ := c.Find(id); p == nil {
			return ErrProjectNotFound
		}
		c.ActiveProjectID = &id
	} else {
		c.ActiveProjectID = nil
	}
	for i := range c.Projects {
		c.Projects[i].IsActive = id != "" && c.Projects[i].ID == id
	}
	return nil
}

// Remove deletes the project with the given id and clears the active id
// when it pointed at it. Reports whether a project was removed.
func (c *Catalogue) Remove(id string) bool {
	_, idx := c.Find(id)
	if idx < 0 {
		return false
	}
	c.Projects = append(c.Projects[:idx], c.Projects[idx+1:]...)
	if c.ActiveID() == id {
		c.ActiveProjectID = nil
	}
	return true
}
