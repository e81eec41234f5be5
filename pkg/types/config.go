package types

import (
	"errors"
	"path/filepath"
)

// Config locates the directories the engine reads and writes.
type Config struct {
	// DataDir is the application data directory holding legacy catalogue files.
	DataDir string `json:"data_dir" yaml:"data_dir"`
	// EspansoDir is the Espanso configuration root. The catalogue and the
	// category definitions live in its config subdirectory.
	EspansoDir string `json:"espanso_dir" yaml:"espanso_dir"`
	// MatchDir is the Espanso rule directory receiving generated documents.
	// Empty means EspansoDir/match.
	MatchDir string `json:"match_dir" yaml:"match_dir"`
}

// File names under EspansoDir/config.
const (
	CatalogueFileName  = "projects.json"
	CategoriesFileName = "project_categories.json"
)

// Generated file names in the rule directory. They are owned by the
// generator and never used as category backing files.
const (
	ActiveVarsFileName = "project_active_vars.yml"
	SelectorFileName   = "project_selector.yml"
	GlobalVarsFileName = "project_global_vars.yml"
)

// ReservedRuleFile reports whether name is one of the generated file names.
func ReservedRuleFile(name string) bool {
	switch name {
	case ActiveVarsFileName, SelectorFileName, GlobalVarsFileName:
		return true
	}
	return false
}

// Config validation errors.
var (
	ErrDataDirEmpty    = errors.New("data directory must not be empty")
	ErrEspansoDirEmpty = errors.New("espanso directory must not be empty")
)

// Validate checks that the Config names every required directory.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.EspansoDir == "" {
		return ErrEspansoDirEmpty
	}
	return nil
}

// StateDir returns the directory holding the catalogue and category files.
func (c Config) StateDir() string {
	return filepath.Join(c.EspansoDir, "config")
}

// CatalogueFile returns the path of the primary catalogue file.
func (c Config) CatalogueFile() string {
	return filepath.Join(c.StateDir(), CatalogueFileName)
}

// CategoriesFile returns the path of the category-definition file.
func (c Config) CategoriesFile() string {
	return filepath.Join(c.StateDir(), CategoriesFileName)
}

// RuleDir returns the Espanso rule directory.
func (c Config) RuleDir() string {
	if c.MatchDir != "" {
		return c.MatchDir
	}
	return filepath.Join(c.EspansoDir, "match")
}
