package types

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty data dir returns ErrDataDirEmpty",
			config:  Config{EspansoDir: "/tmp/espanso"},
			wantErr: ErrDataDirEmpty,
		},
		{
			name:    "empty espanso dir returns ErrEspansoDirEmpty",
			config:  Config{DataDir: "/tmp/data"},
			wantErr: ErrEspansoDirEmpty,
		},
		{
			name:   "match dir is optional",
			config: Config{DataDir: "/tmp/data", EspansoDir: "/tmp/espanso"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigDerivedPaths(t *testing.T) {
	cfg := Config{DataDir: "/data", EspansoDir: "/espanso"}

	assert.Equal(t, filepath.Join("/espanso", "config", "projects.json"), cfg.CatalogueFile())
	assert.Equal(t, filepath.Join("/espanso", "config", "project_categories.json"), cfg.CategoriesFile())
	assert.Equal(t, filepath.Join("/espanso", "match"), cfg.RuleDir())

	cfg.MatchDir = "/rules"
	assert.Equal(t, "/rules", cfg.RuleDir())
}

func TestReservedRuleFile(t *testing.T) {
	assert.True(t, ReservedRuleFile(ActiveVarsFileName))
	assert.True(t, ReservedRuleFile(SelectorFileName))
	assert.True(t, ReservedRuleFile(GlobalVarsFileName))
	assert.False(t, ReservedRuleFile("project_general.yml"))
}
