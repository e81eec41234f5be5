package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatch(t *testing.T) {
	t.Run("recognised keys", func(t *testing.T) {
		p := ParsePatch([]byte(`{"name":"New","description":"d","categoryId":"development"}`))
		require.NotNil(t, p.Name)
		require.NotNil(t, p.Description)
		require.NotNil(t, p.CategoryID)
		assert.Equal(t, "New", *p.Name)
		assert.Equal(t, "d", *p.Description)
		assert.Equal(t, "development", *p.CategoryID)
		assert.False(t, p.ClearDescription)
		assert.Empty(t, p.Ignored)
	})

	t.Run("null description clears", func(t *testing.T) {
		p := ParsePatch([]byte(`{"description":null}`))
		assert.True(t, p.ClearDescription)
		assert.Nil(t, p.Description)
	})

	t.Run("unknown and ill-typed keys are ignored", func(t *testing.T) {
		p := ParsePatch([]byte(`{"name":42,"categoryId":null,"bogus":true,"description":[1]}`))
		assert.Nil(t, p.Name)
		assert.Nil(t, p.CategoryID)
		assert.Nil(t, p.Description)
		assert.False(t, p.ClearDescription)
		assert.Equal(t, []string{"bogus", "categoryId", "description", "name"}, p.Ignored)
	})

	t.Run("category values keep only string leaves", func(t *testing.T) {
		p := ParsePatch([]byte(`{"categoryValues":{"general":{"project_name":"x","n":1},"bad":"str"}}`))
		require.NotNil(t, p.CategoryValues)
		assert.Equal(t, map[string]string{"project_name": "x"}, p.CategoryValues["general"])
		_, hasBad := p.CategoryValues["bad"]
		assert.False(t, hasBad)
	})

	t.Run("non-object envelope yields empty patch", func(t *testing.T) {
		p := ParsePatch([]byte(`[1,2]`))
		assert.Nil(t, p.Name)
		assert.Nil(t, p.CategoryValues)
		assert.Equal(t, []string{"<envelope>"}, p.Ignored)
	})
}

func TestProjectPatchApply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	desc := "old"
	p := Project{ID: "1", Name: "Old", Description: &desc, UpdatedAt: "before"}

	t.Run("empty patch still refreshes UpdatedAt", func(t *testing.T) {
		ProjectPatch{}.Apply(&p, now)
		assert.Equal(t, Timestamp(now), p.UpdatedAt)
		assert.Equal(t, "Old", p.Name)
		assert.Equal(t, "old", p.DescriptionText())
	})

	t.Run("fields and clear", func(t *testing.T) {
		patch := ParsePatch([]byte(`{"name":"New","description":null,"categoryValues":{"general":{"project_name":"New"}}}`))
		patch.Apply(&p, now)
		assert.Equal(t, "New", p.Name)
		assert.Nil(t, p.Description)
		assert.Equal(t, "New", p.CategoryValues.Get("general", "project_name"))
	})
}
