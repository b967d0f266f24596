package target

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Len(t, c.Categories, 6)
	assert.GreaterOrEqual(t, len(c.Concepts), 30)
	assert.Len(t, c.Integrations, 3)
	assert.NotEmpty(t, c.BusinessRules)
	for _, cat := range c.Categories {
		assert.NotEmpty(t, cat.Subcategories, cat.ID)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":     "categories: [",
		"missing id": "categories:\n  - name: Nameless\n",
		"duplicate":  "categories:\n  - id: a\n  - id: a\n",
		"coverage":   "businessRules:\n  - {rule: r, coverage: 140}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("eventTypes: [wedding]\ncategories:\n  - id: venues\n    name: Venues\n"), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Categories, 1)
	assert.Equal(t, "Venues", c.Categories[0].Name)
	assert.Equal(t, []string{"wedding"}, c.EventTypes)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
