package target

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-cutover/pkg/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() (model.Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a YAML catalog from disk.
func LoadCatalog(path string) (model.Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (model.Catalog, error) {
	var c model.Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return model.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	seen := map[string]struct{}{}
	for _, cat := range c.Categories {
		if cat.ID == "" {
			return model.Catalog{}, fmt.Errorf("parse catalog: category without id")
		}
		if _, dup := seen[cat.ID]; dup {
			return model.Catalog{}, fmt.Errorf("parse catalog: duplicate category %q", cat.ID)
		}
		seen[cat.ID] = struct{}{}
	}
	for _, r := range c.BusinessRules {
		if r.Coverage < 0 || r.Coverage > 100 {
			return model.Catalog{}, fmt.Errorf("parse catalog: rule %q coverage %d outside 0..100", r.Rule, r.Coverage)
		}
	}
	return c, nil
}
