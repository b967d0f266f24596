package legacy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"market-cutover/pkg/model"
)

func sampleDataset() model.LegacyDataset {
	return model.LegacyDataset{
		Providers: []model.Provider{
			{ID: "p1", Name: "Salon Aurora", Verified: true, CategoryIDs: []string{"venues"}, Attributes: map[string]string{"city": "Lima"}},
			{ID: "p2", Name: "DJ Mateo", CategoryIDs: []string{"music"}},
		},
		Services: []model.Service{
			{ID: "s1", ProviderID: "p1", SubcategoryID: "halls", Title: "Main hall", PriceCents: 150000, Tags: []string{"wedding"}},
		},
		Categories: []model.LegacyCategory{
			{ID: "music", Name: "Music", Slug: "music"},
			{ID: "venues", Name: "Venues", Slug: "venues"},
		},
		Subcategories: []model.LegacySubcategory{
			{ID: "halls", CategoryID: "venues", Name: "Halls", Fields: []string{"capacity"}},
		},
	}
}

func TestStaticIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	data := sampleDataset()
	p := NewStatic(data)
	data.Providers[0].Name = "mutated"

	got, err := p.LegacyDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Salon Aurora", got.Providers[0].Name)

	got.Providers[0].CategoryIDs[0] = "mutated"
	again, err := p.LegacyDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "venues", again.Providers[0].CategoryIDs[0])

	require.NoError(t, p.RestoreLegacyDataset(ctx, model.LegacyDataset{}))
	empty, err := p.LegacyDataset(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Providers)
}

func TestFileProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  - id: p1
    name: Salon Aurora
    verified: true
    categoryIds: [venues]
services:
  - id: s1
    providerId: p1
    title: Main hall
    priceCents: 150000
categories:
  - id: venues
    name: Venues
`), 0o644))

	p := NewFileProvider(path, nil)
	data, err := p.LegacyDataset(ctx)
	require.NoError(t, err)
	require.Len(t, data.Providers, 1)
	assert.Equal(t, []string{"venues"}, data.Providers[0].CategoryIDs)
	assert.Equal(t, int64(150000), data.Services[0].PriceCents)

	require.NoError(t, p.RestoreLegacyDataset(ctx, sampleDataset()))
	restored, err := p.LegacyDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleDataset(), restored)
}

func TestFileProviderMissingFile(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	_, err := p.LegacyDataset(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return gdb
}

func TestGormProviderRestoreReplacesTables(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	p := NewGormProvider(gdb, nil)
	require.NoError(t, p.Migrate())

	require.NoError(t, gdb.Create(&model.Provider{ID: "stale", Name: "Gone"}).Error)

	require.NoError(t, p.RestoreLegacyDataset(ctx, sampleDataset()))
	data, err := p.LegacyDataset(ctx)
	require.NoError(t, err)

	require.Len(t, data.Providers, 2)
	assert.Equal(t, "p1", data.Providers[0].ID)
	assert.Equal(t, map[string]string{"city": "Lima"}, data.Providers[0].Attributes)
	require.Len(t, data.Services, 1)
	assert.Equal(t, []string{"wedding"}, data.Services[0].Tags)
	assert.Len(t, data.Categories, 2)
	require.Len(t, data.Subcategories, 1)
	assert.Equal(t, []string{"capacity"}, data.Subcategories[0].Fields)
}
