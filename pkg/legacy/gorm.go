package legacy

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market-cutover/pkg/model"
)

// GormProvider reads the legacy marketplace tables (providers, services,
// categories, subcategories) through gorm.
type GormProvider struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGormProvider(db *gorm.DB, logger *zap.Logger) *GormProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormProvider{db: db, logger: logger}
}

// Migrate creates the legacy tables. Production databases already have them;
// this exists for fresh environments and tests.
func (p *GormProvider) Migrate() error {
	return p.db.AutoMigrate(&model.Provider{}, &model.Service{}, &model.LegacyCategory{}, &model.LegacySubcategory{})
}

func (p *GormProvider) LegacyDataset(ctx context.Context) (model.LegacyDataset, error) {
	var data model.LegacyDataset
	db := p.db.WithContext(ctx)
	if err := db.Order("id").Find(&data.Providers).Error; err != nil {
		return data, fmt.Errorf("load providers: %w", err)
	}
	if err := db.Order("id").Find(&data.Services).Error; err != nil {
		return data, fmt.Errorf("load services: %w", err)
	}
	if err := db.Order("id").Find(&data.Categories).Error; err != nil {
		return data, fmt.Errorf("load categories: %w", err)
	}
	if err := db.Order("id").Find(&data.Subcategories).Error; err != nil {
		return data, fmt.Errorf("load subcategories: %w", err)
	}
	return data, nil
}

// RestoreLegacyDataset replaces the content of every legacy table with data
// inside one transaction.
func (p *GormProvider) RestoreLegacyDataset(ctx context.Context, data model.LegacyDataset) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.Service{}, &model.Provider{}, &model.LegacySubcategory{}, &model.LegacyCategory{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		if len(data.Categories) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&data.Categories).Error; err != nil {
				return err
			}
		}
		if len(data.Subcategories) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&data.Subcategories).Error; err != nil {
				return err
			}
		}
		if len(data.Providers) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&data.Providers).Error; err != nil {
				return err
			}
		}
		if len(data.Services) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&data.Services).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore legacy tables: %w", err)
	}
	p.logger.Info("legacy tables restored",
		zap.Int("providers", len(data.Providers)),
		zap.Int("services", len(data.Services)),
		zap.Int("categories", len(data.Categories)),
		zap.Int("subcategories", len(data.Subcategories)))
	return nil
}
