package model

import "time"

// Provider is a legacy marketplace provider account.
type Provider struct {
	ID          string            `json:"id" yaml:"id" gorm:"primaryKey;size:64"`
	Name        string            `json:"name" yaml:"name"`
	Email       string            `json:"email,omitempty" yaml:"email,omitempty"`
	Phone       string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Verified    bool              `json:"verified" yaml:"verified"`
	CategoryIDs []string          `json:"categoryIds,omitempty" yaml:"categoryIds,omitempty" gorm:"serializer:json;type:text"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" gorm:"serializer:json;type:text"`
}

// Clone returns a deep copy.
func (p Provider) Clone() Provider {
	p.CategoryIDs = cloneStrings(p.CategoryIDs)
	p.Attributes = cloneStringMap(p.Attributes)
	return p
}

// Service is a bookable offer published by a legacy provider.
type Service struct {
	ID            string   `json:"id" yaml:"id" gorm:"primaryKey;size:64"`
	ProviderID    string   `json:"providerId" yaml:"providerId" gorm:"index;size:64"`
	SubcategoryID string   `json:"subcategoryId,omitempty" yaml:"subcategoryId,omitempty"`
	Title         string   `json:"title" yaml:"title"`
	PriceCents    int64    `json:"priceCents" yaml:"priceCents"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty" gorm:"serializer:json;type:text"`
}

func (s Service) Clone() Service {
	s.Tags = cloneStrings(s.Tags)
	return s
}

// LegacyCategory is a top-level category of the legacy catalog.
type LegacyCategory struct {
	ID   string `json:"id" yaml:"id" gorm:"primaryKey;size:64"`
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug,omitempty" yaml:"slug,omitempty"`
}

func (LegacyCategory) TableName() string { return "categories" }

// LegacySubcategory belongs to a LegacyCategory.
type LegacySubcategory struct {
	ID         string   `json:"id" yaml:"id" gorm:"primaryKey;size:64"`
	CategoryID string   `json:"categoryId" yaml:"categoryId" gorm:"index;size:64"`
	Name       string   `json:"name" yaml:"name"`
	Fields     []string `json:"fields,omitempty" yaml:"fields,omitempty" gorm:"serializer:json;type:text"`
}

func (LegacySubcategory) TableName() string { return "subcategories" }

func (s LegacySubcategory) Clone() LegacySubcategory {
	s.Fields = cloneStrings(s.Fields)
	return s
}

// LegacyDataset is everything the freezer captures from the current system.
type LegacyDataset struct {
	Providers     []Provider          `json:"providers" yaml:"providers"`
	Services      []Service           `json:"services" yaml:"services"`
	Categories    []LegacyCategory    `json:"categories" yaml:"categories"`
	Subcategories []LegacySubcategory `json:"subcategories" yaml:"subcategories"`
}

// Clone returns a deep copy sharing no slices or maps with d.
func (d LegacyDataset) Clone() LegacyDataset {
	out := LegacyDataset{
		Providers:     make([]Provider, len(d.Providers)),
		Services:      make([]Service, len(d.Services)),
		Categories:    make([]LegacyCategory, len(d.Categories)),
		Subcategories: make([]LegacySubcategory, len(d.Subcategories)),
	}
	for i, p := range d.Providers {
		out.Providers[i] = p.Clone()
	}
	for i, s := range d.Services {
		out.Services[i] = s.Clone()
	}
	copy(out.Categories, d.Categories)
	for i, s := range d.Subcategories {
		out.Subcategories[i] = s.Clone()
	}
	return out
}

// SnapshotMetadata summarises a snapshot.
type SnapshotMetadata struct {
	TotalProviders     int    `json:"totalProviders"`
	TotalServices      int    `json:"totalServices"`
	TotalCategories    int    `json:"totalCategories"`
	TotalSubcategories int    `json:"totalSubcategories"`
	FrozenBy           string `json:"frozenBy"`
	Reason             string `json:"reason"`
}

// Snapshot is an immutable copy of the legacy dataset.
type Snapshot struct {
	ID          string           `json:"id"`
	FreezeDate  time.Time        `json:"freezeDate"`
	Description string           `json:"description"`
	Data        LegacyDataset    `json:"data"`
	Metadata    SnapshotMetadata `json:"metadata"`
}

func (s Snapshot) Clone() Snapshot {
	s.Data = s.Data.Clone()
	return s
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
