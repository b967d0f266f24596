package model

// CustomField is an attribute a provider fills in for a subcategory listing.
type CustomField struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Subcategory of the replacement catalog.
type Subcategory struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Fields []CustomField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Category is a super-category of the replacement catalog.
type Category struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Subcategories []Subcategory `json:"subcategories,omitempty" yaml:"subcategories,omitempty"`
}

// Concept is a curated event concept shown to buyers.
type Concept struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	CategoryID string   `json:"categoryId,omitempty" yaml:"categoryId,omitempty"`
	EventTypes []string `json:"eventTypes,omitempty" yaml:"eventTypes,omitempty"`
}

// FeatureFlags are the UI/infrastructure capabilities of the replacement system.
type FeatureFlags struct {
	Wishlist               bool `json:"wishlist" yaml:"wishlist"`
	Comparison             bool `json:"comparison" yaml:"comparison"`
	ProviderIDVerification bool `json:"providerIdVerification" yaml:"providerIdVerification"`
	SMSVerification        bool `json:"smsVerification" yaml:"smsVerification"`
}

// Integration describes an external system the marketplace talks to.
type Integration struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"` // crm / payment / sms
	Implemented bool   `json:"implemented" yaml:"implemented"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Catalog is the authored configuration of the replacement system.
type Catalog struct {
	Categories    []Category           `json:"categories" yaml:"categories"`
	Concepts      []Concept            `json:"concepts" yaml:"concepts"`
	EventTypes    []string             `json:"eventTypes" yaml:"eventTypes"`
	Features      FeatureFlags         `json:"features" yaml:"features"`
	Integrations  []Integration        `json:"integrations" yaml:"integrations"`
	BusinessRules []BusinessRuleStatus `json:"businessRules" yaml:"businessRules"`
}
