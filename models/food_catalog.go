package models

import "gorm.io/gorm"

// A catalog entry used to prefill scanned/added items with sensible defaults.
type FoodCatalogItem struct {
	gorm.Model
	Name          string `gorm:"uniqueIndex;not null"`
	Category      string
	DefaultUnit   string  `gorm:"size:32"`
	ShelfLifeDays int     // typical days until expiry from purchase
	CaloriesPerKg float64 // 0 means unknown
}
