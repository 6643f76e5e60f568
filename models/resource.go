package models

import "gorm.io/gorm"

// Resource is a curated link shown on the learn page (composting guides,
// food-bank directories, storage tips).
type Resource struct {
	gorm.Model
	Title       string `gorm:"not null"`
	URL         string `gorm:"not null"`
	Category    string
	Description string `gorm:"type:text"`
}
