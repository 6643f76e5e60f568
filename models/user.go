package models

import (
	"strings"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name               string `gorm:"not null"`
	Email              string `gorm:"uniqueIndex;not null"`
	Password           string `gorm:"not null"`
	HouseholdSize      int    `gorm:"default:1"`
	DietaryPreferences string // comma-sep, e.g. "vegetarian,low-sodium"
	BudgetRange        string `gorm:"size:16;default:Medium"` // "Low" | "Medium" | "High"
	Location           string
	ImpactScore        int `gorm:"default:50"` // derived 0–100, overwritten on every dashboard read
	Disabled           bool
}

// PreferenceList splits the stored comma-joined preferences.
func (u *User) PreferenceList() []string {
	if strings.TrimSpace(u.DietaryPreferences) == "" {
		return nil
	}
	parts := strings.Split(u.DietaryPreferences, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
