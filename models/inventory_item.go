package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Inventory status is terminal once quantity hits zero.
const (
	StatusActive   = "ACTIVE"
	StatusConsumed = "CONSUMED"
	StatusWasted   = "WASTED"
)

// Risk labels assigned by the spoilage classifier.
const (
	RiskSafe     = "Safe"
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

type InventoryItem struct {
	gorm.Model
	UserID         uint   `gorm:"index;not null"`
	Name           string `gorm:"not null"`
	Categories     string // comma-sep; first entry is the attribution category
	Quantity       float64
	Unit           string `gorm:"size:32"`
	ExpirationDate time.Time
	CostPerUnit    float64
	Status         string `gorm:"size:16;index;default:ACTIVE"`

	// Risk fields are written asynchronously by the classifier,
	// independent of quantity changes.
	RiskScore        *int
	RiskLabel        string `gorm:"size:16"`
	RiskFactor       string `gorm:"size:64"`
	LastRiskAnalysis *time.Time
}

// PrimaryCategory returns the first category, the only one analytics
// attributes to. Multi-category items are under-attributed on purpose;
// changing this changes historical analytics.
func (i *InventoryItem) PrimaryCategory() string {
	if i.Categories == "" {
		return ""
	}
	first := strings.SplitN(i.Categories, ",", 2)[0]
	return strings.TrimSpace(first)
}

func (i *InventoryItem) TotalCost() float64 {
	return i.Quantity * i.CostPerUnit
}
