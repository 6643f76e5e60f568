package models

import "time"

// Action types recorded in the ledger.
const (
	ActionAdd     = "ADD"
	ActionConsume = "CONSUME"
	ActionWaste   = "WASTE"
	ActionDelete  = "DELETE"
)

// ActionLog is the append-only ledger of inventory state changes and the
// sole source of truth for analytics and the impact score. Rows are never
// updated or deleted; InventoryID is a weak back-reference that outlives
// the inventory row.
type ActionLog struct {
	ID              uint  `gorm:"primaryKey"`
	UserID          uint  `gorm:"index;not null"`
	InventoryID     *uint `gorm:"index"`
	ItemName        string
	Category        string // first-category snapshot at time of action
	Cost            float64
	ActionType      string `gorm:"size:16;index;not null"`
	QuantityChanged float64
	Unit            string `gorm:"size:32"`
	Reason          string
	CreatedAt       time.Time `gorm:"index"`
}
