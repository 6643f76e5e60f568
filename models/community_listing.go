package models

import "gorm.io/gorm"

// Listing lifecycle for the community sharing feed.
const (
	ListingOpen    = "OPEN"
	ListingClaimed = "CLAIMED"
	ListingClosed  = "CLOSED"
)

type CommunityListing struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null"`
	ItemName   string `gorm:"not null"`
	Quantity   float64
	Unit       string `gorm:"size:32"`
	Location   string
	PhotoURL   string
	PickupCode string `gorm:"size:16"` // shared with the claimer only
	Status     string `gorm:"size:16;index;default:OPEN"`
	ClaimedBy  *uint
}
