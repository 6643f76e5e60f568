package models

import "time"

// Alert rows back the realtime feed; mostly spoilage warnings.
type Alert struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Type      string `gorm:"size:20"` // "warning" | "info"
	Message   string `gorm:"type:text"`
	CreatedAt time.Time
}
