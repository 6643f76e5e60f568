package services

import (
	"context"
	"fmt"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// AlertBus fans one alert out to the database, connected websocket
// clients and registered push devices. Realtime and push legs are
// best-effort.
type AlertBus struct {
	db   *gorm.DB
	rt   *RealtimeHub  // may be nil
	push *PushService  // may be nil
}

func NewAlertBus(db *gorm.DB, rt *RealtimeHub, push *PushService) *AlertBus {
	return &AlertBus{db: db, rt: rt, push: push}
}

func (b *AlertBus) Emit(userID uint, typ, message string) {
	a := &models.Alert{UserID: userID, Type: typ, Message: message, CreatedAt: time.Now()}
	_ = b.db.Create(a).Error

	if b.rt != nil {
		b.rt.Publish(userID, Event{Kind: "alert.created", Payload: a})
	}
	if b.push != nil {
		b.push.PushToUser(context.Background(), userID, PushNote{
			Title: "Eco-Loop alert",
			Body:  message,
			Kind:  typ,
			Ref:   fmt.Sprintf("%d", a.ID),
		})
	}
}

// RecentAlerts lists the latest alerts for the bell dropdown.
func (b *AlertBus) RecentAlerts(userID uint, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 20
	}
	var alerts []models.Alert
	err := b.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}
