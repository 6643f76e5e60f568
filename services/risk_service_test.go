package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRisk(t *testing.T, gw Gateway) (*RiskService, *gorm.DB, *models.User) {
	t.Helper()
	db := newTestDB(t)
	user := newTestUser(t, db, 1)
	return NewRiskService(db, gw, nil), db, user
}

func newItem(t *testing.T, db *gorm.DB, userID uint, name string, expiry time.Time) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		UserID:         userID,
		Name:           name,
		Categories:     "Dairy",
		Quantity:       1,
		Unit:           "liter",
		ExpirationDate: expiry,
		Status:         models.StatusActive,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func reloadItem(t *testing.T, db *gorm.DB, id uint) *models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, db.First(&item, id).Error)
	return &item
}

func TestRiskExpiredItemIsCriticalWithoutGateway(t *testing.T) {
	gw := &fakeGateway{enabled: true, reply: "{}"}
	svc, db, user := newRisk(t, gw)
	now := time.Now()
	item := newItem(t, db, user.ID, "Milk", now.AddDate(0, 0, -1))

	updated, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Zero(t, gw.calls, "rule-resolved items must not hit the gateway")

	got := reloadItem(t, db, item.ID)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 95, *got.RiskScore)
	assert.Equal(t, models.RiskCritical, got.RiskLabel)
	assert.Equal(t, "Expired", got.RiskFactor)
	assert.NotNil(t, got.LastRiskAnalysis)
}

func TestRiskImminentExpiryIsExpiringSoon(t *testing.T) {
	svc, db, user := newRisk(t, &fakeGateway{})
	now := time.Now()
	item := newItem(t, db, user.ID, "Yogurt", now.Add(26*time.Hour)) // 2 days by ceiling

	_, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)

	got := reloadItem(t, db, item.ID)
	assert.Equal(t, models.RiskCritical, got.RiskLabel)
	assert.Equal(t, "Expiring Soon", got.RiskFactor)
}

func TestRiskDistantExpiryIsSafeWithoutGateway(t *testing.T) {
	gw := &fakeGateway{enabled: true, reply: "{}"}
	svc, db, user := newRisk(t, gw)
	now := time.Now()
	item := newItem(t, db, user.ID, "Rice", now.AddDate(0, 0, 20))

	_, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Zero(t, gw.calls)

	got := reloadItem(t, db, item.ID)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 10, *got.RiskScore)
	assert.Equal(t, models.RiskSafe, got.RiskLabel)
	assert.Equal(t, "Long Shelf Life", got.RiskFactor)
}

func TestRiskGreyZoneUsesGatewayVerdict(t *testing.T) {
	svc, db, user := newRisk(t, nil) // gateway injected after item id is known
	now := time.Now()
	item := newItem(t, db, user.ID, "Cheese", now.AddDate(0, 0, 7))

	gw := &fakeGateway{
		enabled: true,
		reply:   fmt.Sprintf(`{"%d": {"score": 72, "label": "High", "factor": "Soft cheese spoils"}}`, item.ID),
	}
	svc.gateway = gw

	updated, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, gw.calls)

	got := reloadItem(t, db, item.ID)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 72, *got.RiskScore)
	assert.Equal(t, models.RiskHigh, got.RiskLabel)
	assert.Equal(t, "Soft cheese spoils", got.RiskFactor)
}

func TestRiskGreyZoneFallbackOnGatewayError(t *testing.T) {
	gw := &fakeGateway{enabled: true, err: errors.New("timeout")}
	svc, db, user := newRisk(t, gw)
	now := time.Now()
	item := newItem(t, db, user.ID, "Cheese", now.AddDate(0, 0, 7))

	updated, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err, "gateway failure must not abort the bulk write")
	assert.Equal(t, 1, updated)

	got := reloadItem(t, db, item.ID)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 50, *got.RiskScore)
	assert.Equal(t, models.RiskMedium, got.RiskLabel)
	assert.Equal(t, "Manual Review", got.RiskFactor)
}

func TestRiskGreyZoneFallbackOnUnparsableResponse(t *testing.T) {
	gw := &fakeGateway{enabled: true, reply: "I think it's fine?"}
	svc, db, user := newRisk(t, gw)
	now := time.Now()
	item := newItem(t, db, user.ID, "Cheese", now.AddDate(0, 0, 5))

	_, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)

	got := reloadItem(t, db, item.ID)
	require.NotNil(t, got.RiskScore, "every eligible item must end the run scored")
	assert.Equal(t, models.RiskMedium, got.RiskLabel)
}

func TestRiskMalformedPerItemEntryDefaults(t *testing.T) {
	svc, db, user := newRisk(t, nil)
	now := time.Now()
	item := newItem(t, db, user.ID, "Cheese", now.AddDate(0, 0, 7))

	// score out of range and bogus label: both replaced by defaults
	svc.gateway = &fakeGateway{
		enabled: true,
		reply:   fmt.Sprintf(`{"%d": {"score": 400, "label": "Radioactive", "factor": "Trust me"}}`, item.ID),
	}

	_, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)

	got := reloadItem(t, db, item.ID)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 50, *got.RiskScore)
	assert.Equal(t, models.RiskMedium, got.RiskLabel)
	assert.Equal(t, "Trust me", got.RiskFactor)
}

func TestRiskSkipsFreshAndInactiveItems(t *testing.T) {
	gw := &fakeGateway{enabled: true, reply: "{}"}
	svc, db, user := newRisk(t, gw)
	now := time.Now()

	fresh := newItem(t, db, user.ID, "Scored recently", now.AddDate(0, 0, 7))
	recently := now.Add(-1 * time.Hour)
	require.NoError(t, db.Model(fresh).Update("last_risk_analysis", recently).Error)

	consumed := newItem(t, db, user.ID, "Already consumed", now.AddDate(0, 0, 7))
	require.NoError(t, db.Model(consumed).Updates(map[string]any{
		"status": models.StatusConsumed, "quantity": 0,
	}).Error)

	updated, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Zero(t, updated, "no update needed")
	assert.Zero(t, gw.calls)
}

func TestRiskBatchIsBoundedToTwenty(t *testing.T) {
	svc, db, user := newRisk(t, &fakeGateway{})
	now := time.Now()
	for i := 0; i < 25; i++ {
		newItem(t, db, user.ID, fmt.Sprintf("Item %d", i), now.AddDate(0, 0, -1))
	}

	updated, err := svc.AnalyzeInventory(context.Background(), user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 20, updated)
}

func TestSeason(t *testing.T) {
	assert.Equal(t, "Summer", season(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Summer", season(time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Cooler/Winter", season(time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Cooler/Winter", season(time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC)))
}

func TestDaysUntilCeiling(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, daysUntil(now.Add(1*time.Hour), now))
	assert.Equal(t, 2, daysUntil(now.Add(25*time.Hour), now))
	assert.Equal(t, 0, daysUntil(now, now))
	assert.Equal(t, -1, daysUntil(now.Add(-25*time.Hour), now))
}
