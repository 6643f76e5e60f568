package services

import (
	"context"
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newInventory(t *testing.T) (*InventoryService, *gorm.DB, *models.User) {
	t.Helper()
	db := newTestDB(t)
	user := newTestUser(t, db, 1)
	return NewInventoryService(db), db, user
}

func ledger(t *testing.T, db *gorm.DB, userID uint) []models.ActionLog {
	t.Helper()
	var entries []models.ActionLog
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&entries).Error)
	return entries
}

func TestAddLogsSnapshotWithFirstCategory(t *testing.T) {
	svc, db, user := newInventory(t)

	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name:           "Spinach",
		Categories:     "Vegetable, Leafy",
		Quantity:       2,
		Unit:           "pack",
		ExpirationDate: time.Now().AddDate(0, 0, 4),
		CostPerUnit:    30,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, item.Status)

	entries := ledger(t, db, user.ID)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, models.ActionAdd, e.ActionType)
	assert.Equal(t, "Vegetable", e.Category)
	assert.Equal(t, 60.0, e.Cost)
	assert.Equal(t, 2.0, e.QuantityChanged)
	require.NotNil(t, e.InventoryID)
	assert.Equal(t, item.ID, *e.InventoryID)
}

func TestDepletePartialKeepsItemActive(t *testing.T) {
	svc, _, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Rice", Categories: "Grain", Quantity: 5, Unit: "kilogram", CostPerUnit: 2,
	})
	require.NoError(t, err)

	got, err := svc.Deplete(context.Background(), user.ID, item.ID, 2, models.ActionConsume, "dinner")
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Quantity)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestDepleteToZeroFlipsTerminalStatus(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Milk", Categories: "Dairy", Quantity: 1, Unit: "liter", CostPerUnit: 1.5,
	})
	require.NoError(t, err)

	got, err := svc.Deplete(context.Background(), user.ID, item.ID, 1, models.ActionWaste, "spoiled")
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)
	assert.Equal(t, models.StatusWasted, got.Status)

	entries := ledger(t, db, user.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionWaste, entries[1].ActionType)
	assert.Equal(t, 1.5, entries[1].Cost)
}

func TestDepleteClampsToRemainingQuantity(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Eggs", Categories: "Dairy", Quantity: 6, Unit: "piece", CostPerUnit: 0.5,
	})
	require.NoError(t, err)

	got, err := svc.Deplete(context.Background(), user.ID, item.ID, 10, models.ActionConsume, "omelette")
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)
	assert.Equal(t, models.StatusConsumed, got.Status)

	entries := ledger(t, db, user.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, 6.0, entries[1].QuantityChanged, "ledger records what was actually depleted")
	assert.Equal(t, 3.0, entries[1].Cost)
}

func TestDepleteRejectsTerminalItem(t *testing.T) {
	svc, _, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Milk", Categories: "Dairy", Quantity: 1, Unit: "liter",
	})
	require.NoError(t, err)

	_, err = svc.Deplete(context.Background(), user.ID, item.ID, 1, models.ActionConsume, "")
	require.NoError(t, err)

	_, err = svc.Deplete(context.Background(), user.ID, item.ID, 1, models.ActionConsume, "")
	assert.ErrorIs(t, err, ErrItemTerminal)
}

func TestDepleteRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Milk", Categories: "Dairy", Quantity: 1, Unit: "liter",
	})
	require.NoError(t, err)

	_, err = svc.Deplete(context.Background(), user.ID, item.ID, 0, models.ActionConsume, "")
	assert.ErrorIs(t, err, ErrBadQuantity)
	_, err = svc.Deplete(context.Background(), user.ID, item.ID, -2, models.ActionWaste, "")
	assert.ErrorIs(t, err, ErrBadQuantity)
}

func TestUpdateQuantityDeltaLoggedAsAdd(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Flour", Categories: "Grain", Quantity: 2, Unit: "kilogram", CostPerUnit: 1,
	})
	require.NoError(t, err)

	newQty := 5.0
	got, err := svc.Update(context.Background(), user.ID, item.ID, InventoryUpdate{Quantity: &newQty})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Quantity)

	entries := ledger(t, db, user.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionAdd, entries[1].ActionType)
	assert.Equal(t, 3.0, entries[1].QuantityChanged)
	assert.Equal(t, "manual edit", entries[1].Reason)
}

func TestUpdateWithoutQuantityChangeLogsNothing(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Flour", Categories: "Grain", Quantity: 2, Unit: "kilogram",
	})
	require.NoError(t, err)

	name := "Whole wheat flour"
	_, err = svc.Update(context.Background(), user.ID, item.ID, InventoryUpdate{Name: &name})
	require.NoError(t, err)

	assert.Len(t, ledger(t, db, user.ID), 1) // just the original ADD
}

func TestDeleteLeavesLedgerIntact(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Bread", Categories: "Grain", Quantity: 1, Unit: "piece", CostPerUnit: 2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID, item.ID))

	_, err = svc.Get(context.Background(), user.ID, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	entries := ledger(t, db, user.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionDelete, entries[1].ActionType)
	require.NotNil(t, entries[1].InventoryID)
	assert.Equal(t, item.ID, *entries[1].InventoryID)
}

func TestDepleteRollsBackWhenLedgerWriteFails(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Milk", Categories: "Dairy", Quantity: 2, Unit: "liter", CostPerUnit: 1,
	})
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.ActionLog{}))

	_, err = svc.Deplete(context.Background(), user.ID, item.ID, 1, models.ActionConsume, "")
	require.Error(t, err)

	got, err := svc.Get(context.Background(), user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Quantity, "row change must not outlive a failed ledger write")
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestDeleteRollsBackWhenLedgerWriteFails(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Milk", Categories: "Dairy", Quantity: 1, Unit: "liter",
	})
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.ActionLog{}))

	require.Error(t, svc.Delete(context.Background(), user.ID, item.ID))

	_, err = svc.Get(context.Background(), user.ID, item.ID)
	assert.NoError(t, err, "item must survive when its DELETE entry cannot be written")
}

func TestUpdateRollsBackWhenLedgerWriteFails(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Flour", Categories: "Grain", Quantity: 2, Unit: "kilogram",
	})
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.ActionLog{}))

	newQty := 5.0
	_, err = svc.Update(context.Background(), user.ID, item.ID, InventoryUpdate{Quantity: &newQty})
	require.Error(t, err)

	got, err := svc.Get(context.Background(), user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Quantity)
}

func TestGetIsScopedToOwner(t *testing.T) {
	svc, db, user := newInventory(t)
	item, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Bread", Categories: "Grain", Quantity: 1, Unit: "piece",
	})
	require.NoError(t, err)

	other := &models.User{
		Name: "Other", Email: "other@example.com", Password: "x", HouseholdSize: 1,
	}
	require.NoError(t, db.Create(other).Error)

	_, err = svc.Get(context.Background(), other.ID, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, user := newInventory(t)
	a, err := svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Milk", Categories: "Dairy", Quantity: 1, Unit: "liter",
	})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), user.ID, InventoryInput{
		Name: "Rice", Categories: "Grain", Quantity: 2, Unit: "kilogram",
	})
	require.NoError(t, err)

	_, err = svc.Deplete(context.Background(), user.ID, a.ID, 1, models.ActionConsume, "")
	require.NoError(t, err)

	active, err := svc.List(context.Background(), user.ID, models.StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Rice", active[0].Name)

	all, err := svc.List(context.Background(), user.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
