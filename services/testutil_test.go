package services

import (
	"context"
	"fmt"
	"testing"

	"backend/config"
	"backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, household int) *models.User {
	t.Helper()
	user := &models.User{
		Name:          "Test User",
		Email:         fmt.Sprintf("%s@example.com", t.Name()),
		Password:      "irrelevant",
		HouseholdSize: household,
		Location:      "Dhaka",
		BudgetRange:   "Medium",
		ImpactScore:   50,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeGateway lets tests script the inference boundary.
type fakeGateway struct {
	enabled bool
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGateway) Enabled() bool { return f.enabled }

func (f *fakeGateway) Generate(_ context.Context, prompt string, _ []byte) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
