package services

import (
	"testing"

	"backend/models"
	"backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHashesPasswordAndDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, err := svc.Register(RegisterInput{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", user.Password)
	assert.True(t, utils.CheckPasswordHash("secret-pass", user.Password))
	assert.Equal(t, 1, user.HouseholdSize)
	assert.Equal(t, "Medium", user.BudgetRange)
	assert.Equal(t, 50, user.ImpactScore)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	in := RegisterInput{Name: "A", Email: "dup@example.com", Password: "secret-pass"}
	_, err := svc.Register(in)
	require.NoError(t, err)
	_, err = svc.Register(in)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, err := svc.Register(RegisterInput{
		Name: "A", Email: "login@example.com", Password: "secret-pass",
	})
	require.NoError(t, err)

	token, err := svc.Authenticate("login@example.com", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Authenticate("login@example.com", "wrong")
	assert.Error(t, err)
	_, err = svc.Authenticate("nobody@example.com", "secret-pass")
	assert.Error(t, err)
}

func TestAuthenticateRejectsDisabledAccount(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, err := svc.Register(RegisterInput{
		Name: "A", Email: "off@example.com", Password: "secret-pass",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("disabled", true).Error)

	_, err = svc.Authenticate("off@example.com", "secret-pass")
	assert.Error(t, err)
}
