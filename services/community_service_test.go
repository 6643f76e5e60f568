package services

import (
	"context"
	"testing"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommunity(t *testing.T) (*CommunityService, *gorm.DB, *models.User, *models.User) {
	t.Helper()
	db := newTestDB(t)
	owner := newTestUser(t, db, 1)
	claimer := &models.User{
		Name: "Neighbour", Email: "neighbour@example.com", Password: "x", HouseholdSize: 2,
	}
	require.NoError(t, db.Create(claimer).Error)
	return NewCommunityService(db, nil), db, owner, claimer
}

func TestCreateListingGetsPickupCode(t *testing.T) {
	svc, _, owner, _ := newCommunity(t)

	listing, err := svc.Create(context.Background(), owner.ID, ListingInput{
		ItemName: "Bananas", Quantity: 6, Unit: "piece", Location: "Dhaka",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListingOpen, listing.Status)
	assert.Len(t, listing.PickupCode, 6)
}

func TestFeedStripsPickupCodes(t *testing.T) {
	svc, _, owner, _ := newCommunity(t)
	_, err := svc.Create(context.Background(), owner.ID, ListingInput{
		ItemName: "Bananas", Quantity: 6, Unit: "piece",
	})
	require.NoError(t, err)

	feed, err := svc.Feed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Empty(t, feed[0].PickupCode)
}

func TestClaimRevealsCodeToFirstClaimerOnly(t *testing.T) {
	svc, db, owner, claimer := newCommunity(t)
	created, err := svc.Create(context.Background(), owner.ID, ListingInput{
		ItemName: "Bread", Quantity: 1, Unit: "pack",
	})
	require.NoError(t, err)

	claimed, err := svc.Claim(context.Background(), claimer.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingClaimed, claimed.Status)
	assert.Equal(t, created.PickupCode, claimed.PickupCode)
	require.NotNil(t, claimed.ClaimedBy)
	assert.Equal(t, claimer.ID, *claimed.ClaimedBy)

	second := &models.User{
		Name: "Late", Email: "late@example.com", Password: "x", HouseholdSize: 1,
	}
	require.NoError(t, db.Create(second).Error)

	_, err = svc.Claim(context.Background(), second.ID, created.ID)
	assert.ErrorIs(t, err, ErrListingUnavailable)

	var got models.CommunityListing
	require.NoError(t, db.First(&got, created.ID).Error)
	require.NotNil(t, got.ClaimedBy)
	assert.Equal(t, claimer.ID, *got.ClaimedBy, "a losing claim must not overwrite the winner")
}

func TestClaimLosesWhenStatusFlipsAfterRead(t *testing.T) {
	svc, db, owner, claimer := newCommunity(t)
	created, err := svc.Create(context.Background(), owner.ID, ListingInput{
		ItemName: "Bread", Quantity: 1, Unit: "pack",
	})
	require.NoError(t, err)

	// another claimer's write lands between this caller's read and its
	// conditional update; the OPEN guard must reject the update
	require.NoError(t, db.Model(&models.CommunityListing{}).
		Where("id = ?", created.ID).
		Update("status", models.ListingClaimed).Error)

	_, err = svc.Claim(context.Background(), claimer.ID, created.ID)
	assert.ErrorIs(t, err, ErrListingUnavailable)
}

func TestClaimOwnListingRejected(t *testing.T) {
	svc, _, owner, _ := newCommunity(t)
	created, err := svc.Create(context.Background(), owner.ID, ListingInput{
		ItemName: "Bread", Quantity: 1, Unit: "pack",
	})
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), owner.ID, created.ID)
	assert.Error(t, err)
}

func TestCloseOnlyByOwner(t *testing.T) {
	svc, db, owner, claimer := newCommunity(t)
	created, err := svc.Create(context.Background(), owner.ID, ListingInput{
		ItemName: "Bread", Quantity: 1, Unit: "pack",
	})
	require.NoError(t, err)

	err = svc.Close(context.Background(), claimer.ID, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, svc.Close(context.Background(), owner.ID, created.ID))
	var got models.CommunityListing
	require.NoError(t, db.First(&got, created.ID).Error)
	assert.Equal(t, models.ListingClosed, got.Status)
}
