package services

import (
	"context"
	"errors"
	"fmt"

	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
)

var ErrListingUnavailable = errors.New("listing is no longer open")

// CommunityService runs the sharing board: surplus food offered to
// neighbours instead of being thrown out.
type CommunityService struct {
	db     *gorm.DB
	images *utils.ImageStore // nil when S3 is not configured
}

func NewCommunityService(db *gorm.DB, images *utils.ImageStore) *CommunityService {
	return &CommunityService{db: db, images: images}
}

type ListingInput struct {
	ItemName string  `json:"item_name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	Unit     string  `json:"unit" binding:"required"`
	Location string  `json:"location"`
	Photo    string  `json:"photo"` // optional data URI
}

func (s *CommunityService) Create(ctx context.Context, userID uint, in ListingInput) (*models.CommunityListing, error) {
	listing := &models.CommunityListing{
		UserID:     userID,
		ItemName:   in.ItemName,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
		Location:   in.Location,
		PickupCode: utils.GenerateRandomToken(6),
		Status:     models.ListingOpen,
	}

	if in.Photo != "" && s.images != nil {
		url, err := s.images.UploadListingPhoto(ctx, in.Photo, fmt.Sprintf("user-%d", userID))
		if err != nil {
			return nil, fmt.Errorf("photo upload failed: %w", err)
		}
		listing.PhotoURL = url
	}

	if err := s.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// Feed returns open listings, newest first. PickupCode is stripped — it
// is only revealed to the claimer.
func (s *CommunityService) Feed(ctx context.Context, limit int) ([]models.CommunityListing, error) {
	if limit <= 0 {
		limit = 25
	}
	var listings []models.CommunityListing
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ListingOpen).
		Order("created_at DESC").
		Limit(limit).
		Find(&listings).Error
	for i := range listings {
		listings[i].PickupCode = ""
	}
	return listings, err
}

// Claim marks an open listing as claimed and hands the claimer the
// pickup code. The status flip is one conditional update keyed on OPEN,
// so when two claimers race only the first write sticks; the loser sees
// zero rows affected. Claiming your own listing is rejected.
func (s *CommunityService) Claim(ctx context.Context, userID, listingID uint) (*models.CommunityListing, error) {
	var listing models.CommunityListing
	if err := s.db.WithContext(ctx).First(&listing, listingID).Error; err != nil {
		return nil, err
	}
	if listing.UserID == userID {
		return nil, errors.New("cannot claim your own listing")
	}

	res := s.db.WithContext(ctx).
		Model(&models.CommunityListing{}).
		Where("id = ? AND status = ?", listingID, models.ListingOpen).
		Updates(map[string]any{"status": models.ListingClaimed, "claimed_by": userID})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrListingUnavailable
	}

	listing.Status = models.ListingClaimed
	listing.ClaimedBy = &userID
	return &listing, nil
}

// Close ends a listing (picked up or withdrawn); only the owner can.
func (s *CommunityService) Close(ctx context.Context, userID, listingID uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.CommunityListing{}).
		Where("id = ? AND user_id = ?", listingID, userID).
		Update("status", models.ListingClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
