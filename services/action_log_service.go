package services

import (
	"context"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// ActionLogService owns the append-only ledger. Entries are immutable;
// there is no update or delete path on purpose.
type ActionLogService struct{ db *gorm.DB }

func NewActionLogService(db *gorm.DB) *ActionLogService {
	return &ActionLogService{db: db}
}

// Append records one inventory state change. Category is the item's first
// category only; cost and quantity are snapshots at the time of the action.
func (s *ActionLogService) Append(ctx context.Context, entry *models.ActionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// Window returns all entries with createdAt >= since. No upper bound:
// entries timestamped ahead of the clock are accepted, matching the
// analytics window semantics.
func (s *ActionLogService) Window(ctx context.Context, userID uint, since time.Time) ([]models.ActionLog, error) {
	var entries []models.ActionLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// LifetimeCounts returns CONSUME and WASTE event counts over the full log.
func (s *ActionLogService) LifetimeCounts(ctx context.Context, userID uint) (consume, waste int64, err error) {
	if err = s.db.WithContext(ctx).
		Model(&models.ActionLog{}).
		Where("user_id = ? AND action_type = ?", userID, models.ActionConsume).
		Count(&consume).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.WithContext(ctx).
		Model(&models.ActionLog{}).
		Where("user_id = ? AND action_type = ?", userID, models.ActionWaste).
		Count(&waste).Error; err != nil {
		return 0, 0, err
	}
	return consume, waste, nil
}

// ActiveDays returns the distinct set of calendar days (local time) that
// have at least one entry of any type; used by the streak computation.
func (s *ActionLogService) ActiveDays(ctx context.Context, userID uint) (map[string]bool, error) {
	var entries []models.ActionLog
	if err := s.db.WithContext(ctx).
		Select("created_at").
		Where("user_id = ?", userID).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	days := make(map[string]bool, len(entries))
	for _, e := range entries {
		days[e.CreatedAt.Local().Format("2006-01-02")] = true
	}
	return days, nil
}

// Recent returns the newest entries for the activity feed.
func (s *ActionLogService) Recent(ctx context.Context, userID uint, limit int) ([]models.ActionLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []models.ActionLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
