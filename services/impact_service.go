package services

import (
	"context"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// ImpactService derives the gamification score and streak from the action
// log. The score is always recomputed from the full lifetime log — a pure
// function of history, never an incremental delta that could drift.
type ImpactService struct {
	db   *gorm.DB
	logs *ActionLogService
}

func NewImpactService(db *gorm.DB, logs *ActionLogService) *ImpactService {
	return &ImpactService{db: db, logs: logs}
}

// ComputeImpactScore maps lifetime consume/waste counts onto [0,100].
func ComputeImpactScore(consumeCount, wasteCount int64) int {
	score := 50 + 2*consumeCount - 5*wasteCount
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// Recompute overwrites the user's persisted score from the full log and
// returns the new value. Concurrent recomputes are redundant but not
// incorrect: identical input history yields identical output.
func (s *ImpactService) Recompute(ctx context.Context, userID uint) (int, error) {
	consume, waste, err := s.logs.LifetimeCounts(ctx, userID)
	if err != nil {
		return 0, err
	}
	score := ComputeImpactScore(consume, waste)
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("impact_score", score).Error; err != nil {
		return 0, err
	}
	return score, nil
}

// Streak counts consecutive calendar days with at least one log entry,
// walking back day by day. The run must reach today or yesterday to count.
func (s *ImpactService) Streak(ctx context.Context, userID uint, now time.Time) (int, error) {
	days, err := s.logs.ActiveDays(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}

	day := dayStart(now)
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
		if !days[day.Format("2006-01-02")] {
			return 0, nil
		}
	}

	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

type LeaderboardEntry struct {
	UserID      uint   `json:"user_id"`
	Name        string `json:"name"`
	ImpactScore int    `json:"impact_score"`
}

// Leaderboard returns the top scorers plus the caller's rank, where rank
// is 1 + the number of users with a strictly greater score.
func (s *ImpactService) Leaderboard(ctx context.Context, userID uint, limit int) ([]LeaderboardEntry, int, error) {
	if limit <= 0 {
		limit = 10
	}

	var top []LeaderboardEntry
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id AS user_id, name, impact_score").
		Where("disabled = ?", false).
		Order("impact_score DESC, id ASC").
		Limit(limit).
		Scan(&top).Error; err != nil {
		return nil, 0, err
	}

	var me models.User
	if err := s.db.WithContext(ctx).First(&me, userID).Error; err != nil {
		return nil, 0, err
	}
	var above int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("disabled = ? AND impact_score > ?", false, me.ImpactScore).
		Count(&above).Error; err != nil {
		return nil, 0, err
	}

	return top, int(above) + 1, nil
}
