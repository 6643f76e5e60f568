package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"backend/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// riskBatchSize bounds how many stale items one invocation scores, which
// in turn bounds the inference prompt size and latency.
const riskBatchSize = 20

// riskStaleAfter is how long a score stays fresh.
const riskStaleAfter = 24 * time.Hour

// RiskService assigns spoilage risk to inventory items: obvious cases by
// rule, the grey zone by one batched gateway call.
type RiskService struct {
	db      *gorm.DB
	gateway Gateway
	alerts  *AlertBus // may be nil
}

func NewRiskService(db *gorm.DB, gateway Gateway, alerts *AlertBus) *RiskService {
	return &RiskService{db: db, gateway: gateway, alerts: alerts}
}

type riskVerdict struct {
	Score  int
	Label  string
	Factor string
}

// AnalyzeInventory re-scores up to riskBatchSize of the user's active,
// quantity-positive items that were never scored or are >24h stale. It
// returns how many items were updated; zero candidates means zero gateway
// calls. Every eligible item ends the run scored — gateway failures fall
// back to a deterministic Medium verdict, never to an unscored item.
func (s *RiskService) AnalyzeInventory(ctx context.Context, userID uint, now time.Time) (int, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return 0, err
	}

	stale := now.Add(-riskStaleAfter)
	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND quantity > 0", userID, models.StatusActive).
		Where("last_risk_analysis IS NULL OR last_risk_analysis < ?", stale).
		Order("expiration_date ASC").
		Limit(riskBatchSize).
		Find(&items).Error; err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	verdicts := make(map[uint]riskVerdict, len(items))
	var greyZone []models.InventoryItem

	for _, item := range items {
		daysLeft := daysUntil(item.ExpirationDate, now)
		switch {
		case daysLeft <= 2:
			factor := "Expiring Soon"
			if daysLeft < 0 {
				factor = "Expired"
			}
			verdicts[item.ID] = riskVerdict{Score: 95, Label: models.RiskCritical, Factor: factor}
		case daysLeft > 14:
			verdicts[item.ID] = riskVerdict{Score: 10, Label: models.RiskSafe, Factor: "Long Shelf Life"}
		default:
			greyZone = append(greyZone, item)
		}
	}

	if len(greyZone) > 0 {
		for id, v := range s.classifyGreyZone(ctx, &user, greyZone, now) {
			verdicts[id] = v
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			v := verdicts[item.ID]
			score := v.Score
			if err := tx.Model(&models.InventoryItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]any{
					"risk_score":         score,
					"risk_label":         v.Label,
					"risk_factor":        v.Factor,
					"last_risk_analysis": now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.alerts != nil {
		for _, item := range items {
			v := verdicts[item.ID]
			if v.Label == models.RiskCritical && item.RiskLabel != models.RiskCritical {
				s.alerts.Emit(userID, "warning",
					fmt.Sprintf("%s is at critical spoilage risk (%s). Use or share it today.", item.Name, v.Factor))
			}
		}
	}

	return len(items), nil
}

// classifyGreyZone asks the gateway to judge items whose expiry is neither
// imminent nor comfortably distant. The whole batch shares one call; any
// failure degrades every grey-zone item to the manual-review verdict.
func (s *RiskService) classifyGreyZone(ctx context.Context, user *models.User, items []models.InventoryItem, now time.Time) map[uint]riskVerdict {
	verdicts := make(map[uint]riskVerdict, len(items))
	fallback := riskVerdict{Score: 50, Label: models.RiskMedium, Factor: "Manual Review"}
	for _, item := range items {
		verdicts[item.ID] = fallback
	}
	if s.gateway == nil || !s.gateway.Enabled() {
		return verdicts
	}

	var lines strings.Builder
	for _, item := range items {
		fmt.Fprintf(&lines, "- id=%d name=%q category=%q quantity=%.1f %s daysLeft=%d\n",
			item.ID, item.Name, item.PrimaryCategory(), item.Quantity, item.Unit,
			daysUntil(item.ExpirationDate, now))
	}

	location := user.Location
	if location == "" {
		location = "unknown"
	}
	prompt := fmt.Sprintf(`You are a food spoilage expert. Assess the spoilage risk of these pantry items:
%s
Context: household location %s, season %s. Perishables like dairy, seafood and fresh produce spoil faster than grains or canned goods. High quantity combined with few days left compounds risk.
Respond with ONLY a JSON object mapping each item id to its assessment:
{"<id>": {"score": 0-100, "label": "Safe|Low|Medium|High|Critical", "factor": "reason, max 4 words"}}`,
		lines.String(), location, season(now))

	raw, err := s.gateway.Generate(ctx, prompt, nil)
	if err != nil {
		logrus.WithError(err).Warn("grey-zone risk inference failed, using fallback scores")
		return verdicts
	}

	var parsed map[string]struct {
		Score  *int   `json:"score"`
		Label  string `json:"label"`
		Factor string `json:"factor"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		logrus.WithError(err).Warn("grey-zone risk response unparsable, using fallback scores")
		return verdicts
	}

	for _, item := range items {
		entry, ok := parsed[strconv.FormatUint(uint64(item.ID), 10)]
		if !ok {
			continue // keep fallback
		}
		v := riskVerdict{Score: 50, Label: models.RiskMedium, Factor: "Manual Review"}
		if entry.Score != nil && *entry.Score >= 0 && *entry.Score <= 100 {
			v.Score = *entry.Score
		}
		if validRiskLabel(entry.Label) {
			v.Label = entry.Label
		}
		if f := strings.TrimSpace(entry.Factor); f != "" {
			v.Factor = f
		}
		verdicts[item.ID] = v
	}
	return verdicts
}

func validRiskLabel(label string) bool {
	switch label {
	case models.RiskSafe, models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
		return true
	}
	return false
}

// daysUntil is a ceiling day count: an item expiring in 1 hour has 1 day
// left, one that expired an hour ago has 0 or less.
func daysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// season is the coarse hint passed to the classifier: June through
// September reads as Summer, everything else as the cooler half.
func season(t time.Time) string {
	m := t.Month()
	if m >= time.June && m <= time.September {
		return "Summer"
	}
	return "Cooler/Winter"
}
