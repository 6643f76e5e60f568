package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"backend/models"

	"gorm.io/gorm"
)

// MealPlanService turns the active pantry into a multi-day plan that uses
// up the riskiest items first. Unlike analytics forecasts, a plan is
// something the user explicitly asked for, so a gateway failure surfaces
// as an error instead of a silent placeholder.
type MealPlanService struct {
	db      *gorm.DB
	gateway Gateway
}

func NewMealPlanService(db *gorm.DB, gateway Gateway) *MealPlanService {
	return &MealPlanService{db: db, gateway: gateway}
}

type PlannedMeal struct {
	Day         string   `json:"day"`
	Title       string   `json:"title"`
	UsesItems   []string `json:"uses_items"`
	PrepMinutes int      `json:"prep_minutes"`
	Note        string   `json:"note"`
}

type MealPlan struct {
	Meals        []PlannedMeal `json:"meals"`
	ShoppingList []string      `json:"shopping_list"`
}

func (s *MealPlanService) Generate(ctx context.Context, userID uint, days int) (*MealPlan, error) {
	if s.gateway == nil || !s.gateway.Enabled() {
		return nil, fmt.Errorf("meal planning requires the AI service to be configured")
	}
	if days < 1 || days > 7 {
		days = 3
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}

	var items []models.InventoryItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND quantity > 0", userID, models.StatusActive).
		Order("expiration_date ASC").
		Limit(40).
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("pantry is empty, nothing to plan with")
	}

	var pantry strings.Builder
	for _, it := range items {
		fmt.Fprintf(&pantry, "- %s (%.1f %s, category %s, risk %s)\n",
			it.Name, it.Quantity, it.Unit, it.PrimaryCategory(), orDefault(it.RiskLabel, "unscored"))
	}

	prefs := strings.Join(user.PreferenceList(), ", ")
	if prefs == "" {
		prefs = "none"
	}

	prompt := fmt.Sprintf(`Plan %d days of simple home meals for a household of %d. Prioritize pantry items at higher spoilage risk so nothing gets wasted.
Pantry:
%s
Dietary preferences: %s. Budget: %s.
Respond with ONLY a JSON object:
{"meals": [{"day": "Day 1", "title": "...", "uses_items": ["..."], "prep_minutes": 30, "note": "..."}], "shopping_list": ["only items NOT in the pantry"]}`,
		days, max(user.HouseholdSize, 1), pantry.String(), prefs, user.BudgetRange)

	raw, err := s.gateway.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("meal plan generation failed: %w", err)
	}

	var plan MealPlan
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &plan); err != nil {
		return nil, fmt.Errorf("meal plan response unparsable: %w", err)
	}
	if len(plan.Meals) == 0 {
		return nil, fmt.Errorf("meal plan response empty")
	}
	return &plan, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
