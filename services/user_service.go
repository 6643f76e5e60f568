package services

import (
	"errors"
	"strings"

	"backend/models"

	"gorm.io/gorm"
)

type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

type ProfileInput struct {
	Name               string   `json:"name"`
	HouseholdSize      int      `json:"household_size" binding:"omitempty,min=1"`
	DietaryPreferences []string `json:"dietary_preferences"`
	BudgetRange        string   `json:"budget_range" binding:"omitempty,oneof=Low Medium High"`
	Location           string   `json:"location"`
}

func (s *UserService) Get(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ? AND disabled = ?", userID, false).First(&user).Error; err != nil {
		return nil, errors.New("user not found or disabled")
	}
	return &user, nil
}

func (s *UserService) Profile(userID uint) (map[string]interface{}, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":                  user.ID,
		"name":                user.Name,
		"email":               user.Email,
		"household_size":      user.HouseholdSize,
		"dietary_preferences": user.PreferenceList(),
		"budget_range":        user.BudgetRange,
		"location":            user.Location,
		"impact_score":        user.ImpactScore,
	}, nil
}

func (s *UserService) UpdateProfile(userID uint, in ProfileInput) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.HouseholdSize > 0 {
		user.HouseholdSize = in.HouseholdSize
	}
	if in.DietaryPreferences != nil {
		user.DietaryPreferences = strings.Join(in.DietaryPreferences, ",")
	}
	if in.BudgetRange != "" {
		user.BudgetRange = in.BudgetRange
	}
	if in.Location != "" {
		user.Location = in.Location
	}

	return s.db.Save(user).Error
}
