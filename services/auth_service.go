package services

import (
	"errors"

	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
)

type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

type RegisterInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	HouseholdSize int    `json:"household_size" binding:"omitempty,min=1"`
	Location      string `json:"location"`
	BudgetRange   string `json:"budget_range" binding:"omitempty,oneof=Low Medium High"`
}

func (s *AuthService) Register(in RegisterInput) (*models.User, error) {
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	if in.HouseholdSize < 1 {
		in.HouseholdSize = 1
	}
	if in.BudgetRange == "" {
		in.BudgetRange = "Medium"
	}

	user := &models.User{
		Name:          in.Name,
		Email:         in.Email,
		Password:      hashed,
		HouseholdSize: in.HouseholdSize,
		Location:      in.Location,
		BudgetRange:   in.BudgetRange,
		ImpactScore:   50, // neutral starting score
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Authenticate(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ? AND disabled = ?", email, false).First(&user).Error; err != nil {
		return "", errors.New("user not found or disabled")
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", errors.New("incorrect password")
	}

	return utils.GenerateJWT(user.ID, user.Email)
}
