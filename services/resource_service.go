package services

import (
	"context"

	"backend/models"

	"gorm.io/gorm"
)

type ResourceService struct{ db *gorm.DB }

func NewResourceService(db *gorm.DB) *ResourceService {
	return &ResourceService{db: db}
}

func (s *ResourceService) List(ctx context.Context, category string) ([]models.Resource, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var resources []models.Resource
	err := q.Find(&resources).Error
	return resources, err
}
