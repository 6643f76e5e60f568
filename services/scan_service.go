package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"backend/models"
	"backend/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScanService converts a receipt or pantry photo into draft inventory
// items: Rekognition supplies coarse labels as hints, the gateway's
// vision model does the actual extraction, and the food catalog fills in
// defaults the model left out.
type ScanService struct {
	db      *gorm.DB
	rek     *rekognition.Client // nil when AWS is not configured
	gateway Gateway
}

func NewScanService(db *gorm.DB, gateway Gateway) (*ScanService, error) {
	s := &ScanService{db: db, gateway: gateway}

	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(region))
		if err != nil {
			return nil, err
		}
		s.rek = rekognition.NewFromConfig(cfg)
	}
	return s, nil
}

// DraftItem is an extracted inventory candidate awaiting user confirmation.
type DraftItem struct {
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Quantity       float64   `json:"quantity"`
	Unit           string    `json:"unit"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// ScanImage takes a data-URI image and returns draft items. Rekognition
// failures only lose the hint labels; a gateway failure fails the scan,
// since there is nothing sensible to extract without it.
func (s *ScanService) ScanImage(ctx context.Context, base64Img string) ([]DraftItem, error) {
	if s.gateway == nil || !s.gateway.Enabled() {
		return nil, fmt.Errorf("image scanning requires the AI service to be configured")
	}

	imageData, _, err := utils.DecodeDataURI(base64Img)
	if err != nil {
		return nil, err
	}

	labels := s.detectLabels(ctx, imageData)

	hint := "none"
	if len(labels) > 0 {
		hint = strings.Join(labels, ", ")
	}
	prompt := fmt.Sprintf(`This photo shows groceries or a shopping receipt. An image classifier saw: %s.
Extract every distinct food item with an estimated quantity.
Respond with ONLY a JSON array:
[{"name": "...", "category": "Grain|Vegetable|Fruit|Dairy|Meat|Seafood|Legume|Bakery|Snack|Beverage|Other", "quantity": 1.0, "unit": "kilogram|gram|liter|milliliter|piece", "shelf_life_days": 7}]`, hint)

	raw, err := s.gateway.Generate(ctx, prompt, imageData)
	if err != nil {
		return nil, fmt.Errorf("image scan failed: %w", err)
	}

	var parsed []struct {
		Name          string  `json:"name"`
		Category      string  `json:"category"`
		Quantity      float64 `json:"quantity"`
		Unit          string  `json:"unit"`
		ShelfLifeDays int     `json:"shelf_life_days"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("scan response unparsable: %w", err)
	}

	now := time.Now()
	drafts := make([]DraftItem, 0, len(parsed))
	for _, p := range parsed {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		d := DraftItem{
			Name:     p.Name,
			Category: p.Category,
			Quantity: p.Quantity,
			Unit:     p.Unit,
		}
		if d.Quantity <= 0 {
			d.Quantity = 1
		}

		shelf := p.ShelfLifeDays
		if cat, err := s.catalogLookup(ctx, p.Name); err == nil {
			if d.Category == "" || d.Category == "Other" {
				d.Category = cat.Category
			}
			if d.Unit == "" {
				d.Unit = cat.DefaultUnit
			}
			if shelf <= 0 {
				shelf = cat.ShelfLifeDays
			}
		}
		if d.Unit == "" {
			d.Unit = "piece"
		}
		if shelf <= 0 {
			shelf = 7
		}
		d.ExpirationDate = now.AddDate(0, 0, shelf)
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("no food items found in image")
	}
	return drafts, nil
}

func (s *ScanService) detectLabels(ctx context.Context, imageData []byte) []string {
	if s.rek == nil {
		return nil
	}
	out, err := s.rek.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &rektypes.Image{Bytes: imageData},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		logrus.WithError(err).Warn("rekognition labels unavailable for scan")
		return nil
	}
	var labels []string
	for _, l := range out.Labels {
		if l.Name != nil {
			labels = append(labels, *l.Name)
		}
	}
	return labels
}

func (s *ScanService) catalogLookup(ctx context.Context, name string) (*models.FoodCatalogItem, error) {
	var item models.FoodCatalogItem
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SearchCatalog backs the add-item autocomplete.
func (s *ScanService) SearchCatalog(ctx context.Context, query string, limit int) ([]models.FoodCatalogItem, error) {
	if limit <= 0 {
		limit = 10
	}
	var items []models.FoodCatalogItem
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%").
		Limit(limit).
		Find(&items).Error
	return items, err
}
