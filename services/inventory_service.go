package services

import (
	"context"
	"errors"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

var (
	ErrItemTerminal = errors.New("item is already consumed or wasted")
	ErrBadQuantity  = errors.New("quantity must be positive")
)

// InventoryService is the only writer of inventory rows and therefore the
// only producer of action-log entries. Each mutation and its ledger entry
// share one transaction.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

type InventoryInput struct {
	Name           string    `json:"name" binding:"required"`
	Categories     string    `json:"categories"`
	Quantity       float64   `json:"quantity" binding:"required,gt=0"`
	Unit           string    `json:"unit" binding:"required,unit"`
	ExpirationDate time.Time `json:"expiration_date"`
	CostPerUnit    float64   `json:"cost_per_unit" binding:"gte=0"`
}

func (s *InventoryService) Add(ctx context.Context, userID uint, in InventoryInput) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		UserID:         userID,
		Name:           in.Name,
		Categories:     in.Categories,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		ExpirationDate: in.ExpirationDate,
		CostPerUnit:    in.CostPerUnit,
		Status:         models.StatusActive,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		id := item.ID
		return NewActionLogService(tx).Append(ctx, &models.ActionLog{
			UserID:          userID,
			InventoryID:     &id,
			ItemName:        item.Name,
			Category:        item.PrimaryCategory(),
			Cost:            in.Quantity * in.CostPerUnit,
			ActionType:      models.ActionAdd,
			QuantityChanged: in.Quantity,
			Unit:            in.Unit,
			Reason:          "added to pantry",
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) List(ctx context.Context, userID uint, status string) ([]models.InventoryItem, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []models.InventoryItem
	err := q.Order("expiration_date ASC").Find(&items).Error
	return items, err
}

func (s *InventoryService) Get(ctx context.Context, userID, itemID uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Deplete handles both consume and waste: reduce quantity, flip to the
// terminal status at zero, append the matching ledger entry. Depleting
// more than remains is clamped to what remains. Row change and ledger
// entry commit together or not at all.
func (s *InventoryService) Deplete(ctx context.Context, userID, itemID uint, qty float64, actionType, reason string) (*models.InventoryItem, error) {
	if qty <= 0 {
		return nil, ErrBadQuantity
	}

	var item models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return err
		}
		if item.Status != models.StatusActive {
			return ErrItemTerminal
		}

		if qty > item.Quantity {
			qty = item.Quantity
		}
		item.Quantity -= qty
		if item.Quantity <= 0 {
			item.Quantity = 0
			if actionType == models.ActionWaste {
				item.Status = models.StatusWasted
			} else {
				item.Status = models.StatusConsumed
			}
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		id := item.ID
		return NewActionLogService(tx).Append(ctx, &models.ActionLog{
			UserID:          userID,
			InventoryID:     &id,
			ItemName:        item.Name,
			Category:        item.PrimaryCategory(),
			Cost:            qty * item.CostPerUnit,
			ActionType:      actionType,
			QuantityChanged: qty,
			Unit:            item.Unit,
			Reason:          reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type InventoryUpdate struct {
	Name           *string    `json:"name"`
	Categories     *string    `json:"categories"`
	Quantity       *float64   `json:"quantity"`
	Unit           *string    `json:"unit"`
	ExpirationDate *time.Time `json:"expiration_date"`
	CostPerUnit    *float64   `json:"cost_per_unit"`
}

// Update applies a manual edit. A quantity change is logged as an ADD with
// the signed delta; ADD entries are excluded from analytics so edits never
// skew the consumption numbers.
func (s *InventoryService) Update(ctx context.Context, userID, itemID uint, in InventoryUpdate) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return err
		}
		if item.Status != models.StatusActive {
			return ErrItemTerminal
		}

		var delta float64
		if in.Name != nil {
			item.Name = *in.Name
		}
		if in.Categories != nil {
			item.Categories = *in.Categories
		}
		if in.Quantity != nil {
			delta = *in.Quantity - item.Quantity
			item.Quantity = *in.Quantity
		}
		if in.Unit != nil {
			item.Unit = *in.Unit
		}
		if in.ExpirationDate != nil {
			item.ExpirationDate = *in.ExpirationDate
		}
		if in.CostPerUnit != nil {
			item.CostPerUnit = *in.CostPerUnit
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		if delta == 0 {
			return nil
		}
		id := item.ID
		return NewActionLogService(tx).Append(ctx, &models.ActionLog{
			UserID:          userID,
			InventoryID:     &id,
			ItemName:        item.Name,
			Category:        item.PrimaryCategory(),
			Cost:            delta * item.CostPerUnit,
			ActionType:      models.ActionAdd,
			QuantityChanged: delta,
			Unit:            item.Unit,
			Reason:          "manual edit",
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes the row but leaves its history: the ledger keeps the
// weak InventoryID reference after the item is gone. Removal and the
// DELETE entry commit together, so a failed delete never leaves a
// phantom entry for a still-existing item.
func (s *InventoryService) Delete(ctx context.Context, userID, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.InventoryItem
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return err
		}

		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		id := item.ID
		return NewActionLogService(tx).Append(ctx, &models.ActionLog{
			UserID:          userID,
			InventoryID:     &id,
			ItemName:        item.Name,
			Category:        item.PrimaryCategory(),
			Cost:            item.TotalCost(),
			ActionType:      models.ActionDelete,
			QuantityChanged: item.Quantity,
			Unit:            item.Unit,
			Reason:          "removed from pantry",
		})
	})
}

// ExpiringWithin lists active items whose expiry falls inside the next
// `days` days (or already passed); feeds the digest email and push alerts.
func (s *InventoryService) ExpiringWithin(ctx context.Context, userID uint, days int) ([]models.InventoryItem, error) {
	cutoff := time.Now().AddDate(0, 0, days)
	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND quantity > 0 AND expiration_date <= ?",
			userID, models.StatusActive, cutoff).
		Order("expiration_date ASC").
		Find(&items).Error
	return items, err
}
