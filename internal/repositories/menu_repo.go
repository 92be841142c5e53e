package repositories

import (
	"context"

	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type menuRepo struct {
	db *gorm.DB
}

// NewMenuRepository creates a MenuRepository backed by GORM.
func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepo{db: db}
}

// ListAvailable returns items that can be ordered, grouped by category
func (r *menuRepo) ListAvailable(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND available = ?", restaurantID, true).
		Order("category ASC").
		Order("sort_order ASC").
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *menuRepo) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}
