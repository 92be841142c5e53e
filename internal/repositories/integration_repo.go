package repositories

import (
	"context"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================================================================
// Integration Repository GORM Implementation
// ===========================================================================

type integrationRepo struct {
	db *gorm.DB
}

// NewIntegrationRepository creates an IntegrationRepository backed by GORM.
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepo{db: db}
}

func (r *integrationRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("provider ASC").
		Find(&integrations).Error
	return integrations, err
}

func (r *integrationRepo) FindByProvider(ctx context.Context, restaurantID uuid.UUID, provider string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND provider = ?", restaurantID, provider).
		First(&integration).Error
	if err != nil {
		return nil, notFound(err, "integration")
	}
	return &integration, nil
}

// Upsert relies on the unique (restaurant_id, provider) index
func (r *integrationRepo) Upsert(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"api_key", "tenant_slug", "status", "last_error", "updated_at"}),
		}).
		Create(integration).Error
}

func (r *integrationRepo) Delete(ctx context.Context, restaurantID uuid.UUID, provider string) error {
	result := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND provider = ?", restaurantID, provider).
		Delete(&models.Integration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "integration not found")
	}
	return nil
}
