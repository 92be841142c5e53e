package repositories

import (
	"context"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Restaurant Repository GORM Implementation
// ===========================================================================

type restaurantRepo struct {
	db *gorm.DB
}

// NewRestaurantRepository creates a RestaurantRepository backed by GORM.
func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepo{db: db}
}

func (r *restaurantRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "restaurant")
	}
	return &restaurant, nil
}

func (r *restaurantRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Restaurant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&restaurants).Error
	return restaurants, err
}

func (r *restaurantRepo) FindByOrganizations(ctx context.Context, organizationIDs []uuid.UUID) ([]models.Restaurant, error) {
	if len(organizationIDs) == 0 {
		return nil, nil
	}
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).
		Where("organization_id IN ?", organizationIDs).
		Order("name ASC").
		Find(&restaurants).Error
	return restaurants, err
}

func (r *restaurantRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&restaurants).Error
	return restaurants, err
}

func (r *restaurantRepo) Create(ctx context.Context, restaurant *models.Restaurant) error {
	return r.db.WithContext(ctx).Create(restaurant).Error
}

// UpdateHours replaces the weekly schedule
func (r *restaurantRepo) UpdateHours(ctx context.Context, id uuid.UUID, hours models.OperatingHours) error {
	result := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ?", id).
		Update("operating_hours", hours)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "restaurant not found")
	}
	return nil
}

func (r *restaurantRepo) FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "organization")
	}
	return &org, nil
}

func (r *restaurantRepo) FindOrganizationsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&orgs).Error
	return orgs, err
}

func (r *restaurantRepo) CreateOrganization(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}
