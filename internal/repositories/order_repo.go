package repositories

import (
	"context"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Order Repository GORM Implementation
// ===========================================================================

var orderSortColumns = map[string]bool{
	"created_at":  true,
	"pickup_date": true,
	"status":      true,
}

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository creates an OrderRepository backed by GORM.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepo) Delete(ctx context.Context, restaurantID uuid.UUID, orderNumber string) error {
	result := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND order_number = ?", restaurantID, orderNumber).
		Delete(&models.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "order not found")
	}
	return nil
}

func (r *orderRepo) FindByNumber(ctx context.Context, restaurantID uuid.UUID, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND order_number = ?", restaurantID, orderNumber).
		First(&order).Error
	if err != nil {
		return nil, notFound(err, "order")
	}
	return &order, nil
}

func (r *orderRepo) NumberExists(ctx context.Context, restaurantID uuid.UUID, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("restaurant_id = ? AND order_number = ?", restaurantID, orderNumber).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepo) FindForSearch(ctx context.Context, restaurantID uuid.UUID, pickupDate string) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if pickupDate != "" {
		query = query.Where("pickup_date = ?", pickupDate)
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, opts FindOptions) ([]models.Order, int64, error) {
	opts.SetDefaults()
	if !orderSortColumns[opts.OrderBy] {
		opts.OrderBy = "created_at"
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("restaurant_id = ?", restaurantID)
	query = applyFilters(query, opts.Filters, "status", "pickup_date", "source")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Order(opts.GetOrderClause()).
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&orders).Error
	return orders, total, err
}
