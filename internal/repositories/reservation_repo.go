package repositories

import (
	"context"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Reservation Repository GORM Implementation
// ===========================================================================

var reservationSortColumns = map[string]bool{
	"created_at": true,
	"date":       true,
	"status":     true,
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepository creates an ReservationRepository backed by GORM.
func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepo) Update(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

func (r *reservationRepo) Delete(ctx context.Context, restaurantID uuid.UUID, reservationNumber string) error {
	result := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND reservation_number = ?", restaurantID, reservationNumber).
		Delete(&models.Reservation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrNotFound, "reservation not found")
	}
	return nil
}

func (r *reservationRepo) FindByNumber(ctx context.Context, restaurantID uuid.UUID, reservationNumber string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND reservation_number = ?", restaurantID, reservationNumber).
		First(&reservation).Error
	if err != nil {
		return nil, notFound(err, "reservation")
	}
	return &reservation, nil
}

func (r *reservationRepo) NumberExists(ctx context.Context, restaurantID uuid.UUID, reservationNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("restaurant_id = ? AND reservation_number = ?", restaurantID, reservationNumber).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *reservationRepo) FindForSearch(ctx context.Context, restaurantID uuid.UUID, date string) ([]models.Reservation, error) {
	query := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if date != "" {
		query = query.Where("date = ?", date)
	}
	var reservations []models.Reservation
	err := query.Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, opts FindOptions) ([]models.Reservation, int64, error) {
	opts.SetDefaults()
	if !reservationSortColumns[opts.OrderBy] {
		opts.OrderBy = "created_at"
	}

	query := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("restaurant_id = ?", restaurantID)
	query = applyFilters(query, opts.Filters, "status", "date", "source")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reservations []models.Reservation
	err := query.
		Order(opts.GetOrderClause()).
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&reservations).Error
	return reservations, total, err
}
