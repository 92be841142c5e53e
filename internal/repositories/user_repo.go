package repositories

import (
	"context"

	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// User Repository Implementation
// Users and RestaurantAccess grants
// (interface defined in interfaces.go)
// ===========================================================================

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

// FindByID finds a user by internal id
func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// FindByIDs returns the users that exist among ids, in no particular order
func (r *userRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindBySubject finds a user by identity-provider subject
func (r *userRepo) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindAccess returns the user's grant on one restaurant
func (r *userRepo) FindAccess(ctx context.Context, userID, restaurantID uuid.UUID) (*models.RestaurantAccess, error) {
	var access models.RestaurantAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		First(&access).Error
	if err != nil {
		return nil, notFound(err, "restaurant access")
	}
	return &access, nil
}

func (r *userRepo) FindAccessByUser(ctx context.Context, userID uuid.UUID) ([]models.RestaurantAccess, error) {
	var grants []models.RestaurantAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

// FindAccessByRole lists grants of one role on a restaurant, oldest first
func (r *userRepo) FindAccessByRole(ctx context.Context, restaurantID uuid.UUID, role models.AccessRole) ([]models.RestaurantAccess, error) {
	var grants []models.RestaurantAccess
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND role = ?", restaurantID, role).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *userRepo) GrantAccess(ctx context.Context, access *models.RestaurantAccess) error {
	return r.db.WithContext(ctx).Create(access).Error
}
