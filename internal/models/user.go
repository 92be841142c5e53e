package models

import (
	"github.com/google/uuid"
)

// ===========================================================================
// User and RestaurantAccess
// Users are dashboard operators authenticated by the external identity
// provider. They are NOT callers; callers only exist as customer fields on
// orders and reservations.
// ===========================================================================

// AccessRole is a role scoped to a single restaurant.
type AccessRole string

const (
	// RoleOwner full control, including integrations and deletion
	RoleOwner AccessRole = "owner"

	// RoleManager runs the restaurant and receives admin notifications
	RoleManager AccessRole = "manager"

	// RoleStaff works orders and reservations
	RoleStaff AccessRole = "staff"
)

// Valid reports whether r is a known role.
func (r AccessRole) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// User is a dashboard operator.
type User struct {
	BaseModel

	// Subject identity-provider subject claim ("sub")
	Subject string `gorm:"size:255;uniqueIndex;not null" json:"-"`

	Email string `gorm:"size:255;not null;index" json:"email"`
	Name  string `gorm:"size:255" json:"name"`
}

// TableName returns the table name.
func (User) TableName() string {
	return "users"
}

// RestaurantAccess grants a user a role on one restaurant.
type RestaurantAccess struct {
	BaseModel

	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_access_user_restaurant,priority:1" json:"userId"`
	RestaurantID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_access_user_restaurant,priority:2;index" json:"restaurantId"`
	Role         AccessRole `gorm:"size:20;not null" json:"role"`
}

// TableName returns the table name.
func (RestaurantAccess) TableName() string {
	return "restaurant_access"
}
