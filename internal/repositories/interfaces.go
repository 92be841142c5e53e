package repositories

import (
	"context"

	"tableline/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// Repository interfaces
// All lookups of tenant-owned rows take the restaurant id so a caller can
// never reach another tenant's record by its human-readable number.
// ===========================================================================

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error

	// Update saves every column of the order
	Update(ctx context.Context, order *models.Order) error

	// Delete removes the row permanently
	Delete(ctx context.Context, restaurantID uuid.UUID, orderNumber string) error

	// FindByNumber looks up by (restaurant, 4-digit number)
	FindByNumber(ctx context.Context, restaurantID uuid.UUID, orderNumber string) (*models.Order, error)

	// NumberExists is the allocator's point lookup
	NumberExists(ctx context.Context, restaurantID uuid.UUID, orderNumber string) (bool, error)

	// FindForSearch returns the tenant's orders, optionally restricted to one
	// pickup date; callers filter the rest in memory
	FindForSearch(ctx context.Context, restaurantID uuid.UUID, pickupDate string) ([]models.Order, error)

	// ListByRestaurant is the paginated dashboard listing
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, opts FindOptions) ([]models.Order, int64, error)
}

// ReservationRepository persists reservations.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	Update(ctx context.Context, reservation *models.Reservation) error
	Delete(ctx context.Context, restaurantID uuid.UUID, reservationNumber string) error
	FindByNumber(ctx context.Context, restaurantID uuid.UUID, reservationNumber string) (*models.Reservation, error)
	NumberExists(ctx context.Context, restaurantID uuid.UUID, reservationNumber string) (bool, error)
	FindForSearch(ctx context.Context, restaurantID uuid.UUID, date string) ([]models.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, opts FindOptions) ([]models.Reservation, int64, error)
}

// RestaurantRepository persists restaurants and organizations.
type RestaurantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Restaurant, error)
	FindByOrganizations(ctx context.Context, organizationIDs []uuid.UUID) ([]models.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error)
	Create(ctx context.Context, restaurant *models.Restaurant) error
	UpdateHours(ctx context.Context, id uuid.UUID, hours models.OperatingHours) error

	FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	FindOrganizationsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Organization, error)
	CreateOrganization(ctx context.Context, org *models.Organization) error
}

// UserRepository persists dashboard users and their restaurant grants.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error

	FindAccess(ctx context.Context, userID, restaurantID uuid.UUID) (*models.RestaurantAccess, error)
	FindAccessByUser(ctx context.Context, userID uuid.UUID) ([]models.RestaurantAccess, error)
	FindAccessByRole(ctx context.Context, restaurantID uuid.UUID, role models.AccessRole) ([]models.RestaurantAccess, error)
	GrantAccess(ctx context.Context, access *models.RestaurantAccess) error
}

// AgentRepository persists voice-agent configurations.
type AgentRepository interface {
	Create(ctx context.Context, agent *models.Agent) error
	Update(ctx context.Context, agent *models.Agent) error
	FindByID(ctx context.Context, restaurantID, id uuid.UUID) (*models.Agent, error)

	// FindByProviderAgentID resolves the tenant of a provider callback
	FindByProviderAgentID(ctx context.Context, providerAgentID string) (*models.Agent, error)

	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Agent, error)
}

// IntegrationRepository persists third-party credentials.
type IntegrationRepository interface {
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Integration, error)
	FindByProvider(ctx context.Context, restaurantID uuid.UUID, provider string) (*models.Integration, error)

	// Upsert inserts or replaces the row for (restaurant, provider)
	Upsert(ctx context.Context, integration *models.Integration) error

	Delete(ctx context.Context, restaurantID uuid.UUID, provider string) error
}

// MenuRepository reads a restaurant's menu.
type MenuRepository interface {
	ListAvailable(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
}
