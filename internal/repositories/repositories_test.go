package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB, name string) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{Name: name, Timezone: "America/Chicago"}
	require.NoError(t, db.Create(restaurant).Error)
	return restaurant
}

func newOrder(restaurantID uuid.UUID, number, date string) *models.Order {
	return &models.Order{
		RestaurantID:  restaurantID,
		OrderNumber:   number,
		CustomerName:  "Ada Lovelace",
		CustomerPhone: "555-123-4567",
		Items:         models.OrderItems{{Name: "Margherita", Quantity: 2, Price: 12.5}},
		PickupDate:    date,
		PickupTime:    "18:30",
		Status:        models.OrderConfirmed,
		Source:        models.SourcePhone,
	}
}

func TestOrderRepository_NumberIsScopedToRestaurant(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	a := seedRestaurant(t, db, "A")
	b := seedRestaurant(t, db, "B")
	require.NoError(t, repo.Create(ctx, newOrder(a.ID, "4821", "2025-12-24")))

	exists, err := repo.NumberExists(ctx, a.ID, "4821")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.NumberExists(ctx, b.ID, "4821")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.FindByNumber(ctx, b.ID, "4821")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	found, err := repo.FindByNumber(ctx, a.ID, "4821")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", found.CustomerName)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
}

func TestOrderRepository_HistoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "A")

	order := newOrder(restaurant.ID, "1234", "2025-12-24")
	order.History.Append(models.HistoryCreated, time.Now(), nil, models.ModifiedByAgent)
	require.NoError(t, repo.Create(ctx, order))

	changes := models.Changes{}
	changes.Record("pickupTime", "18:30", "19:00")
	order.PickupTime = "19:00"
	order.History.Append(models.HistoryUpdated, time.Now(), changes, "owner@example.com")
	require.NoError(t, repo.Update(ctx, order))

	found, err := repo.FindByNumber(ctx, restaurant.ID, "1234")
	require.NoError(t, err)
	require.Len(t, found.History, 2)
	assert.Equal(t, models.HistoryCreated, found.History[0].Action)
	assert.Empty(t, found.History[0].Changes)

	last, ok := found.History.Last()
	require.True(t, ok)
	assert.Equal(t, models.HistoryUpdated, last.Action)
	assert.Equal(t, "owner@example.com", last.ModifiedBy)
	require.Contains(t, last.Changes, "pickupTime")
	assert.Equal(t, "18:30", last.Changes["pickupTime"].From)
	assert.Equal(t, "19:00", last.Changes["pickupTime"].To)
}

func TestOrderRepository_DeleteAndSearch(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "A")

	require.NoError(t, repo.Create(ctx, newOrder(restaurant.ID, "1111", "2025-12-24")))
	require.NoError(t, repo.Create(ctx, newOrder(restaurant.ID, "2222", "2025-12-25")))

	onDate, err := repo.FindForSearch(ctx, restaurant.ID, "2025-12-25")
	require.NoError(t, err)
	require.Len(t, onDate, 1)
	assert.Equal(t, "2222", onDate[0].OrderNumber)

	all, err := repo.FindForSearch(ctx, restaurant.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, restaurant.ID, "1111"))
	err = repo.Delete(ctx, restaurant.ID, "1111")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestOrderRepository_ListByRestaurant(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "A")

	for i, number := range []string{"1001", "1002", "1003"} {
		order := newOrder(restaurant.ID, number, "2025-12-24")
		if i == 2 {
			order.Status = models.OrderCancelled
		}
		require.NoError(t, repo.Create(ctx, order))
	}

	orders, total, err := repo.ListByRestaurant(ctx, restaurant.ID, FindOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, orders, 2)

	cancelled, total, err := repo.ListByRestaurant(ctx, restaurant.ID, FindOptions{
		Filters: map[string]interface{}{"status": models.OrderCancelled},
		OrderBy: "created_at; DROP TABLE orders",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "1003", cancelled[0].OrderNumber)
}

func TestReservationRepository_FindByNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "A")

	require.NoError(t, repo.Create(ctx, &models.Reservation{
		RestaurantID:      restaurant.ID,
		ReservationNumber: "7777",
		CustomerName:      "Grace Hopper",
		CustomerPhone:     "(555) 987-6543",
		Date:              "2025-12-24",
		Time:              "19:00",
		PartySize:         4,
		Status:            models.ReservationConfirmed,
		Source:            models.SourcePhone,
	}))

	found, err := repo.FindByNumber(ctx, restaurant.ID, "7777")
	require.NoError(t, err)
	assert.Equal(t, 4, found.PartySize)

	_, err = repo.FindByNumber(ctx, restaurant.ID, "0000")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestIntegrationRepository_UpsertReplacesCredential(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntegrationRepository(db)
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "A")

	require.NoError(t, repo.Upsert(ctx, &models.Integration{
		RestaurantID: restaurant.ID,
		Provider:     "square",
		APIKey:       "sk_live_first_key",
		Status:       models.IntegrationConnected,
	}))
	require.NoError(t, repo.Upsert(ctx, &models.Integration{
		RestaurantID: restaurant.ID,
		Provider:     "square",
		APIKey:       "sk_live_second_key",
		Status:       models.IntegrationError,
	}))

	list, err := repo.ListByRestaurant(ctx, restaurant.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sk_live_second_key", list[0].APIKey)
	assert.Equal(t, models.IntegrationError, list[0].Status)

	require.NoError(t, repo.Delete(ctx, restaurant.ID, "square"))
	_, err = repo.FindByProvider(ctx, restaurant.ID, "square")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUserRepository_FindAccessByRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "A")

	manager := &models.User{Subject: "idp|manager", Email: "manager@example.com"}
	staff := &models.User{Subject: "idp|staff", Email: "staff@example.com"}
	require.NoError(t, repo.Create(ctx, manager))
	require.NoError(t, repo.Create(ctx, staff))
	require.NoError(t, repo.GrantAccess(ctx, &models.RestaurantAccess{UserID: manager.ID, RestaurantID: restaurant.ID, Role: models.RoleManager}))
	require.NoError(t, repo.GrantAccess(ctx, &models.RestaurantAccess{UserID: staff.ID, RestaurantID: restaurant.ID, Role: models.RoleStaff}))

	grants, err := repo.FindAccessByRole(ctx, restaurant.ID, models.RoleManager)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, manager.ID, grants[0].UserID)

	found, err := repo.FindBySubject(ctx, "idp|staff")
	require.NoError(t, err)
	assert.Equal(t, staff.ID, found.ID)

	_, err = repo.FindAccess(ctx, uuid.New(), restaurant.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCachedRestaurantRepository_EvictsOnHoursUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewCachedRestaurantRepository(NewRestaurantRepository(db), NewCache[models.Restaurant](100, time.Minute))
	ctx := context.Background()
	restaurant := seedRestaurant(t, db, "Original")

	first, err := repo.FindByID(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", first.Name)

	require.NoError(t, db.Model(&models.Restaurant{}).Where("id = ?", restaurant.ID).Update("name", "Renamed").Error)

	cached, err := repo.FindByID(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", cached.Name)

	hours := models.OperatingHours{{Day: "monday", Open: "11:00", Close: "22:00"}}
	require.NoError(t, repo.UpdateHours(ctx, restaurant.ID, hours))

	fresh, err := repo.FindByID(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Name)
	require.Len(t, fresh.OperatingHours, 1)
	assert.Equal(t, "22:00", fresh.OperatingHours[0].Close)
}
