package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tableline/internal/access"
	apperrors "tableline/internal/errors"
	"tableline/internal/identifier"
	"tableline/internal/models"
	"tableline/internal/notify"
	"tableline/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 15:00 UTC is 10:00 in New York, both on 2025-12-20.
var fixedNow = time.Date(2025, 12, 20, 15, 0, 0, 0, time.UTC)

type fixture struct {
	restaurants  *fakeRestaurantRepo
	users        *fakeUserRepo
	orders       *fakeOrderRepo
	reservations *fakeReservationRepo
	dispatcher   *captureDispatcher
	restaurant   *models.Restaurant
	owner        *models.User

	orderSvc       *orderService
	reservationSvc *reservationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		restaurants:  newFakeRestaurantRepo(),
		users:        &fakeUserRepo{},
		orders:       &fakeOrderRepo{},
		reservations: &fakeReservationRepo{},
		dispatcher:   &captureDispatcher{},
	}
	f.owner = f.users.add("owner@example.com")
	f.restaurant = f.restaurants.add(&models.Restaurant{
		Name:     "Trattoria",
		Timezone: "America/New_York",
		OwnerID:  &f.owner.ID,
	})

	recipients := NewRecipientResolver(f.restaurants, f.users)
	logger := zap.NewNop()
	publisher := realtime.NewNoopPublisher()

	f.orderSvc = NewOrderService(f.orders, f.restaurants, recipients, identifier.New(), f.dispatcher, publisher, logger).(*orderService)
	f.orderSvc.now = func() time.Time { return fixedNow }
	f.reservationSvc = NewReservationService(f.reservations, f.restaurants, recipients, identifier.New(), f.dispatcher, publisher, logger).(*reservationService)
	f.reservationSvc.now = func() time.Time { return fixedNow }

	return f
}

func (f *fixture) createOrder(t *testing.T, actor Actor) *models.Order {
	t.Helper()
	order, err := f.orderSvc.Create(context.Background(), f.restaurant.ID, CreateOrderInput{
		CustomerName:  "Ada Lovelace",
		CustomerPhone: "555-123-4567",
		Items:         models.OrderItems{{Name: "Margherita", Quantity: 2, Price: 12.5}},
		PickupDate:    "2025-12-20",
		PickupTime:    "18:00",
	}, actor)
	require.NoError(t, err)
	return order
}

func ptr[T any](v T) *T { return &v }

// ===========================================================================
// Create
// ===========================================================================

func TestReservationCreate_AllocatesNumberAndRecordsHistory(t *testing.T) {
	f := newFixture(t)

	r, err := f.reservationSvc.Create(context.Background(), f.restaurant.ID, CreateReservationInput{
		CustomerName:  "Grace Hopper",
		CustomerPhone: "(555) 987-6543",
		Date:          "2025-12-24",
		Time:          "19:00",
		PartySize:     4,
	}, VoiceAgentActor())
	require.NoError(t, err)

	assert.Len(t, r.ReservationNumber, 4)
	assert.GreaterOrEqual(t, r.ReservationNumber, "1000")
	assert.Equal(t, models.ReservationConfirmed, r.Status)
	assert.Equal(t, models.SourcePhone, r.Source)

	require.Len(t, r.History, 1)
	assert.Equal(t, models.HistoryCreated, r.History[0].Action)
	assert.Equal(t, models.ModifiedByAgent, r.History[0].ModifiedBy)

	job := f.dispatcher.last()
	assert.Equal(t, notify.KindReservationCreated, job.kind)
	assert.Equal(t, []string{"owner@example.com"}, job.payload.Recipients)
	assert.Equal(t, r.ReservationNumber, job.payload.Number)
}

func TestOrderCreate_RejectsPastPickupDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderSvc.Create(context.Background(), f.restaurant.ID, CreateOrderInput{
		CustomerName:  "Ada",
		CustomerPhone: "555",
		Items:         models.OrderItems{{Name: "Calzone", Quantity: 1}},
		PickupDate:    "2025-12-19",
		PickupTime:    "12:00",
	}, VoiceAgentActor())

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	msg := apperrors.Message(err, "")
	assert.Contains(t, msg, "2025-12-19")
	assert.Contains(t, msg, "2025-12-20")
	assert.Empty(t, f.dispatcher.kinds())
}

func TestOrderCreate_TodayIsRestaurantLocal(t *testing.T) {
	f := newFixture(t)
	// 03:00 UTC on the 21st is still the evening of the 20th in New York
	f.orderSvc.now = func() time.Time { return time.Date(2025, 12, 21, 3, 0, 0, 0, time.UTC) }

	_, err := f.orderSvc.Create(context.Background(), f.restaurant.ID, CreateOrderInput{
		CustomerName:  "Ada",
		CustomerPhone: "555",
		Items:         models.OrderItems{{Name: "Calzone", Quantity: 1}},
		PickupDate:    "2025-12-20",
		PickupTime:    "23:00",
	}, VoiceAgentActor())
	assert.NoError(t, err)
}

func TestOrderCreate_ReportsInvalidFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderSvc.Create(context.Background(), f.restaurant.ID, CreateOrderInput{
		CustomerName: "Ada",
		PickupDate:   "tomorrow",
		PickupTime:   "18:00",
	}, VoiceAgentActor())

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	msg := apperrors.Message(err, "")
	assert.Contains(t, msg, "phone number")
	assert.Contains(t, msg, "items")
	assert.Contains(t, msg, "pickup date")
}

func TestOrderCreate_UnknownRestaurant(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderSvc.Create(context.Background(), uuid.New(), CreateOrderInput{}, VoiceAgentActor())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

// ===========================================================================
// Update
// ===========================================================================

func TestOrderUpdate_CancelledIsInvalidState(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	_, err := f.orderSvc.Cancel(context.Background(), f.restaurant.ID, order.OrderNumber, VoiceAgentActor())
	require.NoError(t, err)

	inputs := []UpdateOrderInput{
		{PickupTime: ptr("19:00")},
		{CustomerName: ptr("Someone Else")},
		{Items: models.OrderItems{{Name: "Tiramisu", Quantity: 1}}},
		{},
	}
	for i, in := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := f.orderSvc.Update(context.Background(), f.restaurant.ID, order.OrderNumber, in, VoiceAgentActor())
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
		})
	}
}

func TestOrderUpdate_RecordsOnlyChangedFields(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())

	updated, err := f.orderSvc.Update(context.Background(), f.restaurant.ID, order.OrderNumber, UpdateOrderInput{
		CustomerName: ptr("Ada Lovelace"),
		PickupTime:   ptr("18:30"),
	}, VoiceAgentActor())
	require.NoError(t, err)

	require.Len(t, updated.History, 2)
	entry := updated.History[1]
	assert.Equal(t, models.HistoryUpdated, entry.Action)
	assert.Equal(t, models.Changes{"pickupTime": {From: "18:00", To: "18:30"}}, entry.Changes)

	job := f.dispatcher.last()
	assert.Equal(t, notify.KindOrderUpdated, job.kind)
	assert.Equal(t, entry.Changes, job.payload.Changes)
}

func TestOrderUpdate_BackToBackPickupTimeChanges(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	ctx := context.Background()

	_, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{PickupTime: ptr("18:30")}, VoiceAgentActor())
	require.NoError(t, err)
	second, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{PickupTime: ptr("19:15")}, DashboardActor("manager@example.com"))
	require.NoError(t, err)

	require.Len(t, second.History, 3)
	assert.Equal(t, models.FieldChange{From: "18:00", To: "18:30"}, second.History[1].Changes["pickupTime"])
	assert.Equal(t, models.FieldChange{From: "18:30", To: "19:15"}, second.History[2].Changes["pickupTime"])
	assert.Equal(t, "manager@example.com", second.History[2].ModifiedBy)
}

func TestOrderUpdate_ItemsRecomputeTotal(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())

	updated, err := f.orderSvc.Update(context.Background(), f.restaurant.ID, order.OrderNumber, UpdateOrderInput{
		Items: models.OrderItems{{Name: "Margherita", Quantity: 3, Price: 12.5}},
	}, VoiceAgentActor())
	require.NoError(t, err)

	assert.InDelta(t, 37.5, updated.Total, 0.001)
	changes := updated.History[1].Changes
	assert.Contains(t, changes, "items")
	assert.Equal(t, models.FieldChange{From: 25.0, To: 37.5}, changes["total"])
}

func TestOrderUpdate_NothingChanged(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())

	_, err := f.orderSvc.Update(context.Background(), f.restaurant.ID, order.OrderNumber, UpdateOrderInput{
		PickupTime: ptr("18:00"),
	}, VoiceAgentActor())
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	stored, err := f.orderSvc.Get(context.Background(), f.restaurant.ID, order.OrderNumber)
	require.NoError(t, err)
	assert.Len(t, stored.History, 1)
}

func TestOrderUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderSvc.Update(context.Background(), f.restaurant.ID, "1234", UpdateOrderInput{PickupTime: ptr("19:00")}, VoiceAgentActor())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, apperrors.Message(err, ""), "1234")
}

func TestReservationUpdate_PartySize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.reservationSvc.Create(ctx, f.restaurant.ID, CreateReservationInput{
		CustomerName: "Grace", CustomerPhone: "555", Date: "2025-12-24", Time: "19:00", PartySize: 4,
	}, VoiceAgentActor())
	require.NoError(t, err)

	updated, err := f.reservationSvc.Update(ctx, f.restaurant.ID, r.ReservationNumber, UpdateReservationInput{
		PartySize: ptr(6),
		Date:      ptr("2025-12-24"),
	}, VoiceAgentActor())
	require.NoError(t, err)

	assert.Equal(t, 6, updated.PartySize)
	assert.Equal(t, models.Changes{"partySize": {From: 4, To: 6}}, updated.History[1].Changes)
}

func TestOrderUpdate_RejectsPastPickupDate(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	ctx := context.Background()

	_, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{PickupDate: ptr("2025-12-19")}, VoiceAgentActor())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	msg := apperrors.Message(err, "")
	assert.Contains(t, msg, "2025-12-19")
	assert.Contains(t, msg, "2025-12-20")

	stored, err := f.orderSvc.Get(ctx, f.restaurant.ID, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-20", stored.PickupDate)
	assert.Len(t, stored.History, 1)
	assert.Equal(t, []notify.Kind{notify.KindOrderCreated}, f.dispatcher.kinds())
}

func TestOrderUpdate_UnchangedPastDateIsAccepted(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	f.orderSvc.now = func() time.Time { return fixedNow.AddDate(0, 0, 2) }

	updated, err := f.orderSvc.Update(context.Background(), f.restaurant.ID, order.OrderNumber, UpdateOrderInput{
		PickupDate: ptr("2025-12-20"),
		PickupTime: ptr("19:00"),
	}, VoiceAgentActor())
	require.NoError(t, err)
	assert.Equal(t, "19:00", updated.PickupTime)
}

func TestOrderUpdate_ClearsEmail(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	ctx := context.Background()

	withEmail, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{CustomerEmail: ptr("ada@example.com")}, VoiceAgentActor())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", withEmail.CustomerEmail)

	cleared, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{CustomerEmail: ptr("")}, VoiceAgentActor())
	require.NoError(t, err)
	assert.Empty(t, cleared.CustomerEmail)
	last, _ := cleared.History.Last()
	assert.Equal(t, models.Changes{"customerEmail": {From: "ada@example.com", To: ""}}, last.Changes)
}

func TestReservationUpdate_RejectsPastDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.reservationSvc.Create(ctx, f.restaurant.ID, CreateReservationInput{
		CustomerName: "Grace", CustomerPhone: "555", Date: "2025-12-24", Time: "19:00", PartySize: 4,
	}, VoiceAgentActor())
	require.NoError(t, err)

	_, err = f.reservationSvc.Update(ctx, f.restaurant.ID, r.ReservationNumber, UpdateReservationInput{
		Date: ptr("2025-12-18"),
	}, VoiceAgentActor())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	msg := apperrors.Message(err, "")
	assert.Contains(t, msg, "2025-12-18")
	assert.Contains(t, msg, "2025-12-20")

	stored, err := f.reservationSvc.Get(ctx, f.restaurant.ID, r.ReservationNumber)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-24", stored.Date)
	assert.Len(t, stored.History, 1)
	assert.Equal(t, []notify.Kind{notify.KindReservationCreated}, f.dispatcher.kinds())
}

// ===========================================================================
// Cancel
// ===========================================================================

func TestOrderCancel_Twice(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	ctx := context.Background()

	cancelled, err := f.orderSvc.Cancel(ctx, f.restaurant.ID, order.OrderNumber, VoiceAgentActor())
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	last, _ := cancelled.History.Last()
	assert.Equal(t, models.HistoryCancelled, last.Action)

	_, err = f.orderSvc.Cancel(ctx, f.restaurant.ID, order.OrderNumber, VoiceAgentActor())
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	// numbers are allocated from 1000-9999, so 0000 never exists
	_, err = f.orderSvc.Cancel(ctx, f.restaurant.ID, "0000", VoiceAgentActor())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestReservationCancel_NotifiesOnlyPhoneRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateReservationInput{CustomerName: "Grace", CustomerPhone: "555", Date: "2025-12-24", Time: "19:00", PartySize: 2}

	phone, err := f.reservationSvc.Create(ctx, f.restaurant.ID, in, VoiceAgentActor())
	require.NoError(t, err)
	dashboard, err := f.reservationSvc.Create(ctx, f.restaurant.ID, in, DashboardActor("owner@example.com"))
	require.NoError(t, err)

	_, err = f.reservationSvc.Cancel(ctx, f.restaurant.ID, dashboard.ReservationNumber, DashboardActor("owner@example.com"))
	require.NoError(t, err)
	_, err = f.reservationSvc.Cancel(ctx, f.restaurant.ID, phone.ReservationNumber, VoiceAgentActor())
	require.NoError(t, err)

	assert.Equal(t, []notify.Kind{
		notify.KindReservationCreated,
		notify.KindReservationCreated,
		notify.KindReservationCancelled,
	}, f.dispatcher.kinds())
	assert.Equal(t, phone.ReservationNumber, f.dispatcher.last().payload.Number)
}

// ===========================================================================
// Status, delete
// ===========================================================================

func TestOrderChangeStatus(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, DashboardActor("staff@example.com"))
	ctx := context.Background()

	_, err := f.orderSvc.ChangeStatus(ctx, f.restaurant.ID, order.OrderNumber, models.OrderReady, DashboardActor("staff@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	for _, next := range []models.OrderStatus{models.OrderPreparing, models.OrderReady, models.OrderCompleted} {
		updated, err := f.orderSvc.ChangeStatus(ctx, f.restaurant.ID, order.OrderNumber, next, DashboardActor("staff@example.com"))
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
		last, _ := updated.History.Last()
		assert.Equal(t, models.HistoryStatusChanged, last.Action)
	}

	_, err = f.orderSvc.ChangeStatus(ctx, f.restaurant.ID, order.OrderNumber, models.OrderPreparing, DashboardActor("staff@example.com"))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestOrderCompleted_RejectsEditAndCancel(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	ctx := context.Background()
	staff := DashboardActor("staff@example.com")

	for _, next := range []models.OrderStatus{models.OrderPreparing, models.OrderReady, models.OrderCompleted} {
		_, err := f.orderSvc.ChangeStatus(ctx, f.restaurant.ID, order.OrderNumber, next, staff)
		require.NoError(t, err)
	}

	_, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{PickupTime: ptr("20:00")}, VoiceAgentActor())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
	assert.Contains(t, apperrors.Message(err, ""), "picked up")

	_, err = f.orderSvc.Cancel(ctx, f.restaurant.ID, order.OrderNumber, VoiceAgentActor())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
	assert.Contains(t, apperrors.Message(err, ""), "picked up")

	stored, err := f.orderSvc.Get(ctx, f.restaurant.ID, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, stored.Status)
	assert.Equal(t, "18:00", stored.PickupTime)
	assert.Equal(t, []notify.Kind{notify.KindOrderCreated}, f.dispatcher.kinds())
}

func TestOrderInKitchen_EditRejectedCancelAllowed(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderPreparing, models.OrderReady} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			order := f.createOrder(t, VoiceAgentActor())
			ctx := context.Background()

			for _, next := range []models.OrderStatus{models.OrderPreparing, models.OrderReady} {
				_, err := f.orderSvc.ChangeStatus(ctx, f.restaurant.ID, order.OrderNumber, next, DashboardActor("staff@example.com"))
				require.NoError(t, err)
				if next == status {
					break
				}
			}

			_, err := f.orderSvc.Update(ctx, f.restaurant.ID, order.OrderNumber, UpdateOrderInput{PickupTime: ptr("20:00")}, VoiceAgentActor())
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
			assert.Contains(t, apperrors.Message(err, ""), "being prepared")

			cancelled, err := f.orderSvc.Cancel(ctx, f.restaurant.ID, order.OrderNumber, VoiceAgentActor())
			require.NoError(t, err)
			assert.Equal(t, models.OrderCancelled, cancelled.Status)
			assert.Equal(t, []notify.Kind{notify.KindOrderCreated, notify.KindOrderCancelled}, f.dispatcher.kinds())
		})
	}
}

func TestOrderDelete(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, VoiceAgentActor())
	ctx := context.Background()

	require.NoError(t, f.orderSvc.Delete(ctx, f.restaurant.ID, order.OrderNumber))
	err := f.orderSvc.Delete(ctx, f.restaurant.ID, order.OrderNumber)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

// ===========================================================================
// Search
// ===========================================================================

func TestSearch_PhoneDigitsAndCaseInsensitiveName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reservationSvc.Create(ctx, f.restaurant.ID, CreateReservationInput{
		CustomerName: "José García", CustomerPhone: "555-123-4567", Date: "2025-12-24", Time: "19:00", PartySize: 2,
	}, VoiceAgentActor())
	require.NoError(t, err)
	_, err = f.reservationSvc.Create(ctx, f.restaurant.ID, CreateReservationInput{
		CustomerName: "Someone Else", CustomerPhone: "555-000-0000", Date: "2025-12-24", Time: "20:00", PartySize: 2,
	}, VoiceAgentActor())
	require.NoError(t, err)

	byPhone, err := f.reservationSvc.Search(ctx, f.restaurant.ID, SearchQuery{Phone: "(555) 123-4567"})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "José García", byPhone[0].CustomerName)

	byName, err := f.reservationSvc.Search(ctx, f.restaurant.ID, SearchQuery{Name: "JOSÉ"})
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	byDate, err := f.reservationSvc.Search(ctx, f.restaurant.ID, SearchQuery{Date: "2025-12-24"})
	require.NoError(t, err)
	require.Len(t, byDate, 2)
	assert.Equal(t, "20:00", byDate[0].Time)

	_, err = f.reservationSvc.Search(ctx, f.restaurant.ID, SearchQuery{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestSearch_CapsAtTenNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		f.orders.orders = append(f.orders.orders, &models.Order{
			BaseModel:     models.BaseModel{ID: uuid.New()},
			RestaurantID:  f.restaurant.ID,
			OrderNumber:   fmt.Sprint(1000 + i),
			CustomerName:  "Ada",
			CustomerPhone: "555-123-4567",
			PickupDate:    fmt.Sprintf("2025-12-%02d", 1+i%28),
			PickupTime:    fmt.Sprintf("%02d:00", 10+i%12),
			Status:        models.OrderConfirmed,
		})
	}

	found, err := f.orderSvc.Search(ctx, f.restaurant.ID, SearchQuery{Name: "ada"})
	require.NoError(t, err)
	require.Len(t, found, MaxSearchResults)

	for i := 1; i < len(found); i++ {
		prev, cur := found[i-1], found[i]
		assert.True(t, prev.PickupDate > cur.PickupDate ||
			(prev.PickupDate == cur.PickupDate && prev.PickupTime >= cur.PickupTime))
	}
	assert.Equal(t, "2025-12-28", found[0].PickupDate)
}

func TestSearch_TenantScoped(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t, VoiceAgentActor())

	found, err := f.orderSvc.Search(context.Background(), uuid.New(), SearchQuery{Name: "Ada"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

// ===========================================================================
// Recipients
// ===========================================================================

func TestRecipientResolver_DeduplicatesPreservingOrder(t *testing.T) {
	restaurants := newFakeRestaurantRepo()
	users := &fakeUserRepo{}

	orgOwner := users.add("Owner@Example.com")
	manager := users.add("manager@example.com")
	staff := users.add("staff@example.com")

	org := &models.Organization{Name: "Group", OwnerID: orgOwner.ID}
	require.NoError(t, restaurants.CreateOrganization(context.Background(), org))

	restaurant := restaurants.add(&models.Restaurant{
		Name:               "Bistro",
		OrganizationID:     &org.ID,
		NotificationEmails: models.StringList{"owner@example.com", "extra@example.com", "MANAGER@example.com"},
	})
	users.grants = []models.RestaurantAccess{
		{UserID: manager.ID, RestaurantID: restaurant.ID, Role: models.RoleManager},
		{UserID: staff.ID, RestaurantID: restaurant.ID, Role: models.RoleStaff},
	}

	got, err := NewRecipientResolver(restaurants, users).Resolve(context.Background(), restaurant)
	require.NoError(t, err)
	assert.Equal(t, []string{"Owner@Example.com", "manager@example.com", "extra@example.com"}, got)
}

func TestRecipientResolver_PersonalOwner(t *testing.T) {
	restaurants := newFakeRestaurantRepo()
	users := &fakeUserRepo{}
	owner := users.add("solo@example.com")
	restaurant := restaurants.add(&models.Restaurant{Name: "Cafe", OwnerID: &owner.ID})

	got, err := NewRecipientResolver(restaurants, users).Resolve(context.Background(), restaurant)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo@example.com"}, got)
}

// ===========================================================================
// Agents and hours
// ===========================================================================

func TestAgentCreate_RegistersWithProvider(t *testing.T) {
	restaurants := newFakeRestaurantRepo()
	restaurant := restaurants.add(&models.Restaurant{Name: "Trattoria", Timezone: "America/Chicago"})
	agents := &fakeAgentRepo{}
	vp := newFakeVoiceProvider()

	svc := NewAgentService(agents, restaurants, vp, "https://api.example.com/", zap.NewNop())

	agent, err := svc.Create(context.Background(), restaurant.ID, AgentInput{Name: ptr("Sofia")})
	require.NoError(t, err)

	assert.NotEmpty(t, agent.ProviderAgentID)
	assert.NotEmpty(t, agent.ProviderLLMID)
	assert.Contains(t, agent.Prompt, "Trattoria")
	assert.Equal(t, "en-US", agent.Language)
	assert.Len(t, agents.agents, 1)
}

func TestAgentCreate_UpstreamFailureKeepsNothing(t *testing.T) {
	restaurants := newFakeRestaurantRepo()
	restaurant := restaurants.add(&models.Restaurant{Name: "Trattoria"})
	agents := &fakeAgentRepo{}
	vp := newFakeVoiceProvider()
	vp.failLLM = apperrors.New(apperrors.ErrUpstreamFailure, "voice agent provider returned 500")

	svc := NewAgentService(agents, restaurants, vp, "https://api.example.com", zap.NewNop())

	_, err := svc.Create(context.Background(), restaurant.ID, AgentInput{Name: ptr("Sofia")})
	assert.True(t, apperrors.Is(err, apperrors.ErrUpstreamFailure))
	assert.Empty(t, agents.agents)
}

func TestUpdateHours_RegeneratesPrompts(t *testing.T) {
	restaurants := newFakeRestaurantRepo()
	restaurant := restaurants.add(&models.Restaurant{Name: "Trattoria", Timezone: "America/New_York"})
	agents := &fakeAgentRepo{}
	vp := newFakeVoiceProvider()
	ctx := context.Background()

	agentSvc := NewAgentService(agents, restaurants, vp, "https://api.example.com", zap.NewNop())
	agent, err := agentSvc.Create(ctx, restaurant.ID, AgentInput{Name: ptr("Sofia")})
	require.NoError(t, err)

	svc := NewRestaurantService(restaurants, nil, agentSvc, zap.NewNop())
	result, err := svc.UpdateHours(ctx, restaurant.ID, models.OperatingHours{
		{Day: "monday", Open: "11:00", Close: "22:00"},
		{Day: "tuesday", Closed: true},
	})
	require.NoError(t, err)
	require.NoError(t, result.SyncError)
	assert.Equal(t, 1, result.AgentsUpdated)

	pushed, ok := vp.llmUpdates[agent.ProviderLLMID]
	require.True(t, ok)
	assert.Contains(t, pushed.GeneralPrompt, "Monday: 11:00 - 22:00")
	assert.Contains(t, pushed.GeneralPrompt, "Tuesday: closed")

	stored, err := agents.FindByID(ctx, restaurant.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, pushed.GeneralPrompt, stored.Prompt)
}

func TestUpdateHours_Validation(t *testing.T) {
	svc := NewRestaurantService(newFakeRestaurantRepo(), nil, nil, zap.NewNop())

	_, err := svc.UpdateHours(context.Background(), uuid.New(), models.OperatingHours{
		{Day: "monday", Open: "11:00", Close: "22:00"},
		{Day: "monday", Closed: true},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.UpdateHours(context.Background(), uuid.New(), models.OperatingHours{
		{Day: "friday", Open: "late", Close: "22:00"},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

// ===========================================================================
// Accounts
// ===========================================================================

func TestAccountService_RolesAndAuthorization(t *testing.T) {
	restaurants := newFakeRestaurantRepo()
	users := &fakeUserRepo{}
	enforcer, err := access.NewEnforcer()
	require.NoError(t, err)
	ctx := context.Background()

	orgOwner := users.add("owner@example.com")
	staff := users.add("staff@example.com")
	stranger := users.add("stranger@example.com")

	org := &models.Organization{Name: "Group", OwnerID: orgOwner.ID}
	require.NoError(t, restaurants.CreateOrganization(ctx, org))
	restaurant := restaurants.add(&models.Restaurant{Name: "Bistro", OrganizationID: &org.ID})
	users.grants = []models.RestaurantAccess{{UserID: staff.ID, RestaurantID: restaurant.ID, Role: models.RoleStaff}}

	svc := NewAccountService(users, restaurants, enforcer, zap.NewNop())

	role, err := svc.RoleFor(ctx, orgOwner, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)

	role, err = svc.Authorize(ctx, staff, restaurant.ID, access.ResourceOrders, access.ActionWrite)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, role)

	_, err = svc.Authorize(ctx, staff, restaurant.ID, access.ResourceIntegrations, access.ActionWrite)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.RoleFor(ctx, stranger, restaurant.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	memberships, err := svc.Memberships(ctx, orgOwner)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, models.RoleOwner, memberships[0].Role)
}

func TestAccountService_ResolveCreatesOnFirstSight(t *testing.T) {
	users := &fakeUserRepo{}
	svc := NewAccountService(users, newFakeRestaurantRepo(), nil, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Resolve(ctx, Identity{Subject: "idp|42", Email: "new@example.com", Name: "New"})
	require.NoError(t, err)
	second, err := svc.Resolve(ctx, Identity{Subject: "idp|42", Email: "new@example.com"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, users.users, 1)

	_, err = svc.Resolve(ctx, Identity{})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}
