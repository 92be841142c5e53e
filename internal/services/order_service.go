package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "tableline/internal/errors"
	"tableline/internal/identifier"
	"tableline/internal/models"
	"tableline/internal/notify"
	"tableline/internal/realtime"
	"tableline/internal/repositories"
	"tableline/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ===========================================================================
// Order Service
// Create, edit, cancel and search to-go orders. Every successful mutation
// appends exactly one history entry and hands a notification off without
// waiting for it.
// ===========================================================================

// CreateOrderInput is a new order.
type CreateOrderInput struct {
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	Items               models.OrderItems
	PickupDate          string
	PickupTime          string
	SpecialInstructions string
}

// UpdateOrderInput holds the fields supplied by an edit. Nil means "not
// supplied"; only supplied fields are compared and applied.
type UpdateOrderInput struct {
	CustomerName        *string
	CustomerPhone       *string
	CustomerEmail       *string
	Items               models.OrderItems
	PickupDate          *string
	PickupTime          *string
	SpecialInstructions *string
}

// OrderService manages orders.
type OrderService interface {
	Create(ctx context.Context, restaurantID uuid.UUID, in CreateOrderInput, actor Actor) (*models.Order, error)
	Update(ctx context.Context, restaurantID uuid.UUID, number string, in UpdateOrderInput, actor Actor) (*models.Order, error)
	Cancel(ctx context.Context, restaurantID uuid.UUID, number string, actor Actor) (*models.Order, error)

	// ChangeStatus moves an order along confirmed -> preparing -> ready -> completed
	ChangeStatus(ctx context.Context, restaurantID uuid.UUID, number string, status models.OrderStatus, actor Actor) (*models.Order, error)

	// Search returns at most MaxSearchResults matches, newest pickup first
	Search(ctx context.Context, restaurantID uuid.UUID, q SearchQuery) ([]models.Order, error)

	Get(ctx context.Context, restaurantID uuid.UUID, number string) (*models.Order, error)
	List(ctx context.Context, restaurantID uuid.UUID, opts repositories.FindOptions) ([]models.Order, int64, error)
	Delete(ctx context.Context, restaurantID uuid.UUID, number string) error
}

type orderService struct {
	orders      repositories.OrderRepository
	restaurants repositories.RestaurantRepository
	allocator   *identifier.Allocator
	notifier    *recordNotifier
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrderService creates an OrderService.
func NewOrderService(
	orders repositories.OrderRepository,
	restaurants repositories.RestaurantRepository,
	recipients *RecipientResolver,
	allocator *identifier.Allocator,
	dispatcher notify.Dispatcher,
	publisher realtime.Publisher,
	logger *zap.Logger,
) OrderService {
	logger = logger.Named("orders")
	return &orderService{
		orders:      orders,
		restaurants: restaurants,
		allocator:   allocator,
		notifier: &recordNotifier{
			recipients: recipients,
			dispatcher: dispatcher,
			publisher:  publisher,
			logger:     logger,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Create validates, allocates a number and stores a confirmed order.
func (s *orderService) Create(ctx context.Context, restaurantID uuid.UUID, in CreateOrderInput, actor Actor) (_ *models.Order, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.order.create", attribute.String("restaurant_id", restaurantID.String()))
	defer func() { tracing.RecordError(span, err); span.End() }()

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)

	var missing []string
	if in.CustomerName == "" {
		missing = append(missing, "customer name")
	}
	if in.CustomerPhone == "" {
		missing = append(missing, "phone number")
	}
	if !validItems(in.Items) {
		missing = append(missing, "items")
	}
	if !validDate(in.PickupDate) {
		missing = append(missing, "pickup date")
	}
	if !validTime(in.PickupTime) {
		missing = append(missing, "pickup time")
	}
	if len(missing) > 0 {
		return nil, invalidFields(missing)
	}

	now := s.now()
	if err := notInPast(restaurant, in.PickupDate, now); err != nil {
		return nil, err
	}

	number, err := s.allocator.Allocate(ctx, restaurantID, s.orders.NumberExists)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		RestaurantID:        restaurantID,
		OrderNumber:         number,
		CustomerName:        in.CustomerName,
		CustomerPhone:       in.CustomerPhone,
		CustomerEmail:       strings.TrimSpace(in.CustomerEmail),
		Items:               in.Items,
		PickupDate:          in.PickupDate,
		PickupTime:          in.PickupTime,
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		Total:               in.Items.Total(),
		Status:              models.OrderConfirmed,
		Source:              actor.Source,
	}
	order.History.Append(models.HistoryCreated, now, nil, actor.ModifiedBy)

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("order_number", number),
		zap.String("source", string(order.Source)),
	)

	s.notifier.schedule(ctx, notify.KindOrderCreated, restaurant, orderNotification(order, nil, actor))
	s.notifier.publish(ctx, restaurantID, realtime.EventOrderCreated, number, string(order.Status))

	return order, nil
}

// Update applies the supplied fields that differ from the stored order.
func (s *orderService) Update(ctx context.Context, restaurantID uuid.UUID, number string, in UpdateOrderInput, actor Actor) (_ *models.Order, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.order.update",
		attribute.String("restaurant_id", restaurantID.String()),
		attribute.String("order_number", number),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	order, err := s.find(ctx, restaurantID, number)
	if err != nil {
		return nil, err
	}
	if !order.Editable() {
		return nil, orderNotEditable(order)
	}

	var invalid []string
	if in.CustomerName != nil && strings.TrimSpace(*in.CustomerName) == "" {
		invalid = append(invalid, "customer name")
	}
	if in.CustomerPhone != nil && strings.TrimSpace(*in.CustomerPhone) == "" {
		invalid = append(invalid, "phone number")
	}
	if in.Items != nil && !validItems(in.Items) {
		invalid = append(invalid, "items")
	}
	if in.PickupDate != nil && !validDate(*in.PickupDate) {
		invalid = append(invalid, "pickup date")
	}
	if in.PickupTime != nil && !validTime(*in.PickupTime) {
		invalid = append(invalid, "pickup time")
	}
	if len(invalid) > 0 {
		return nil, invalidFields(invalid)
	}

	now := s.now()
	if in.PickupDate != nil && *in.PickupDate != order.PickupDate {
		if err := notInPast(restaurant, *in.PickupDate, now); err != nil {
			return nil, err
		}
	}

	changes := models.Changes{}
	applyString(changes, "customerName", &order.CustomerName, in.CustomerName)
	applyString(changes, "customerPhone", &order.CustomerPhone, in.CustomerPhone)
	applyString(changes, "customerEmail", &order.CustomerEmail, in.CustomerEmail)
	applyString(changes, "pickupDate", &order.PickupDate, in.PickupDate)
	applyString(changes, "pickupTime", &order.PickupTime, in.PickupTime)
	applyString(changes, "specialInstructions", &order.SpecialInstructions, in.SpecialInstructions)
	if in.Items != nil && changes.Record("items", order.Items, in.Items) {
		order.Items = in.Items
		total := in.Items.Total()
		if changes.Record("total", order.Total, total) {
			order.Total = total
		}
	}

	if len(changes) == 0 {
		return nil, errNothingChanged
	}

	order.History.Append(models.HistoryUpdated, now, changes, actor.ModifiedBy)

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.logger.Info("order updated",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("order_number", number),
		zap.Int("changed_fields", len(changes)),
	)

	s.notifier.schedule(ctx, notify.KindOrderUpdated, restaurant, orderNotification(order, changes, actor))
	s.notifier.publish(ctx, restaurantID, realtime.EventOrderUpdated, number, string(order.Status))

	return order, nil
}

// Cancel moves the order to its terminal cancelled state.
func (s *orderService) Cancel(ctx context.Context, restaurantID uuid.UUID, number string, actor Actor) (_ *models.Order, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.order.cancel",
		attribute.String("restaurant_id", restaurantID.String()),
		attribute.String("order_number", number),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	order, err := s.find(ctx, restaurantID, number)
	if err != nil {
		return nil, err
	}
	if !order.Cancellable() {
		return nil, orderNotCancellable(order)
	}

	now := s.now()
	changes := models.Changes{}
	changes.Record("status", string(order.Status), string(models.OrderCancelled))

	order.Status = models.OrderCancelled
	cancelledAt := now.UTC()
	order.CancelledAt = &cancelledAt
	order.History.Append(models.HistoryCancelled, now, changes, actor.ModifiedBy)

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	s.logger.Info("order cancelled",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("order_number", number),
	)

	if order.Source == models.SourcePhone {
		s.notifier.schedule(ctx, notify.KindOrderCancelled, restaurant, orderNotification(order, nil, actor))
	}
	s.notifier.publish(ctx, restaurantID, realtime.EventOrderCancelled, number, string(order.Status))

	return order, nil
}

// ChangeStatus advances the kitchen status of an order.
func (s *orderService) ChangeStatus(ctx context.Context, restaurantID uuid.UUID, number string, status models.OrderStatus, actor Actor) (_ *models.Order, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.order.changeStatus",
		attribute.String("restaurant_id", restaurantID.String()),
		attribute.String("order_number", number),
		attribute.String("status", string(status)),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	order, err := s.find(ctx, restaurantID, number)
	if err != nil {
		return nil, err
	}
	if order.IsCancelled() {
		return nil, alreadyCancelled("order", number)
	}
	if !models.CanTransitionOrder(order.Status, status) {
		return nil, apperrors.Newf(apperrors.ErrInvalidState,
			"Order %s is %s and cannot move to %s.", number, order.Status, status)
	}

	changes := models.Changes{}
	changes.Record("status", string(order.Status), string(status))
	order.Status = status
	order.History.Append(models.HistoryStatusChanged, s.now(), changes, actor.ModifiedBy)

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("change order status: %w", err)
	}

	s.notifier.publish(ctx, restaurantID, realtime.EventOrderStatusChanged, number, string(status))

	return order, nil
}

// Search filters the tenant's orders in memory.
func (s *orderService) Search(ctx context.Context, restaurantID uuid.UUID, q SearchQuery) (_ []models.Order, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.order.search", attribute.String("restaurant_id", restaurantID.String()))
	defer func() { tracing.RecordError(span, err); span.End() }()

	if q.IsEmpty() {
		return nil, errEmptySearch
	}

	candidates, err := s.orders.FindForSearch(ctx, restaurantID, strings.TrimSpace(q.Date))
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}

	m := newSearchMatcher(q)
	found := make([]models.Order, 0, len(candidates))
	for _, o := range candidates {
		if m.matches(o.CustomerName, o.CustomerPhone) {
			found = append(found, o)
		}
	}

	slices.SortStableFunc(found, func(a, b models.Order) int {
		return newerFirst(a.PickupDate, a.PickupTime, b.PickupDate, b.PickupTime)
	})
	if len(found) > MaxSearchResults {
		found = found[:MaxSearchResults]
	}
	return found, nil
}

func (s *orderService) Get(ctx context.Context, restaurantID uuid.UUID, number string) (*models.Order, error) {
	return s.find(ctx, restaurantID, number)
}

func (s *orderService) List(ctx context.Context, restaurantID uuid.UUID, opts repositories.FindOptions) ([]models.Order, int64, error) {
	return s.orders.ListByRestaurant(ctx, restaurantID, opts)
}

// Delete removes the order permanently. Only the dashboard deletes records.
func (s *orderService) Delete(ctx context.Context, restaurantID uuid.UUID, number string) error {
	if err := s.orders.Delete(ctx, restaurantID, number); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return recordNotFound("order", number)
		}
		return fmt.Errorf("delete order: %w", err)
	}
	s.notifier.publish(ctx, restaurantID, realtime.EventOrderDeleted, number, "")
	return nil
}

func (s *orderService) find(ctx context.Context, restaurantID uuid.UUID, number string) (*models.Order, error) {
	order, err := s.orders.FindByNumber(ctx, restaurantID, strings.TrimSpace(number))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, recordNotFound("order", number)
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func orderNotification(order *models.Order, changes models.Changes, actor Actor) *notify.RecordNotification {
	return &notify.RecordNotification{
		Number: order.OrderNumber,
		Customer: notify.Customer{
			Name:  order.CustomerName,
			Phone: order.CustomerPhone,
			Email: order.CustomerEmail,
		},
		Order:      order,
		Changes:    changes,
		ModifiedBy: actor.ModifiedBy,
	}
}
