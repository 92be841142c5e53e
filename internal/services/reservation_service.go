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
// Reservation Service
// Same lifecycle as orders without the kitchen statuses: confirmed until
// cancelled.
// ===========================================================================

// CreateReservationInput is a new reservation.
type CreateReservationInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Date            string
	Time            string
	PartySize       int
	SpecialRequests string
}

// UpdateReservationInput holds the fields supplied by an edit.
type UpdateReservationInput struct {
	CustomerName    *string
	CustomerPhone   *string
	CustomerEmail   *string
	Date            *string
	Time            *string
	PartySize       *int
	SpecialRequests *string
}

// ReservationService manages reservations.
type ReservationService interface {
	Create(ctx context.Context, restaurantID uuid.UUID, in CreateReservationInput, actor Actor) (*models.Reservation, error)
	Update(ctx context.Context, restaurantID uuid.UUID, number string, in UpdateReservationInput, actor Actor) (*models.Reservation, error)
	Cancel(ctx context.Context, restaurantID uuid.UUID, number string, actor Actor) (*models.Reservation, error)
	Search(ctx context.Context, restaurantID uuid.UUID, q SearchQuery) ([]models.Reservation, error)
	Get(ctx context.Context, restaurantID uuid.UUID, number string) (*models.Reservation, error)
	List(ctx context.Context, restaurantID uuid.UUID, opts repositories.FindOptions) ([]models.Reservation, int64, error)
	Delete(ctx context.Context, restaurantID uuid.UUID, number string) error
}

type reservationService struct {
	reservations repositories.ReservationRepository
	restaurants  repositories.RestaurantRepository
	allocator    *identifier.Allocator
	notifier     *recordNotifier
	logger       *zap.Logger
	now          func() time.Time
}

// NewReservationService creates a ReservationService.
func NewReservationService(
	reservations repositories.ReservationRepository,
	restaurants repositories.RestaurantRepository,
	recipients *RecipientResolver,
	allocator *identifier.Allocator,
	dispatcher notify.Dispatcher,
	publisher realtime.Publisher,
	logger *zap.Logger,
) ReservationService {
	logger = logger.Named("reservations")
	return &reservationService{
		reservations: reservations,
		restaurants:  restaurants,
		allocator:    allocator,
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

func (s *reservationService) Create(ctx context.Context, restaurantID uuid.UUID, in CreateReservationInput, actor Actor) (_ *models.Reservation, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.reservation.create", attribute.String("restaurant_id", restaurantID.String()))
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
	if !validDate(in.Date) {
		missing = append(missing, "date")
	}
	if !validTime(in.Time) {
		missing = append(missing, "time")
	}
	if in.PartySize < 1 {
		missing = append(missing, "party size")
	}
	if len(missing) > 0 {
		return nil, invalidFields(missing)
	}

	now := s.now()
	if err := notInPast(restaurant, in.Date, now); err != nil {
		return nil, err
	}

	number, err := s.allocator.Allocate(ctx, restaurantID, s.reservations.NumberExists)
	if err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		RestaurantID:      restaurantID,
		ReservationNumber: number,
		CustomerName:      in.CustomerName,
		CustomerPhone:     in.CustomerPhone,
		CustomerEmail:     strings.TrimSpace(in.CustomerEmail),
		Date:              in.Date,
		Time:              in.Time,
		PartySize:         in.PartySize,
		SpecialRequests:   strings.TrimSpace(in.SpecialRequests),
		Status:            models.ReservationConfirmed,
		Source:            actor.Source,
	}
	reservation.History.Append(models.HistoryCreated, now, nil, actor.ModifiedBy)

	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.logger.Info("reservation created",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("reservation_number", number),
		zap.Int("party_size", in.PartySize),
	)

	s.notifier.schedule(ctx, notify.KindReservationCreated, restaurant, reservationNotification(reservation, nil, actor))
	s.notifier.publish(ctx, restaurantID, realtime.EventReservationCreated, number, string(reservation.Status))

	return reservation, nil
}

func (s *reservationService) Update(ctx context.Context, restaurantID uuid.UUID, number string, in UpdateReservationInput, actor Actor) (_ *models.Reservation, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.reservation.update",
		attribute.String("restaurant_id", restaurantID.String()),
		attribute.String("reservation_number", number),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	reservation, err := s.find(ctx, restaurantID, number)
	if err != nil {
		return nil, err
	}
	if reservation.IsCancelled() {
		return nil, alreadyCancelled("reservation", number)
	}

	var invalid []string
	if in.CustomerName != nil && strings.TrimSpace(*in.CustomerName) == "" {
		invalid = append(invalid, "customer name")
	}
	if in.CustomerPhone != nil && strings.TrimSpace(*in.CustomerPhone) == "" {
		invalid = append(invalid, "phone number")
	}
	if in.Date != nil && !validDate(*in.Date) {
		invalid = append(invalid, "date")
	}
	if in.Time != nil && !validTime(*in.Time) {
		invalid = append(invalid, "time")
	}
	if in.PartySize != nil && *in.PartySize < 1 {
		invalid = append(invalid, "party size")
	}
	if len(invalid) > 0 {
		return nil, invalidFields(invalid)
	}

	now := s.now()
	if in.Date != nil && *in.Date != reservation.Date {
		if err := notInPast(restaurant, *in.Date, now); err != nil {
			return nil, err
		}
	}

	changes := models.Changes{}
	applyString(changes, "customerName", &reservation.CustomerName, in.CustomerName)
	applyString(changes, "customerPhone", &reservation.CustomerPhone, in.CustomerPhone)
	applyString(changes, "customerEmail", &reservation.CustomerEmail, in.CustomerEmail)
	applyString(changes, "date", &reservation.Date, in.Date)
	applyString(changes, "time", &reservation.Time, in.Time)
	applyString(changes, "specialRequests", &reservation.SpecialRequests, in.SpecialRequests)
	if in.PartySize != nil && changes.Record("partySize", reservation.PartySize, *in.PartySize) {
		reservation.PartySize = *in.PartySize
	}

	if len(changes) == 0 {
		return nil, errNothingChanged
	}

	reservation.History.Append(models.HistoryUpdated, now, changes, actor.ModifiedBy)

	if err := s.reservations.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}

	s.logger.Info("reservation updated",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("reservation_number", number),
		zap.Int("changed_fields", len(changes)),
	)

	s.notifier.schedule(ctx, notify.KindReservationUpdated, restaurant, reservationNotification(reservation, changes, actor))
	s.notifier.publish(ctx, restaurantID, realtime.EventReservationUpdated, number, string(reservation.Status))

	return reservation, nil
}

func (s *reservationService) Cancel(ctx context.Context, restaurantID uuid.UUID, number string, actor Actor) (_ *models.Reservation, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.reservation.cancel",
		attribute.String("restaurant_id", restaurantID.String()),
		attribute.String("reservation_number", number),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	reservation, err := s.find(ctx, restaurantID, number)
	if err != nil {
		return nil, err
	}
	if reservation.IsCancelled() {
		return nil, alreadyCancelled("reservation", number)
	}

	now := s.now()
	changes := models.Changes{}
	changes.Record("status", string(reservation.Status), string(models.ReservationCancelled))

	reservation.Status = models.ReservationCancelled
	cancelledAt := now.UTC()
	reservation.CancelledAt = &cancelledAt
	reservation.History.Append(models.HistoryCancelled, now, changes, actor.ModifiedBy)

	if err := s.reservations.Update(ctx, reservation); err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	s.logger.Info("reservation cancelled",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("reservation_number", number),
	)

	if reservation.Source == models.SourcePhone {
		s.notifier.schedule(ctx, notify.KindReservationCancelled, restaurant, reservationNotification(reservation, nil, actor))
	}
	s.notifier.publish(ctx, restaurantID, realtime.EventReservationCancelled, number, string(reservation.Status))

	return reservation, nil
}

func (s *reservationService) Search(ctx context.Context, restaurantID uuid.UUID, q SearchQuery) (_ []models.Reservation, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.reservation.search", attribute.String("restaurant_id", restaurantID.String()))
	defer func() { tracing.RecordError(span, err); span.End() }()

	if q.IsEmpty() {
		return nil, errEmptySearch
	}

	candidates, err := s.reservations.FindForSearch(ctx, restaurantID, strings.TrimSpace(q.Date))
	if err != nil {
		return nil, fmt.Errorf("search reservations: %w", err)
	}

	m := newSearchMatcher(q)
	found := make([]models.Reservation, 0, len(candidates))
	for _, r := range candidates {
		if m.matches(r.CustomerName, r.CustomerPhone) {
			found = append(found, r)
		}
	}

	slices.SortStableFunc(found, func(a, b models.Reservation) int {
		return newerFirst(a.Date, a.Time, b.Date, b.Time)
	})
	if len(found) > MaxSearchResults {
		found = found[:MaxSearchResults]
	}
	return found, nil
}

func (s *reservationService) Get(ctx context.Context, restaurantID uuid.UUID, number string) (*models.Reservation, error) {
	return s.find(ctx, restaurantID, number)
}

func (s *reservationService) List(ctx context.Context, restaurantID uuid.UUID, opts repositories.FindOptions) ([]models.Reservation, int64, error) {
	return s.reservations.ListByRestaurant(ctx, restaurantID, opts)
}

func (s *reservationService) Delete(ctx context.Context, restaurantID uuid.UUID, number string) error {
	if err := s.reservations.Delete(ctx, restaurantID, number); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return recordNotFound("reservation", number)
		}
		return fmt.Errorf("delete reservation: %w", err)
	}
	s.notifier.publish(ctx, restaurantID, realtime.EventReservationDeleted, number, "")
	return nil
}

func (s *reservationService) find(ctx context.Context, restaurantID uuid.UUID, number string) (*models.Reservation, error) {
	reservation, err := s.reservations.FindByNumber(ctx, restaurantID, strings.TrimSpace(number))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, recordNotFound("reservation", number)
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	return reservation, nil
}

func reservationNotification(r *models.Reservation, changes models.Changes, actor Actor) *notify.RecordNotification {
	return &notify.RecordNotification{
		Number: r.ReservationNumber,
		Customer: notify.Customer{
			Name:  r.CustomerName,
			Phone: r.CustomerPhone,
			Email: r.CustomerEmail,
		},
		Reservation: r,
		Changes:     changes,
		ModifiedBy:  actor.ModifiedBy,
	}
}
