package services

import (
	"context"
	"strings"
	"time"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/notify"
	"tableline/internal/realtime"
	"tableline/internal/voice"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Shared pieces of the record services
// ===========================================================================

// Actor is who performs a mutation.
type Actor struct {
	// ModifiedBy is written into history entries
	ModifiedBy string

	// Source is stamped on records the actor creates
	Source models.Source
}

// VoiceAgentActor is the actor of every webhook mutation.
func VoiceAgentActor() Actor {
	return Actor{ModifiedBy: models.ModifiedByAgent, Source: models.SourcePhone}
}

// DashboardActor is a signed-in dashboard user.
func DashboardActor(email string) Actor {
	return Actor{ModifiedBy: email, Source: models.SourceDashboard}
}

// SearchQuery filters a tenant's records. Empty fields are ignored.
type SearchQuery struct {
	Name  string
	Phone string
	Date  string
}

// IsEmpty reports whether no criterion is set.
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Name) == "" && digitsOnly(q.Phone) == "" && strings.TrimSpace(q.Date) == ""
}

// MaxSearchResults caps search output so the agent's spoken answer stays short.
const MaxSearchResults = 10

// recordNotifier builds notification payloads and publishes realtime events
// after a committed mutation. Neither outcome is observed by the caller.
type recordNotifier struct {
	recipients *RecipientResolver
	dispatcher notify.Dispatcher
	publisher  realtime.Publisher
	logger     *zap.Logger
}

func (n *recordNotifier) schedule(ctx context.Context, kind notify.Kind, restaurant *models.Restaurant, payload *notify.RecordNotification) {
	recipients, err := n.recipients.Resolve(ctx, restaurant)
	if err != nil {
		// the customer SMS can still go out
		n.logger.Warn("resolve admin recipients",
			zap.String("restaurant_id", restaurant.ID.String()),
			zap.Error(err),
		)
	}
	payload.RestaurantName = restaurant.Name
	payload.Recipients = recipients
	n.dispatcher.Schedule(ctx, kind, restaurant.ID, payload)
}

func (n *recordNotifier) publish(ctx context.Context, restaurantID uuid.UUID, eventType, number, status string) {
	event := &realtime.RecordEvent{
		Type:         eventType,
		RestaurantID: restaurantID,
		Number:       number,
		Status:       status,
		At:           time.Now().UTC(),
	}
	go func() {
		if err := n.publisher.PublishRecordEvent(context.WithoutCancel(ctx), restaurantID, event); err != nil {
			n.logger.Warn("failed to publish record event",
				zap.String("type", eventType),
				zap.String("number", number),
				zap.Error(err),
			)
		}
	}()
}

// ===========================================================================
// Validation helpers
// ===========================================================================

func validDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

func validTime(s string) bool {
	_, err := time.Parse(models.TimeLayout, s)
	return err == nil
}

func invalidFields(fields []string) error {
	return apperrors.New(apperrors.ErrInvalidInput, voice.InvalidField(fields))
}

// notInPast rejects dates before today in the restaurant's timezone.
// YYYY-MM-DD strings order lexically.
func notInPast(restaurant *models.Restaurant, date string, now time.Time) error {
	today := restaurant.Today(now)
	if date < today {
		return apperrors.New(apperrors.ErrInvalidInput, voice.PastDate(date, today))
	}
	return nil
}

func validItems(items models.OrderItems) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity < 1 || item.Price < 0 {
			return false
		}
	}
	return true
}

func recordNotFound(kind, number string) error {
	return apperrors.New(apperrors.ErrNotFound, voice.NotFound(kind, number))
}

func alreadyCancelled(kind, number string) error {
	return apperrors.New(apperrors.ErrInvalidState, voice.AlreadyCancelled(kind, number))
}

// orderNotEditable explains why order rejects an edit.
func orderNotEditable(order *models.Order) error {
	switch {
	case order.IsCancelled():
		return alreadyCancelled("order", order.OrderNumber)
	case order.IsCompleted():
		return apperrors.New(apperrors.ErrInvalidState, voice.OrderCompleted(order.OrderNumber))
	default:
		return apperrors.New(apperrors.ErrInvalidState, voice.OrderInKitchen(order.OrderNumber))
	}
}

// orderNotCancellable explains why order rejects a cancellation.
func orderNotCancellable(order *models.Order) error {
	if order.IsCompleted() {
		return apperrors.New(apperrors.ErrInvalidState, voice.OrderCompleted(order.OrderNumber))
	}
	return alreadyCancelled("order", order.OrderNumber)
}

var errNothingChanged = apperrors.New(apperrors.ErrInvalidInput, voice.MsgNothingChanged)

var errEmptySearch = apperrors.New(apperrors.ErrInvalidInput, "Please give me a name, a phone number, or a date to search for.")

// applyString records and applies an optional string field.
func applyString(changes models.Changes, field string, target *string, value *string) {
	if value == nil {
		return
	}
	v := strings.TrimSpace(*value)
	if changes.Record(field, *target, v) {
		*target = v
	}
}
