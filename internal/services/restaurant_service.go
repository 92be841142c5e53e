package services

import (
	"context"
	"fmt"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/repositories"
	"tableline/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// HoursResult reports an hours change and the prompt refresh it triggered.
type HoursResult struct {
	Restaurant    *models.Restaurant
	AgentsUpdated int

	// SyncError is set when some agent prompts could not be refreshed;
	// the hours themselves are saved
	SyncError error
}

// RestaurantService reads restaurants and their menus and changes hours.
type RestaurantService interface {
	Get(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error)
	Menu(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error)
	UpdateHours(ctx context.Context, restaurantID uuid.UUID, hours models.OperatingHours) (*HoursResult, error)
}

type restaurantService struct {
	restaurants repositories.RestaurantRepository
	menu        repositories.MenuRepository
	agents      AgentService
	logger      *zap.Logger
}

// NewRestaurantService creates a RestaurantService.
func NewRestaurantService(
	restaurants repositories.RestaurantRepository,
	menu repositories.MenuRepository,
	agents AgentService,
	logger *zap.Logger,
) RestaurantService {
	return &restaurantService{
		restaurants: restaurants,
		menu:        menu,
		agents:      agents,
		logger:      logger.Named("restaurants"),
	}
}

func (s *restaurantService) Get(ctx context.Context, restaurantID uuid.UUID) (*models.Restaurant, error) {
	return s.restaurants.FindByID(ctx, restaurantID)
}

func (s *restaurantService) Menu(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, error) {
	items, err := s.menu.ListAvailable(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// UpdateHours saves the weekly schedule and refreshes every agent prompt.
func (s *restaurantService) UpdateHours(ctx context.Context, restaurantID uuid.UUID, hours models.OperatingHours) (_ *HoursResult, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.restaurant.updateHours", attribute.String("restaurant_id", restaurantID.String()))
	defer func() { tracing.RecordError(span, err); span.End() }()

	if err := validateHours(hours); err != nil {
		return nil, err
	}

	if err := s.restaurants.UpdateHours(ctx, restaurantID, hours); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	updated, syncErr := s.agents.RegeneratePrompts(ctx, restaurant)
	if syncErr != nil {
		s.logger.Warn("agent prompts partially refreshed",
			zap.String("restaurant_id", restaurantID.String()),
			zap.Int("agents_updated", updated),
			zap.Error(syncErr),
		)
	}

	return &HoursResult{
		Restaurant:    restaurant,
		AgentsUpdated: updated,
		SyncError:     syncErr,
	}, nil
}

func validateHours(hours models.OperatingHours) error {
	seen := make(map[string]bool, len(hours))
	for _, d := range hours {
		if seen[d.Day] {
			return apperrors.Newf(apperrors.ErrInvalidInput, "%s is listed twice", d.Day)
		}
		seen[d.Day] = true

		if d.Closed {
			continue
		}
		if !validTime(d.Open) || !validTime(d.Close) {
			return apperrors.Newf(apperrors.ErrInvalidInput, "%s needs open and close times as HH:MM", d.Day)
		}
		if d.Open == d.Close {
			return apperrors.Newf(apperrors.ErrInvalidInput, "%s opens and closes at the same time", d.Day)
		}
	}
	return nil
}
