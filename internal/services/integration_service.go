package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntegrationInput stores a credential for one provider.
type IntegrationInput struct {
	APIKey     string
	TenantSlug string
}

// IntegrationService manages third-party credentials. Returned models never
// serialize the API key; callers render MaskedKey.
type IntegrationService interface {
	List(ctx context.Context, restaurantID uuid.UUID) ([]models.Integration, error)
	Save(ctx context.Context, restaurantID uuid.UUID, provider string, in IntegrationInput) (*models.Integration, error)
	Delete(ctx context.Context, restaurantID uuid.UUID, provider string) error
}

type integrationService struct {
	integrations repositories.IntegrationRepository
	logger       *zap.Logger
}

// NewIntegrationService creates an IntegrationService.
func NewIntegrationService(integrations repositories.IntegrationRepository, logger *zap.Logger) IntegrationService {
	return &integrationService{integrations: integrations, logger: logger.Named("integrations")}
}

func (s *integrationService) List(ctx context.Context, restaurantID uuid.UUID) ([]models.Integration, error) {
	return s.integrations.ListByRestaurant(ctx, restaurantID)
}

func (s *integrationService) Save(ctx context.Context, restaurantID uuid.UUID, provider string, in IntegrationInput) (*models.Integration, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "provider is required")
	}
	if strings.TrimSpace(in.APIKey) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "API key is required")
	}

	integration := &models.Integration{
		RestaurantID: restaurantID,
		Provider:     provider,
		APIKey:       strings.TrimSpace(in.APIKey),
		TenantSlug:   strings.TrimSpace(in.TenantSlug),
		Status:       models.IntegrationConnected,
	}
	if err := s.integrations.Upsert(ctx, integration); err != nil {
		return nil, fmt.Errorf("save integration: %w", err)
	}

	s.logger.Info("integration saved",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("provider", provider),
		zap.String("api_key", integration.MaskedKey()),
	)

	return s.integrations.FindByProvider(ctx, restaurantID, provider)
}

func (s *integrationService) Delete(ctx context.Context, restaurantID uuid.UUID, provider string) error {
	return s.integrations.Delete(ctx, restaurantID, strings.ToLower(strings.TrimSpace(provider)))
}
