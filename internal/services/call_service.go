package services

import (
	"context"
	"fmt"

	apperrors "tableline/internal/errors"
	"tableline/internal/notify"
	"tableline/internal/repositories"
	"tableline/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ===========================================================================
// Call Service
// Turns the provider's post-call webhook into a call_analysis notification
// for the restaurant's admins.
// ===========================================================================

// EventCallEnded is the post-call event that triggers an analysis.
const EventCallEnded = "call_ended"

// CallService handles finished calls.
type CallService interface {
	// ReportCall schedules a call summary. It returns false when the event
	// is not one that triggers a summary.
	ReportCall(ctx context.Context, event string, call notify.CallDetails) (bool, error)
}

type callService struct {
	agents      AgentService
	restaurants repositories.RestaurantRepository
	recipients  *RecipientResolver
	dispatcher  notify.Dispatcher
	logger      *zap.Logger
}

// NewCallService creates a CallService.
func NewCallService(
	agents AgentService,
	restaurants repositories.RestaurantRepository,
	recipients *RecipientResolver,
	dispatcher notify.Dispatcher,
	logger *zap.Logger,
) CallService {
	return &callService{
		agents:      agents,
		restaurants: restaurants,
		recipients:  recipients,
		dispatcher:  dispatcher,
		logger:      logger.Named("calls"),
	}
}

func (s *callService) ReportCall(ctx context.Context, event string, call notify.CallDetails) (_ bool, err error) {
	if event != "" && event != EventCallEnded {
		return false, nil
	}

	ctx, span := tracing.AddSpan(ctx, "services.call.report",
		attribute.String("call_id", call.CallID),
		attribute.String("agent_id", call.AgentID),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	if call.AgentID == "" {
		return false, apperrors.New(apperrors.ErrInvalidInput, "call.agent_id is required")
	}

	agent, err := s.agents.ResolveByProviderID(ctx, call.AgentID)
	if err != nil {
		return false, err
	}
	restaurant, err := s.restaurants.FindByID(ctx, agent.RestaurantID)
	if err != nil {
		return false, fmt.Errorf("find restaurant: %w", err)
	}

	recipients, err := s.recipients.Resolve(ctx, restaurant)
	if err != nil {
		s.logger.Warn("resolve admin recipients",
			zap.String("restaurant_id", restaurant.ID.String()),
			zap.Error(err),
		)
	}
	if len(recipients) == 0 {
		s.logger.Info("no recipients for call summary",
			zap.String("restaurant_id", restaurant.ID.String()),
			zap.String("call_id", call.CallID),
		)
		return true, nil
	}

	s.dispatcher.Schedule(ctx, notify.KindCallAnalysis, restaurant.ID, &notify.CallNotification{
		RestaurantName: restaurant.Name,
		Timezone:       restaurant.Location().String(),
		Recipients:     recipients,
		AgentName:      agent.Name,
		Call:           call,
	})
	return true, nil
}
