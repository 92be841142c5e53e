package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/provider"
	"tableline/internal/repositories"
	"tableline/internal/voice"
	"tableline/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ===========================================================================
// Agent Service
// Keeps the local agent configuration and its copy at the voice-agent
// provider in step. The provider is written first; the local row only
// changes once the provider accepted the change.
// ===========================================================================

// VoiceAgentProvider is the subset of the provider client the service uses.
type VoiceAgentProvider interface {
	CreateLLM(ctx context.Context, in provider.LLMRequest) (*provider.LLM, error)
	UpdateLLM(ctx context.Context, llmID string, in provider.LLMRequest) error
	CreateAgent(ctx context.Context, in provider.AgentRequest) (*provider.AgentResponse, error)
	UpdateAgent(ctx context.Context, agentID string, in provider.AgentRequest) error
}

// responseEngineType is the provider's engine kind for a hosted LLM.
const responseEngineType = "retell-llm"

// AgentInput configures an agent. On update nil fields are left unchanged.
type AgentInput struct {
	Name                    *string
	VoiceID                 *string
	VoiceSpeed              *float64
	VoiceTemperature        *float64
	Volume                  *float64
	Language                *string
	Responsiveness          *float64
	InterruptionSensitivity *float64
	EndCallAfterSilenceMs   *int
	MaxCallDurationMs       *int
	BeginMessage            *string
	PhoneNumber             *string
	IsActive                *bool

	// Prompt overrides the generated prompt until the next hours change
	Prompt *string
}

// AgentService manages voice agents.
type AgentService interface {
	List(ctx context.Context, restaurantID uuid.UUID) ([]models.Agent, error)
	Create(ctx context.Context, restaurantID uuid.UUID, in AgentInput) (*models.Agent, error)
	Update(ctx context.Context, restaurantID, agentID uuid.UUID, in AgentInput) (*models.Agent, error)

	// RegeneratePrompts rebuilds every agent prompt of the restaurant and
	// pushes it to the provider. It returns the number of agents updated.
	RegeneratePrompts(ctx context.Context, restaurant *models.Restaurant) (int, error)

	// ResolveByProviderID maps a provider agent id to the local agent
	ResolveByProviderID(ctx context.Context, providerAgentID string) (*models.Agent, error)
}

type agentService struct {
	agents        repositories.AgentRepository
	restaurants   repositories.RestaurantRepository
	provider      VoiceAgentProvider
	publicBaseURL string
	logger        *zap.Logger
}

// NewAgentService creates an AgentService. publicBaseURL is where the
// provider reaches the webhook endpoints.
func NewAgentService(
	agents repositories.AgentRepository,
	restaurants repositories.RestaurantRepository,
	voiceProvider VoiceAgentProvider,
	publicBaseURL string,
	logger *zap.Logger,
) AgentService {
	return &agentService{
		agents:        agents,
		restaurants:   restaurants,
		provider:      voiceProvider,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.Named("agents"),
	}
}

func (s *agentService) List(ctx context.Context, restaurantID uuid.UUID) ([]models.Agent, error) {
	return s.agents.ListByRestaurant(ctx, restaurantID)
}

func (s *agentService) Create(ctx context.Context, restaurantID uuid.UUID, in AgentInput) (_ *models.Agent, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.agent.create", attribute.String("restaurant_id", restaurantID.String()))
	defer func() { tracing.RecordError(span, err); span.End() }()

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "agent name is required")
	}

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	agent := &models.Agent{RestaurantID: restaurantID, IsActive: true}
	applyAgentInput(agent, in)
	agent.ApplyDefaults()
	if in.Prompt == nil || strings.TrimSpace(*in.Prompt) == "" {
		agent.Prompt = voice.BuildPrompt(restaurant, agent)
	}

	llm, err := s.provider.CreateLLM(ctx, s.llmRequest(restaurantID, agent))
	if err != nil {
		return nil, err
	}
	agent.ProviderLLMID = llm.LLMID

	req := s.agentRequest(agent)
	req.ResponseEngine = &provider.ResponseEngine{Type: responseEngineType, LLMID: llm.LLMID}
	created, err := s.provider.CreateAgent(ctx, req)
	if err != nil {
		return nil, err
	}
	agent.ProviderAgentID = created.AgentID

	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	s.logger.Info("agent created",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("agent_id", agent.ID.String()),
		zap.String("provider_agent_id", agent.ProviderAgentID),
	)
	return agent, nil
}

func (s *agentService) Update(ctx context.Context, restaurantID, agentID uuid.UUID, in AgentInput) (_ *models.Agent, err error) {
	ctx, span := tracing.AddSpan(ctx, "services.agent.update",
		attribute.String("restaurant_id", restaurantID.String()),
		attribute.String("agent_id", agentID.String()),
	)
	defer func() { tracing.RecordError(span, err); span.End() }()

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "agent name cannot be empty")
	}

	agent, err := s.agents.FindByID(ctx, restaurantID, agentID)
	if err != nil {
		return nil, err
	}

	applyAgentInput(agent, in)

	if err := s.push(ctx, agent); err != nil {
		return nil, err
	}

	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return agent, nil
}

func (s *agentService) RegeneratePrompts(ctx context.Context, restaurant *models.Restaurant) (int, error) {
	ctx, span := tracing.AddSpan(ctx, "services.agent.regeneratePrompts", attribute.String("restaurant_id", restaurant.ID.String()))
	defer span.End()

	agents, err := s.agents.ListByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return 0, fmt.Errorf("list agents: %w", err)
	}

	var (
		updated int
		errs    []error
	)
	for i := range agents {
		agent := &agents[i]
		agent.Prompt = voice.BuildPrompt(restaurant, agent)

		if agent.ProviderLLMID != "" {
			if err := s.provider.UpdateLLM(ctx, agent.ProviderLLMID, s.llmRequest(restaurant.ID, agent)); err != nil {
				s.logger.Warn("push regenerated prompt",
					zap.String("agent_id", agent.ID.String()),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("agent %s: %w", agent.Name, err))
				continue
			}
		}

		if err := s.agents.Update(ctx, agent); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", agent.Name, err))
			continue
		}
		updated++
	}

	err = errors.Join(errs...)
	tracing.RecordError(span, err)
	return updated, err
}

func (s *agentService) ResolveByProviderID(ctx context.Context, providerAgentID string) (*models.Agent, error) {
	if providerAgentID == "" {
		return nil, apperrors.New(apperrors.ErrNotFound, "agent not found")
	}
	return s.agents.FindByProviderAgentID(ctx, providerAgentID)
}

// push writes the agent's prompt and voice settings to the provider.
func (s *agentService) push(ctx context.Context, agent *models.Agent) error {
	if agent.ProviderLLMID != "" {
		if err := s.provider.UpdateLLM(ctx, agent.ProviderLLMID, s.llmRequest(agent.RestaurantID, agent)); err != nil {
			return err
		}
	}
	if agent.ProviderAgentID != "" {
		if err := s.provider.UpdateAgent(ctx, agent.ProviderAgentID, s.agentRequest(agent)); err != nil {
			return err
		}
	}
	return nil
}

func (s *agentService) llmRequest(restaurantID uuid.UUID, agent *models.Agent) provider.LLMRequest {
	return provider.LLMRequest{
		GeneralPrompt: agent.Prompt,
		BeginMessage:  agent.BeginMessage,
		GeneralTools:  voice.Tools(s.publicBaseURL, restaurantID),
	}
}

func (s *agentService) agentRequest(agent *models.Agent) provider.AgentRequest {
	return provider.AgentRequest{
		AgentName:               agent.Name,
		VoiceID:                 agent.VoiceID,
		VoiceSpeed:              agent.VoiceSpeed,
		VoiceTemperature:        agent.VoiceTemperature,
		Volume:                  agent.Volume,
		Language:                agent.Language,
		Responsiveness:          agent.Responsiveness,
		InterruptionSensitivity: agent.InterruptionSensitivity,
		EndCallAfterSilenceMs:   agent.EndCallAfterSilenceMs,
		MaxCallDurationMs:       agent.MaxCallDurationMs,
		WebhookURL:              voice.PostCallURL(s.publicBaseURL),
	}
}

func applyAgentInput(agent *models.Agent, in AgentInput) {
	if in.Name != nil {
		agent.Name = strings.TrimSpace(*in.Name)
	}
	if in.VoiceID != nil {
		agent.VoiceID = *in.VoiceID
	}
	if in.VoiceSpeed != nil {
		agent.VoiceSpeed = *in.VoiceSpeed
	}
	if in.VoiceTemperature != nil {
		agent.VoiceTemperature = *in.VoiceTemperature
	}
	if in.Volume != nil {
		agent.Volume = *in.Volume
	}
	if in.Language != nil {
		agent.Language = *in.Language
	}
	if in.Responsiveness != nil {
		agent.Responsiveness = *in.Responsiveness
	}
	if in.InterruptionSensitivity != nil {
		agent.InterruptionSensitivity = *in.InterruptionSensitivity
	}
	if in.EndCallAfterSilenceMs != nil {
		agent.EndCallAfterSilenceMs = *in.EndCallAfterSilenceMs
	}
	if in.MaxCallDurationMs != nil {
		agent.MaxCallDurationMs = *in.MaxCallDurationMs
	}
	if in.BeginMessage != nil {
		agent.BeginMessage = *in.BeginMessage
	}
	if in.PhoneNumber != nil {
		agent.PhoneNumber = *in.PhoneNumber
	}
	if in.IsActive != nil {
		agent.IsActive = *in.IsActive
	}
	if in.Prompt != nil && strings.TrimSpace(*in.Prompt) != "" {
		agent.Prompt = *in.Prompt
	}
}
