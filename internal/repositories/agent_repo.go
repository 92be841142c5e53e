package repositories

import (
	"context"

	"tableline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Agent Repository GORM Implementation
// ===========================================================================

type agentRepo struct {
	db *gorm.DB
}

// NewAgentRepository creates an AgentRepository backed by GORM.
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepo{db: db}
}

func (r *agentRepo) Create(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *agentRepo) Update(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Save(agent).Error
}

func (r *agentRepo) FindByID(ctx context.Context, restaurantID, id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND id = ?", restaurantID, id).
		First(&agent).Error
	if err != nil {
		return nil, notFound(err, "agent")
	}
	return &agent, nil
}

func (r *agentRepo) FindByProviderAgentID(ctx context.Context, providerAgentID string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).
		Where("provider_agent_id = ?", providerAgentID).
		First(&agent).Error
	if err != nil {
		return nil, notFound(err, "agent")
	}
	return &agent, nil
}

func (r *agentRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at ASC").
		Find(&agents).Error
	return agents, err
}
