package repositories

import (
	"context"
	"time"

	"tableline/internal/models"

	"github.com/google/uuid"
	"github.com/viccon/sturdyc"
)

// ===========================================================================
// Read-through caches
// Every webhook call resolves its restaurant (and, for post-call, the agent by
// provider id) before doing anything else. These decorators keep those reads
// off the database. Writes go to the wrapped repository and evict the key.
// ===========================================================================

const (
	cacheShards          = 10
	cacheEvictionPercent = 10
)

// NewCache creates a sturdyc client sized for tenant lookups.
func NewCache[T any](capacity int, ttl time.Duration) *sturdyc.Client[T] {
	return sturdyc.New[T](capacity, cacheShards, ttl, cacheEvictionPercent)
}

type cachedRestaurantRepo struct {
	RestaurantRepository
	cache *sturdyc.Client[models.Restaurant]
}

// NewCachedRestaurantRepository wraps repo with a read-through cache on FindByID.
func NewCachedRestaurantRepository(repo RestaurantRepository, cache *sturdyc.Client[models.Restaurant]) RestaurantRepository {
	return &cachedRestaurantRepo{RestaurantRepository: repo, cache: cache}
}

func (r *cachedRestaurantRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := r.cache.GetOrFetch(ctx, "restaurant:"+id.String(), func(ctx context.Context) (models.Restaurant, error) {
		found, err := r.RestaurantRepository.FindByID(ctx, id)
		if err != nil {
			return models.Restaurant{}, err
		}
		return *found, nil
	})
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *cachedRestaurantRepo) UpdateHours(ctx context.Context, id uuid.UUID, hours models.OperatingHours) error {
	if err := r.RestaurantRepository.UpdateHours(ctx, id, hours); err != nil {
		return err
	}
	r.cache.Delete("restaurant:" + id.String())
	return nil
}

type cachedAgentRepo struct {
	AgentRepository
	cache *sturdyc.Client[models.Agent]
}

// NewCachedAgentRepository wraps repo with a read-through cache on
// FindByProviderAgentID.
func NewCachedAgentRepository(repo AgentRepository, cache *sturdyc.Client[models.Agent]) AgentRepository {
	return &cachedAgentRepo{AgentRepository: repo, cache: cache}
}

func (r *cachedAgentRepo) FindByProviderAgentID(ctx context.Context, providerAgentID string) (*models.Agent, error) {
	agent, err := r.cache.GetOrFetch(ctx, "agent:"+providerAgentID, func(ctx context.Context) (models.Agent, error) {
		found, err := r.AgentRepository.FindByProviderAgentID(ctx, providerAgentID)
		if err != nil {
			return models.Agent{}, err
		}
		return *found, nil
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *cachedAgentRepo) Update(ctx context.Context, agent *models.Agent) error {
	// read the stored provider id before the update may change it
	if previous, err := r.AgentRepository.FindByID(ctx, agent.RestaurantID, agent.ID); err == nil && previous.ProviderAgentID != "" {
		defer r.cache.Delete("agent:" + previous.ProviderAgentID)
	}
	if err := r.AgentRepository.Update(ctx, agent); err != nil {
		return err
	}
	if agent.ProviderAgentID != "" {
		r.cache.Delete("agent:" + agent.ProviderAgentID)
	}
	return nil
}
