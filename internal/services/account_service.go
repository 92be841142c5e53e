package services

import (
	"context"
	"fmt"
	"strings"

	"tableline/internal/access"
	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Account Service
// Maps identity-provider subjects to local users and decides which role a
// user holds on a restaurant. Owners are derived from restaurant and
// organization ownership; everyone else needs a RestaurantAccess grant.
// ===========================================================================

// Identity is the verified caller of a dashboard request.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// Membership is one restaurant the user can open on the dashboard.
type Membership struct {
	Restaurant models.Restaurant `json:"restaurant"`
	Role       models.AccessRole `json:"role"`
}

// AccountService resolves dashboard users and their permissions.
type AccountService interface {
	// Resolve returns the local user of an identity, creating it on first sight
	Resolve(ctx context.Context, id Identity) (*models.User, error)

	// Memberships lists the restaurants the user can access
	Memberships(ctx context.Context, user *models.User) ([]Membership, error)

	// RoleFor returns the user's role on the restaurant or ErrForbidden
	RoleFor(ctx context.Context, user *models.User, restaurantID uuid.UUID) (models.AccessRole, error)

	// Authorize checks that the user may perform action on resource
	Authorize(ctx context.Context, user *models.User, restaurantID uuid.UUID, resource access.Resource, action access.Action) (models.AccessRole, error)
}

type accountService struct {
	users       repositories.UserRepository
	restaurants repositories.RestaurantRepository
	enforcer    *access.Enforcer
	logger      *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(
	users repositories.UserRepository,
	restaurants repositories.RestaurantRepository,
	enforcer *access.Enforcer,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		users:       users,
		restaurants: restaurants,
		enforcer:    enforcer,
		logger:      logger.Named("accounts"),
	}
}

func (s *accountService) Resolve(ctx context.Context, id Identity) (*models.User, error) {
	if id.Subject == "" {
		return nil, apperrors.New(apperrors.ErrUnauthenticated, "Authentication required")
	}

	user, err := s.users.FindBySubject(ctx, id.Subject)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	email := strings.TrimSpace(id.Email)
	name := strings.TrimSpace(id.Name)

	if user == nil {
		user = &models.User{Subject: id.Subject, Email: email, Name: name}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.logger.Info("user created", zap.String("user_id", user.ID.String()))
		return user, nil
	}

	// keep profile fields in step with the identity provider
	if (email != "" && email != user.Email) || (name != "" && name != user.Name) {
		if email != "" {
			user.Email = email
		}
		if name != "" {
			user.Name = name
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return user, nil
}

func (s *accountService) Memberships(ctx context.Context, user *models.User) ([]Membership, error) {
	roles := make(map[uuid.UUID]models.AccessRole)
	var order []uuid.UUID
	set := func(id uuid.UUID, role models.AccessRole) {
		current, ok := roles[id]
		if !ok {
			order = append(order, id)
		}
		if !ok || current != models.RoleOwner {
			roles[id] = role
		}
	}

	owned, err := s.restaurants.FindByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("find owned restaurants: %w", err)
	}
	for _, r := range owned {
		set(r.ID, models.RoleOwner)
	}

	orgs, err := s.restaurants.FindOrganizationsByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("find organizations: %w", err)
	}
	if len(orgs) > 0 {
		ids := make([]uuid.UUID, 0, len(orgs))
		for _, o := range orgs {
			ids = append(ids, o.ID)
		}
		orgRestaurants, err := s.restaurants.FindByOrganizations(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("find organization restaurants: %w", err)
		}
		for _, r := range orgRestaurants {
			set(r.ID, models.RoleOwner)
		}
	}

	grants, err := s.users.FindAccessByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("find access grants: %w", err)
	}
	for _, g := range grants {
		set(g.RestaurantID, g.Role)
	}

	if len(order) == 0 {
		return []Membership{}, nil
	}

	restaurants, err := s.restaurants.FindByIDs(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("find restaurants: %w", err)
	}
	byID := make(map[uuid.UUID]models.Restaurant, len(restaurants))
	for _, r := range restaurants {
		byID[r.ID] = r
	}

	memberships := make([]Membership, 0, len(order))
	for _, id := range order {
		r, ok := byID[id]
		if !ok {
			continue
		}
		memberships = append(memberships, Membership{Restaurant: r, Role: roles[id]})
	}
	return memberships, nil
}

func (s *accountService) RoleFor(ctx context.Context, user *models.User, restaurantID uuid.UUID) (models.AccessRole, error) {
	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return "", err
	}

	if restaurant.OwnerID != nil && *restaurant.OwnerID == user.ID {
		return models.RoleOwner, nil
	}
	if restaurant.OrganizationID != nil {
		org, err := s.restaurants.FindOrganization(ctx, *restaurant.OrganizationID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("find organization: %w", err)
		}
		if err == nil && org.OwnerID == user.ID {
			return models.RoleOwner, nil
		}
	}

	grant, err := s.users.FindAccess(ctx, user.ID, restaurantID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.New(apperrors.ErrForbidden, "You don't have access to this restaurant")
		}
		return "", fmt.Errorf("find access: %w", err)
	}
	if !grant.Role.Valid() {
		return "", apperrors.New(apperrors.ErrForbidden, "You don't have access to this restaurant")
	}
	return grant.Role, nil
}

func (s *accountService) Authorize(ctx context.Context, user *models.User, restaurantID uuid.UUID, resource access.Resource, action access.Action) (models.AccessRole, error) {
	role, err := s.RoleFor(ctx, user, restaurantID)
	if err != nil {
		return "", err
	}
	if err := s.enforcer.Check(role, resource, action); err != nil {
		return "", err
	}
	return role, nil
}
