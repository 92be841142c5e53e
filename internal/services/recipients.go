package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/repositories"

	"github.com/google/uuid"
)

// RecipientResolver computes the admin recipients of a restaurant's
// notifications: the organization owner (or the personal owner), every
// manager of the restaurant, then the restaurant's notification emails.
// Duplicates are dropped case-insensitively keeping the first occurrence.
type RecipientResolver struct {
	restaurants repositories.RestaurantRepository
	users       repositories.UserRepository
}

// NewRecipientResolver creates a RecipientResolver.
func NewRecipientResolver(restaurants repositories.RestaurantRepository, users repositories.UserRepository) *RecipientResolver {
	return &RecipientResolver{restaurants: restaurants, users: users}
}

// Resolve returns the recipient emails in notification order. On a lookup
// error it returns what it gathered so far together with the error.
func (r *RecipientResolver) Resolve(ctx context.Context, restaurant *models.Restaurant) ([]string, error) {
	var list recipientList

	ownerID, err := r.ownerOf(ctx, restaurant)
	if err != nil {
		return list.emails, err
	}
	if ownerID != uuid.Nil {
		owner, err := r.users.FindByID(ctx, ownerID)
		switch {
		case err == nil:
			list.add(owner.Email)
		case !apperrors.Is(err, apperrors.ErrNotFound):
			return list.emails, fmt.Errorf("find owner: %w", err)
		}
	}

	grants, err := r.users.FindAccessByRole(ctx, restaurant.ID, models.RoleManager)
	if err != nil {
		return list.emails, fmt.Errorf("find managers: %w", err)
	}
	if len(grants) > 0 {
		ids := make([]uuid.UUID, 0, len(grants))
		for _, g := range grants {
			ids = append(ids, g.UserID)
		}
		managers, err := r.users.FindByIDs(ctx, ids)
		if err != nil {
			return list.emails, fmt.Errorf("find manager users: %w", err)
		}
		// keep grant order
		byID := make(map[uuid.UUID]string, len(managers))
		for _, m := range managers {
			byID[m.ID] = m.Email
		}
		for _, id := range ids {
			list.add(byID[id])
		}
	}

	for _, email := range restaurant.NotificationEmails {
		list.add(email)
	}

	return list.emails, nil
}

func (r *RecipientResolver) ownerOf(ctx context.Context, restaurant *models.Restaurant) (uuid.UUID, error) {
	if restaurant.OrganizationID != nil {
		org, err := r.restaurants.FindOrganization(ctx, *restaurant.OrganizationID)
		if err == nil {
			return org.OwnerID, nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("find organization: %w", err)
		}
	}
	if restaurant.OwnerID != nil {
		return *restaurant.OwnerID, nil
	}
	return uuid.Nil, nil
}

type recipientList struct {
	seen   map[string]struct{}
	emails []string
}

func (l *recipientList) add(email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return
	}
	key := strings.ToLower(email)
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}
	if _, ok := l.seen[key]; ok {
		return
	}
	l.seen[key] = struct{}{}
	l.emails = append(l.emails, email)
}
