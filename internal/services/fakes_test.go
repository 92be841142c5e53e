package services

import (
	"context"
	"sync"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"
	"tableline/internal/notify"
	"tableline/internal/provider"
	"tableline/internal/realtime"
	"tableline/internal/repositories"

	"github.com/google/uuid"
)

// ===========================================================================
// In-memory fakes
// ===========================================================================

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (r *fakeOrderRepo) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	cp.History = append(models.History(nil), o.History...)
	r.orders = append(r.orders, &cp)
	return nil
}

func (r *fakeOrderRepo) Update(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.orders {
		if stored.ID == o.ID {
			cp := *o
			cp.History = append(models.History(nil), o.History...)
			r.orders[i] = &cp
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "order not found")
}

func (r *fakeOrderRepo) Delete(_ context.Context, restaurantID uuid.UUID, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.orders {
		if o.RestaurantID == restaurantID && o.OrderNumber == number {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "order not found")
}

func (r *fakeOrderRepo) FindByNumber(_ context.Context, restaurantID uuid.UUID, number string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID && o.OrderNumber == number {
			cp := *o
			cp.History = append(models.History(nil), o.History...)
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "order not found")
}

func (r *fakeOrderRepo) NumberExists(ctx context.Context, restaurantID uuid.UUID, number string) (bool, error) {
	_, err := r.FindByNumber(ctx, restaurantID, number)
	return err == nil, nil
}

func (r *fakeOrderRepo) FindForSearch(_ context.Context, restaurantID uuid.UUID, date string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID && (date == "" || o.PickupDate == date) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, _ repositories.FindOptions) ([]models.Order, int64, error) {
	out, _ := r.FindForSearch(ctx, restaurantID, "")
	return out, int64(len(out)), nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations []*models.Reservation
}

func (r *fakeReservationRepo) Create(_ context.Context, res *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	cp := *res
	cp.History = append(models.History(nil), res.History...)
	r.reservations = append(r.reservations, &cp)
	return nil
}

func (r *fakeReservationRepo) Update(_ context.Context, res *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.reservations {
		if stored.ID == res.ID {
			cp := *res
			cp.History = append(models.History(nil), res.History...)
			r.reservations[i] = &cp
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "reservation not found")
}

func (r *fakeReservationRepo) Delete(_ context.Context, restaurantID uuid.UUID, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, res := range r.reservations {
		if res.RestaurantID == restaurantID && res.ReservationNumber == number {
			r.reservations = append(r.reservations[:i], r.reservations[i+1:]...)
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "reservation not found")
}

func (r *fakeReservationRepo) FindByNumber(_ context.Context, restaurantID uuid.UUID, number string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.reservations {
		if res.RestaurantID == restaurantID && res.ReservationNumber == number {
			cp := *res
			cp.History = append(models.History(nil), res.History...)
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "reservation not found")
}

func (r *fakeReservationRepo) NumberExists(ctx context.Context, restaurantID uuid.UUID, number string) (bool, error) {
	_, err := r.FindByNumber(ctx, restaurantID, number)
	return err == nil, nil
}

func (r *fakeReservationRepo) FindForSearch(_ context.Context, restaurantID uuid.UUID, date string) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.reservations {
		if res.RestaurantID == restaurantID && (date == "" || res.Date == date) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, _ repositories.FindOptions) ([]models.Reservation, int64, error) {
	out, _ := r.FindForSearch(ctx, restaurantID, "")
	return out, int64(len(out)), nil
}

type fakeRestaurantRepo struct {
	restaurants   map[uuid.UUID]*models.Restaurant
	organizations map[uuid.UUID]*models.Organization
}

func newFakeRestaurantRepo() *fakeRestaurantRepo {
	return &fakeRestaurantRepo{
		restaurants:   make(map[uuid.UUID]*models.Restaurant),
		organizations: make(map[uuid.UUID]*models.Organization),
	}
}

func (r *fakeRestaurantRepo) add(restaurant *models.Restaurant) *models.Restaurant {
	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}
	r.restaurants[restaurant.ID] = restaurant
	return restaurant
}

func (r *fakeRestaurantRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if restaurant, ok := r.restaurants[id]; ok {
		cp := *restaurant
		return &cp, nil
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "restaurant not found")
}

func (r *fakeRestaurantRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Restaurant, error) {
	var out []models.Restaurant
	for _, id := range ids {
		if restaurant, ok := r.restaurants[id]; ok {
			out = append(out, *restaurant)
		}
	}
	return out, nil
}

func (r *fakeRestaurantRepo) FindByOrganizations(_ context.Context, orgIDs []uuid.UUID) ([]models.Restaurant, error) {
	var out []models.Restaurant
	for _, restaurant := range r.restaurants {
		for _, id := range orgIDs {
			if restaurant.OrganizationID != nil && *restaurant.OrganizationID == id {
				out = append(out, *restaurant)
			}
		}
	}
	return out, nil
}

func (r *fakeRestaurantRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Restaurant, error) {
	var out []models.Restaurant
	for _, restaurant := range r.restaurants {
		if restaurant.OwnerID != nil && *restaurant.OwnerID == ownerID {
			out = append(out, *restaurant)
		}
	}
	return out, nil
}

func (r *fakeRestaurantRepo) Create(_ context.Context, restaurant *models.Restaurant) error {
	r.add(restaurant)
	return nil
}

func (r *fakeRestaurantRepo) UpdateHours(_ context.Context, id uuid.UUID, hours models.OperatingHours) error {
	restaurant, ok := r.restaurants[id]
	if !ok {
		return apperrors.New(apperrors.ErrNotFound, "restaurant not found")
	}
	restaurant.OperatingHours = hours
	return nil
}

func (r *fakeRestaurantRepo) FindOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	if org, ok := r.organizations[id]; ok {
		return org, nil
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "organization not found")
}

func (r *fakeRestaurantRepo) FindOrganizationsByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Organization, error) {
	var out []models.Organization
	for _, org := range r.organizations {
		if org.OwnerID == ownerID {
			out = append(out, *org)
		}
	}
	return out, nil
}

func (r *fakeRestaurantRepo) CreateOrganization(_ context.Context, org *models.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	r.organizations[org.ID] = org
	return nil
}

type fakeUserRepo struct {
	users  []*models.User
	grants []models.RestaurantAccess
}

func (r *fakeUserRepo) add(email string) *models.User {
	u := &models.User{Subject: "sub_" + email, Email: email}
	u.ID = uuid.New()
	r.users = append(r.users, u)
	return u
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "user not found")
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindBySubject(_ context.Context, subject string) (*models.User, error) {
	for _, u := range r.users {
		if u.Subject == subject {
			return u, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "user not found")
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users = append(r.users, u)
	return nil
}

func (r *fakeUserRepo) Update(context.Context, *models.User) error { return nil }

func (r *fakeUserRepo) FindAccess(_ context.Context, userID, restaurantID uuid.UUID) (*models.RestaurantAccess, error) {
	for _, g := range r.grants {
		if g.UserID == userID && g.RestaurantID == restaurantID {
			return &g, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "access not found")
}

func (r *fakeUserRepo) FindAccessByUser(_ context.Context, userID uuid.UUID) ([]models.RestaurantAccess, error) {
	var out []models.RestaurantAccess
	for _, g := range r.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindAccessByRole(_ context.Context, restaurantID uuid.UUID, role models.AccessRole) ([]models.RestaurantAccess, error) {
	var out []models.RestaurantAccess
	for _, g := range r.grants {
		if g.RestaurantID == restaurantID && g.Role == role {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GrantAccess(_ context.Context, access *models.RestaurantAccess) error {
	r.grants = append(r.grants, *access)
	return nil
}

type fakeAgentRepo struct {
	agents []*models.Agent
}

func (r *fakeAgentRepo) Create(_ context.Context, a *models.Agent) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.agents = append(r.agents, &cp)
	return nil
}

func (r *fakeAgentRepo) Update(_ context.Context, a *models.Agent) error {
	for i, stored := range r.agents {
		if stored.ID == a.ID {
			cp := *a
			r.agents[i] = &cp
			return nil
		}
	}
	return apperrors.New(apperrors.ErrNotFound, "agent not found")
}

func (r *fakeAgentRepo) FindByID(_ context.Context, restaurantID, id uuid.UUID) (*models.Agent, error) {
	for _, a := range r.agents {
		if a.ID == id && a.RestaurantID == restaurantID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "agent not found")
}

func (r *fakeAgentRepo) FindByProviderAgentID(_ context.Context, providerAgentID string) (*models.Agent, error) {
	for _, a := range r.agents {
		if a.ProviderAgentID == providerAgentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "agent not found")
}

func (r *fakeAgentRepo) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]models.Agent, error) {
	var out []models.Agent
	for _, a := range r.agents {
		if a.RestaurantID == restaurantID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeVoiceProvider struct {
	mu         sync.Mutex
	llmUpdates map[string]provider.LLMRequest
	agentCalls int
	failLLM    error
}

func newFakeVoiceProvider() *fakeVoiceProvider {
	return &fakeVoiceProvider{llmUpdates: make(map[string]provider.LLMRequest)}
}

func (p *fakeVoiceProvider) CreateLLM(_ context.Context, in provider.LLMRequest) (*provider.LLM, error) {
	if p.failLLM != nil {
		return nil, p.failLLM
	}
	return &provider.LLM{LLMID: "llm_" + uuid.NewString()[:8]}, nil
}

func (p *fakeVoiceProvider) UpdateLLM(_ context.Context, llmID string, in provider.LLMRequest) error {
	if p.failLLM != nil {
		return p.failLLM
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.llmUpdates[llmID] = in
	return nil
}

func (p *fakeVoiceProvider) CreateAgent(_ context.Context, in provider.AgentRequest) (*provider.AgentResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agentCalls++
	return &provider.AgentResponse{AgentID: "agent_" + uuid.NewString()[:8], AgentName: in.AgentName}, nil
}

func (p *fakeVoiceProvider) UpdateAgent(_ context.Context, _ string, _ provider.AgentRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agentCalls++
	return nil
}

// scheduled is one captured Schedule call.
type scheduled struct {
	kind    notify.Kind
	payload *notify.RecordNotification
	call    *notify.CallNotification
}

type captureDispatcher struct {
	mu   sync.Mutex
	jobs []scheduled
}

func (d *captureDispatcher) Schedule(_ context.Context, kind notify.Kind, _ uuid.UUID, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, _ := payload.(*notify.RecordNotification)
	call, _ := payload.(*notify.CallNotification)
	d.jobs = append(d.jobs, scheduled{kind: kind, payload: n, call: call})
}

func (d *captureDispatcher) kinds() []notify.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Kind, 0, len(d.jobs))
	for _, j := range d.jobs {
		out = append(out, j.kind)
	}
	return out
}

func (d *captureDispatcher) last() scheduled {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.jobs[len(d.jobs)-1]
}

var _ realtime.Publisher = (*realtime.NoopPublisher)(nil)
