// Package access decides what a restaurant role may do on the dashboard.
package access

import (
	"fmt"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Resource is a dashboard resource.
type Resource string

const (
	ResourceOrders       Resource = "orders"
	ResourceReservations Resource = "reservations"
	ResourceAgents       Resource = "agents"
	ResourceIntegrations Resource = "integrations"
	ResourceHours        Resource = "hours"
)

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Roles inherit downwards: owner > manager > staff.
var inheritance = [][2]models.AccessRole{
	{models.RoleOwner, models.RoleManager},
	{models.RoleManager, models.RoleStaff},
}

var policies = []struct {
	role     models.AccessRole
	resource Resource
	action   Action
}{
	{models.RoleStaff, ResourceOrders, ActionRead},
	{models.RoleStaff, ResourceOrders, ActionWrite},
	{models.RoleStaff, ResourceReservations, ActionRead},
	{models.RoleStaff, ResourceReservations, ActionWrite},
	{models.RoleStaff, ResourceAgents, ActionRead},

	{models.RoleManager, ResourceOrders, ActionDelete},
	{models.RoleManager, ResourceReservations, ActionDelete},
	{models.RoleManager, ResourceAgents, ActionWrite},
	{models.RoleManager, ResourceHours, ActionWrite},
	{models.RoleManager, ResourceIntegrations, ActionRead},

	{models.RoleOwner, ResourceIntegrations, ActionWrite},
	{models.RoleOwner, ResourceIntegrations, ActionDelete},
}

// Enforcer checks role permissions.
type Enforcer struct {
	enforcer *casbin.Enforcer
}

// NewEnforcer builds the in-memory policy set.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(string(p.role), string(p.resource), string(p.action)); err != nil {
			return nil, fmt.Errorf("add policy %s %s %s: %w", p.role, p.resource, p.action, err)
		}
	}
	for _, g := range inheritance {
		if _, err := e.AddGroupingPolicy(string(g[0]), string(g[1])); err != nil {
			return nil, fmt.Errorf("add role %s > %s: %w", g[0], g[1], err)
		}
	}

	return &Enforcer{enforcer: e}, nil
}

// Allowed reports whether role may perform action on resource.
func (e *Enforcer) Allowed(role models.AccessRole, resource Resource, action Action) (bool, error) {
	ok, err := e.enforcer.Enforce(string(role), string(resource), string(action))
	if err != nil {
		return false, fmt.Errorf("enforce: %w", err)
	}
	return ok, nil
}

// Check returns ErrForbidden unless role may perform action on resource.
func (e *Enforcer) Check(role models.AccessRole, resource Resource, action Action) error {
	ok, err := e.Allowed(role, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Newf(apperrors.ErrForbidden, "%s role cannot %s %s", role, action, resource)
	}
	return nil
}
