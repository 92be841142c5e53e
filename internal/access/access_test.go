package access

import (
	"testing"

	apperrors "tableline/internal/errors"
	"tableline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcer_RoleHierarchy(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role     models.AccessRole
		resource Resource
		action   Action
		allowed  bool
	}{
		{models.RoleStaff, ResourceOrders, ActionWrite, true},
		{models.RoleStaff, ResourceOrders, ActionDelete, false},
		{models.RoleStaff, ResourceHours, ActionWrite, false},
		{models.RoleManager, ResourceOrders, ActionRead, true},
		{models.RoleManager, ResourceReservations, ActionDelete, true},
		{models.RoleManager, ResourceIntegrations, ActionRead, true},
		{models.RoleManager, ResourceIntegrations, ActionWrite, false},
		{models.RoleOwner, ResourceIntegrations, ActionWrite, true},
		{models.RoleOwner, ResourceOrders, ActionWrite, true},
		{models.AccessRole("guest"), ResourceOrders, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.resource)+"/"+string(tt.action), func(t *testing.T) {
			ok, err := e.Allowed(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestEnforcer_CheckReturnsForbidden(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	err = e.Check(models.RoleStaff, ResourceIntegrations, ActionWrite)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	assert.NoError(t, e.Check(models.RoleOwner, ResourceHours, ActionWrite))
}
