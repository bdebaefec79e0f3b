package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelkov/quadboard/internal/models"
)

func TestValidateTeamOwnerRole(t *testing.T) {
	require.NoError(t, validateTeamOwnerRole(models.RoleManager))
	require.NoError(t, validateTeamOwnerRole(models.RoleSuperManager))

	for _, role := range []models.Role{
		models.RoleAdmin, models.RoleTeamLead, models.RoleEmployee,
	} {
		assert.ErrorIs(t, validateTeamOwnerRole(role), ErrInvalidRole, role)
	}
}
