package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelkov/quadboard/internal/models"
)

func TestCanAccessTask(t *testing.T) {
	task := &models.Task{ID: "t1", CreatedByID: "creator", AssignedToID: "assignee"}

	tests := []struct {
		name  string
		actor models.User
		want  bool
	}{
		{"admin reaches any task", models.User{ID: "a1", Role: models.RoleAdmin}, true},
		{"manager reaches any task", models.User{ID: "m1", Role: models.RoleManager}, true},
		{"super-manager reaches any task", models.User{ID: "sm1", Role: models.RoleSuperManager}, true},
		{"employee reaches own created", models.User{ID: "creator", Role: models.RoleEmployee}, true},
		{"employee reaches own assigned", models.User{ID: "assignee", Role: models.RoleEmployee}, true},
		{"employee denied unrelated task", models.User{ID: "stranger", Role: models.RoleEmployee}, false},
		{"team-lead denied unrelated task", models.User{ID: "stranger", Role: models.RoleTeamLead}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canAccessTask(tt.actor, task))
		})
	}
}
