package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/realtime"
	"github.com/avelkov/quadboard/internal/rules"
)

type teamServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	broker *realtime.Broker
}

func NewTeamService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	broker *realtime.Broker,
) TeamService {
	return &teamServiceImpl{
		logger: logger,
		pgPool: pgPool,
		broker: broker,
	}
}

func (s *teamServiceImpl) CreateTeam(ctx context.Context, params CreateTeamParams) (*models.Team, error) {
	caps := rules.Permissions(params.Actor.Role, "", params.Actor.ID, false)
	if !caps.CanCreateTeams {
		return nil, ErrPermissionDenied
	}
	if params.Name == "" {
		return nil, ErrTeamNameRequired
	}

	managerID := params.ManagerID
	if managerID == "" {
		managerID = params.Actor.ID
	}
	managerRole, err := s.selectProfileRole(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if err := validateTeamOwnerRole(managerRole); err != nil {
		s.logger.Error().
			Str("manager_id", managerID).
			Str("role", string(managerRole)).
			Msg("team owner must be a manager")
		return nil, err
	}

	now := time.Now()
	team := &models.Team{
		Name:      params.Name,
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	teamUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate team uuid")
		return nil, err
	}
	team.ID = teamUUID.String()

	const insertTeamQuery = `
INSERT INTO teams (id,
                   name,
                   manager_id,
                   lead_id,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, NULL, $4, $5)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTeamQuery,
		team.ID,
		team.Name,
		team.ManagerID,
		team.CreatedAt,
		team.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert team")
		return nil, err
	}

	s.logger.Info().
		Str("team_id", team.ID).
		Str("manager_id", team.ManagerID).
		Msg("created team")

	s.broker.Publish(ctx, realtime.Event{
		Table: "teams",
		Op:    realtime.OpInsert,
		RowID: team.ID,
	})
	return team, nil
}

func (s *teamServiceImpl) UpdateTeam(ctx context.Context, params UpdateTeamParams) (*models.Team, error) {
	caps := rules.Permissions(params.Actor.Role, "", params.Actor.ID, false)
	if !caps.CanUpdateTeams {
		return nil, ErrPermissionDenied
	}
	if params.Name != nil && *params.Name == "" {
		return nil, ErrTeamNameRequired
	}

	const updateTeamQuery = `
UPDATE teams
SET name       = COALESCE($1, name),
    updated_at = $2
WHERE id = $3
RETURNING id, name, manager_id, lead_id, created_at, updated_at
`
	team := &models.Team{}
	err := s.pgPool.QueryRow(
		ctx,
		updateTeamQuery,
		params.Name,
		time.Now(),
		params.TeamID,
	).Scan(
		&team.ID,
		&team.Name,
		&team.ManagerID,
		&team.LeadID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("team_id", params.TeamID).
				Msg("team not found")
			return nil, ErrTeamNotFound
		}

		s.logger.Error().
			Err(err).
			Str("team_id", params.TeamID).
			Msg("failed to update team")
		return nil, err
	}

	err = s.loadMembers(ctx, team)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("team_id", team.ID).
		Msg("updated team")

	s.broker.Publish(ctx, realtime.Event{
		Table: "teams",
		Op:    realtime.OpUpdate,
		RowID: team.ID,
	})
	return team, nil
}

func (s *teamServiceImpl) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	const selectTeamByIDQuery = `
SELECT id, name, manager_id, lead_id, created_at, updated_at
FROM teams
WHERE id = $1
`
	team := &models.Team{}
	err := s.pgPool.QueryRow(
		ctx,
		selectTeamByIDQuery,
		teamID,
	).Scan(
		&team.ID,
		&team.Name,
		&team.ManagerID,
		&team.LeadID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("team_id", teamID).
				Msg("team not found")
			return nil, ErrTeamNotFound
		}

		s.logger.Error().
			Err(err).
			Str("team_id", teamID).
			Msg("failed to select team by id")
		return nil, err
	}

	err = s.loadMembers(ctx, team)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamServiceImpl) ListTeams(ctx context.Context, viewer models.User) ([]*models.Team, error) {
	caps := rules.Permissions(viewer.Role, "", viewer.ID, false)
	if !caps.CanViewTeams {
		return nil, ErrPermissionDenied
	}

	const selectAllTeamsQuery = `
SELECT id, name, manager_id, lead_id, created_at, updated_at
FROM teams
ORDER BY name
`
	const selectManagerTeamsQuery = `
SELECT id, name, manager_id, lead_id, created_at, updated_at
FROM teams
WHERE manager_id = $1
ORDER BY name
`
	const selectMemberTeamsQuery = `
SELECT t.id, t.name, t.manager_id, t.lead_id, t.created_at, t.updated_at
FROM teams t
WHERE t.lead_id = $1
   OR EXISTS (SELECT 1 FROM team_members m WHERE m.team_id = t.id AND m.user_id = $1)
ORDER BY t.name
`

	var rows pgx.Rows
	var err error
	switch {
	case viewer.Role == models.RoleAdmin || viewer.Role == models.RoleSuperManager:
		rows, err = s.pgPool.Query(ctx, selectAllTeamsQuery)
	case viewer.Role == models.RoleManager:
		rows, err = s.pgPool.Query(ctx, selectManagerTeamsQuery, viewer.ID)
	default:
		rows, err = s.pgPool.Query(ctx, selectMemberTeamsQuery, viewer.ID)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("viewer_id", viewer.ID).
			Msg("failed to select teams")
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		err = rows.Scan(
			&team.ID,
			&team.Name,
			&team.ManagerID,
			&team.LeadID,
			&team.CreatedAt,
			&team.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan team")
			return nil, err
		}
		teams = append(teams, team)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	for _, team := range teams {
		err = s.loadMembers(ctx, team)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug().
		Int("count", len(teams)).
		Str("viewer_id", viewer.ID).
		Msg("selected teams")
	return teams, nil
}

func (s *teamServiceImpl) SetTeamLead(ctx context.Context, params SetTeamLeadParams) error {
	team, err := s.GetTeam(ctx, params.TeamID)
	if err != nil {
		return err
	}

	if params.LeadID != nil {
		err = s.requireAssignCapability(ctx, params.Actor, team, *params.LeadID, true)
		if err != nil {
			return err
		}
	} else if !rules.Permissions(params.Actor.Role, "", params.Actor.ID,
		team.ManagerID == params.Actor.ID).CanAssignTeamLeads {
		return ErrPermissionDenied
	}

	const setLeadQuery = `
UPDATE teams
SET lead_id    = $1,
    updated_at = $2
WHERE id = $3
`
	_, err = s.pgPool.Exec(ctx, setLeadQuery, params.LeadID, time.Now(), team.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("team_id", team.ID).
			Msg("failed to set team lead")
		return err
	}

	s.logger.Info().
		Str("team_id", team.ID).
		Str("actor_id", params.Actor.ID).
		Msg("set team lead")

	s.broker.Publish(ctx, realtime.Event{
		Table: "teams",
		Op:    realtime.OpUpdate,
		RowID: team.ID,
	})
	return nil
}

func (s *teamServiceImpl) AddTeamMember(ctx context.Context, params TeamMemberParams) error {
	team, err := s.GetTeam(ctx, params.TeamID)
	if err != nil {
		return err
	}

	err = s.requireAssignCapability(ctx, params.Actor, team, params.UserID, false)
	if err != nil {
		return err
	}

	const insertMemberQuery = `
INSERT INTO team_members (team_id, user_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (team_id, user_id) DO NOTHING
`
	_, err = s.pgPool.Exec(ctx, insertMemberQuery, team.ID, params.UserID, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("team_id", team.ID).
			Str("user_id", params.UserID).
			Msg("failed to add team member")
		return err
	}

	s.logger.Info().
		Str("team_id", team.ID).
		Str("user_id", params.UserID).
		Str("actor_id", params.Actor.ID).
		Msg("added team member")

	s.broker.Publish(ctx, realtime.Event{
		Table: "team_members",
		Op:    realtime.OpInsert,
		RowID: team.ID,
	})
	return nil
}

func (s *teamServiceImpl) RemoveTeamMember(ctx context.Context, params TeamMemberParams) error {
	team, err := s.GetTeam(ctx, params.TeamID)
	if err != nil {
		return err
	}

	underManager := team.ManagerID == params.Actor.ID
	caps := rules.Permissions(params.Actor.Role, params.UserID, params.Actor.ID, underManager)
	if !caps.CanAssignEmployees {
		return ErrPermissionDenied
	}

	const deleteMemberQuery = `
DELETE FROM team_members
WHERE team_id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(ctx, deleteMemberQuery, team.ID, params.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("team_id", team.ID).
			Str("user_id", params.UserID).
			Msg("failed to remove team member")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	s.logger.Info().
		Str("team_id", team.ID).
		Str("user_id", params.UserID).
		Str("actor_id", params.Actor.ID).
		Msg("removed team member")

	s.broker.Publish(ctx, realtime.Event{
		Table: "team_members",
		Op:    realtime.OpDelete,
		RowID: team.ID,
	})
	return nil
}

// requireAssignCapability checks both halves of an assignment: the
// actor's capability for this team, and the membership invariant that
// the target reports to the team's manager. The invariant lives here
// at the storage boundary, not in the UI.
func (s *teamServiceImpl) requireAssignCapability(
	ctx context.Context,
	actor models.User,
	team *models.Team,
	targetID string,
	asLead bool,
) error {
	const selectTargetQuery = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
`
	target, err := scanProfile(s.pgPool.QueryRow(ctx, selectTargetQuery, targetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", targetID).
			Msg("failed to select assignment target")
		return err
	}

	underManager := target.ReportsTo(actor.ID) || team.ManagerID == actor.ID
	caps := rules.Permissions(actor.Role, target.ID, actor.ID, underManager)
	if asLead && !caps.CanAssignTeamLeads {
		return ErrPermissionDenied
	}
	if !asLead && !caps.CanAssignEmployees {
		return ErrPermissionDenied
	}

	wantRole := models.RoleEmployee
	if asLead {
		wantRole = models.RoleTeamLead
	}
	if target.Role != wantRole {
		s.logger.Error().
			Str("user_id", target.ID).
			Str("role", string(target.Role)).
			Str("want", string(wantRole)).
			Msg("assignment target has the wrong role")
		return ErrInvalidRole
	}
	if !target.ReportsTo(team.ManagerID) {
		s.logger.Error().
			Str("user_id", target.ID).
			Str("team_id", team.ID).
			Str("manager_id", team.ManagerID).
			Msg("assignment target does not report to the team manager")
		return ErrNotUnderManager
	}
	return nil
}

// validateTeamOwnerRole rejects team owners that cannot administer a
// manager chain.
func validateTeamOwnerRole(role models.Role) error {
	if !role.ManagesReports() {
		return ErrInvalidRole
	}
	return nil
}

func (s *teamServiceImpl) selectProfileRole(ctx context.Context, userID string) (models.Role, error) {
	const selectProfileRoleQuery = `
SELECT role FROM profiles WHERE id = $1
`
	var role models.Role
	err := s.pgPool.QueryRow(ctx, selectProfileRoleQuery, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return "", ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select user role")
		return "", err
	}
	return role, nil
}

func (s *teamServiceImpl) loadMembers(ctx context.Context, team *models.Team) error {
	const selectMembersQuery = `
SELECT user_id
FROM team_members
WHERE team_id = $1
ORDER BY created_at
`
	rows, err := s.pgPool.Query(ctx, selectMembersQuery, team.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("team_id", team.ID).
			Msg("failed to select team members")
		return err
	}
	defer rows.Close()

	team.MemberIDs = team.MemberIDs[:0]
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan team member")
			return err
		}
		team.MemberIDs = append(team.MemberIDs, userID)
	}
	return rows.Err()
}
