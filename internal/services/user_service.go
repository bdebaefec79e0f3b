package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/realtime"
	"github.com/avelkov/quadboard/internal/rules"
)

type userServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	broker *realtime.Broker
}

func NewUserService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	broker *realtime.Broker,
) UserService {
	return &userServiceImpl{
		logger: logger,
		pgPool: pgPool,
		broker: broker,
	}
}

const profileColumns = `id,
       email,
       name,
       role,
       manager_id,
       avatar_url,
       created_at,
       updated_at`

func scanProfile(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.ManagerID,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	const selectProfileByIDQuery = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
`
	user, err := scanProfile(s.pgPool.QueryRow(ctx, selectProfileByIDQuery, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select user by id")
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context, viewer models.User) ([]*models.User, error) {
	const selectAllProfilesQuery = `
SELECT ` + profileColumns + `
FROM profiles
ORDER BY name
`
	const selectReportsQuery = `
SELECT ` + profileColumns + `
FROM profiles
WHERE manager_id = $1 OR id = $1
ORDER BY name
`
	const selectSelfQuery = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
`

	var rows pgx.Rows
	var err error
	switch {
	case viewer.Role == models.RoleAdmin || viewer.Role == models.RoleSuperManager:
		rows, err = s.pgPool.Query(ctx, selectAllProfilesQuery)
	case viewer.Role == models.RoleManager:
		rows, err = s.pgPool.Query(ctx, selectReportsQuery, viewer.ID)
	default:
		rows, err = s.pgPool.Query(ctx, selectSelfQuery, viewer.ID)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("viewer_id", viewer.ID).
			Msg("failed to select users")
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanProfile(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan user")
			return nil, err
		}
		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(users)).
		Str("viewer_id", viewer.ID).
		Msg("selected users")
	return users, nil
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.User, error) {
	const updateProfileQuery = `
UPDATE profiles
SET name       = COALESCE($1, name),
    avatar_url = COALESCE($2, avatar_url),
    updated_at = $3
WHERE id = $4
RETURNING ` + profileColumns + `
`
	user, err := scanProfile(s.pgPool.QueryRow(
		ctx,
		updateProfileQuery,
		params.Name,
		params.AvatarURL,
		time.Now(),
		params.UserID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("user_id", params.UserID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", params.UserID).
			Msg("failed to update profile")
		return nil, err
	}

	// Denormalized names ride along on tasks; keep them current.
	if params.Name != nil {
		const syncTaskNamesQuery = `
UPDATE tasks
SET created_by_name   = CASE WHEN created_by_id = $1 THEN $2 ELSE created_by_name END,
    assigned_to_name  = CASE WHEN assigned_to_id = $1 THEN $2 ELSE assigned_to_name END
WHERE created_by_id = $1 OR assigned_to_id = $1
`
		_, err = s.pgPool.Exec(ctx, syncTaskNamesQuery, user.ID, user.Name)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", user.ID).
				Msg("failed to sync denormalized task names")
		}
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("updated profile")

	s.broker.Publish(ctx, realtime.Event{
		Table: "profiles",
		Op:    realtime.OpUpdate,
		RowID: user.ID,
	})
	return user, nil
}

func (s *userServiceImpl) UpdateUserRole(ctx context.Context, params UpdateUserRoleParams) error {
	if !params.NewRole.Valid() {
		return ErrInvalidRole
	}
	if params.TargetID == params.Actor.ID {
		s.logger.Error().
			Str("actor_id", params.Actor.ID).
			Msg("self role change rejected")
		return ErrSelfRoleChange
	}

	target, err := s.GetUserByID(ctx, params.TargetID)
	if err != nil {
		return err
	}

	underManager := target.ReportsTo(params.Actor.ID)
	caps := rules.Permissions(params.Actor.Role, target.ID, params.Actor.ID, underManager)
	if !caps.CanChangeUserRoles {
		return ErrPermissionDenied
	}
	if !rules.CanChangeUserRole(params.Actor.Role, target.Role, params.NewRole, underManager) {
		s.logger.Error().
			Str("actor_id", params.Actor.ID).
			Str("target_id", target.ID).
			Str("from", string(target.Role)).
			Str("to", string(params.NewRole)).
			Msg("role change not allowed")
		return ErrRoleChangeNotAllowed
	}

	// Roles without a manager chain drop their assignment.
	const updateRoleQuery = `
UPDATE profiles
SET role       = $1,
    manager_id = CASE WHEN $2 THEN manager_id ELSE NULL END,
    updated_at = $3
WHERE id = $4
`
	_, err = s.pgPool.Exec(
		ctx,
		updateRoleQuery,
		params.NewRole,
		params.NewRole.TakesManager(),
		time.Now(),
		target.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("target_id", target.ID).
			Msg("failed to update user role")
		return err
	}

	s.logger.Info().
		Str("actor_id", params.Actor.ID).
		Str("target_id", target.ID).
		Str("from", string(target.Role)).
		Str("to", string(params.NewRole)).
		Msg("updated user role")

	s.broker.Publish(ctx, realtime.Event{
		Table: "profiles",
		Op:    realtime.OpUpdate,
		RowID: target.ID,
	})
	return nil
}

func (s *userServiceImpl) UpdateUserManager(ctx context.Context, params UpdateUserManagerParams) error {
	if params.Actor.Role != models.RoleAdmin && params.Actor.Role != models.RoleSuperManager {
		return ErrPermissionDenied
	}

	target, err := s.GetUserByID(ctx, params.TargetID)
	if err != nil {
		return err
	}
	if !target.Role.TakesManager() {
		s.logger.Error().
			Str("target_id", target.ID).
			Str("role", string(target.Role)).
			Msg("role does not carry a manager")
		return ErrInvalidRole
	}

	if params.ManagerID != nil {
		manager, err := s.GetUserByID(ctx, *params.ManagerID)
		if err != nil {
			return err
		}
		if !manager.Role.ManagesReports() {
			s.logger.Error().
				Str("manager_id", manager.ID).
				Str("role", string(manager.Role)).
				Msg("assignee is not a manager")
			return ErrInvalidRole
		}
	}

	const updateManagerQuery = `
UPDATE profiles
SET manager_id = $1,
    updated_at = $2
WHERE id = $3
`
	_, err = s.pgPool.Exec(
		ctx,
		updateManagerQuery,
		params.ManagerID,
		time.Now(),
		target.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("target_id", target.ID).
			Msg("failed to update user manager")
		return err
	}

	s.logger.Info().
		Str("actor_id", params.Actor.ID).
		Str("target_id", target.ID).
		Msg("updated user manager")

	s.broker.Publish(ctx, realtime.Event{
		Table: "profiles",
		Op:    realtime.OpUpdate,
		RowID: target.ID,
	})
	return nil
}
