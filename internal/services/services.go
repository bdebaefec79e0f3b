package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avelkov/quadboard/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")

	ErrTaskNotFound     = errors.New("task not found")
	ErrTitleRequired    = errors.New("task title is required")
	ErrAssigneeRequired = errors.New("task assignee is required")
	ErrReasonRequired   = errors.New("a reason is required for this change")
	ErrInvalidQuadrant  = errors.New("invalid quadrant")

	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameRequired = errors.New("team name is required")

	ErrInvalidThresholds = errors.New("invalid due date thresholds")

	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotUnderManager      = errors.New("user does not report to this manager")
	ErrInvalidRole          = errors.New("invalid role")
	ErrSelfRoleChange       = errors.New("users may not change their own role")
	ErrRoleChangeNotAllowed = errors.New("role change not allowed")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register creates a user with the given email, password and
	// display name. The very first registered user becomes the
	// admin; everyone after that starts as an employee.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)

	// GetSessionUser resolves the session to its user in a single
	// query so the auth middleware can gate on role without a
	// second round trip.
	GetSessionUser(ctx context.Context, sessionID string) (*models.User, error)
}

type TaskService interface {
	// CreateTask validates and inserts a task. The quadrant is
	// classified from the due date unless the caller pins an
	// explicit one.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTask returns a task reclassified against the current
	// settings. The recomputed quadrant is not written back.
	// Viewers outside the admin/manager roles only reach tasks
	// they created or hold.
	GetTask(ctx context.Context, viewer models.User, taskID string) (*models.Task, error)

	// ListTasks returns a page of tasks visible to the viewer,
	// each reclassified against the current settings.
	ListTasks(ctx context.Context, params ListTasksParams) ([]*models.Task, error)

	// UpdateTask applies a field-wise update. Due-date and
	// progress changes are gated behind a non-empty reason and
	// produce one audit row each; progress edits must not
	// decrease; completion toggles force progress to 100 or 0.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// MoveTask pins a task to a quadrant chosen on the board,
	// exempting it from due-date reclassification.
	MoveTask(ctx context.Context, params MoveTaskParams) (*models.Task, error)

	DeleteTask(ctx context.Context, params DeleteTaskParams) error

	// SweepOverdue moves incomplete, unpinned tasks whose due date
	// lies more than markOverdueDays in the past into the critical
	// quadrant. It returns the number of tasks moved.
	SweepOverdue(ctx context.Context) (int, error)
}

type UserService interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// ListUsers returns the users visible to the viewer: admins
	// see everyone, managers their reports, everyone else only
	// themselves.
	ListUsers(ctx context.Context, viewer models.User) ([]*models.User, error)

	// UpdateProfile updates the caller's own display name and
	// avatar URL.
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.User, error)

	// UpdateUserRole is the only write path for the role column.
	// The transition is checked against the permission rules.
	UpdateUserRole(ctx context.Context, params UpdateUserRoleParams) error

	// UpdateUserManager is the only write path for the manager
	// column. Only roles that carry a manager may be assigned one.
	UpdateUserManager(ctx context.Context, params UpdateUserManagerParams) error
}

type TeamService interface {
	CreateTeam(ctx context.Context, params CreateTeamParams) (*models.Team, error)
	UpdateTeam(ctx context.Context, params UpdateTeamParams) (*models.Team, error)
	GetTeam(ctx context.Context, teamID string) (*models.Team, error)
	ListTeams(ctx context.Context, viewer models.User) ([]*models.Team, error)

	// SetTeamLead assigns a team-lead. The lead must report to
	// the team's manager.
	SetTeamLead(ctx context.Context, params SetTeamLeadParams) error

	// AddTeamMember adds an employee. The employee must report to
	// the team's manager.
	AddTeamMember(ctx context.Context, params TeamMemberParams) error

	RemoveTeamMember(ctx context.Context, params TeamMemberParams) error
}

type SettingsService interface {
	// GetSettings returns the singleton settings row, falling
	// back to the built-in defaults when it was never saved. The
	// row is cached per process and invalidated on save.
	GetSettings(ctx context.Context) (models.SystemSettings, error)

	// SaveSettings upserts the singleton row. Admin only.
	SaveSettings(ctx context.Context, params SaveSettingsParams) (models.SystemSettings, error)
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Email       string
	Password    string
	Name        string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	Actor        models.User
	Title        string
	Notes        string
	Icon         string
	AssignedToID string
	DueDate      *time.Time
	// Quadrant pins the task to an explicit quadrant; zero means
	// classify from the due date.
	Quadrant int
}

type ListTasksParams struct {
	Viewer models.User
	Page   int
	// PerPage falls back to the tasksPerPage setting when zero.
	PerPage int
}

type UpdateTaskParams struct {
	TaskID string
	Actor  models.User

	Title        *string
	Notes        *string
	Icon         *string
	AssignedToID *string
	Progress     *int
	Completed    *bool

	// DueDate applies only when DueDateSet; a nil DueDate with
	// DueDateSet clears the date.
	DueDate    *time.Time
	DueDateSet bool

	// Reason justifies a due-date or progress change. Required
	// unless SystemInitiated, in which case the audit rows carry
	// the placeholder reason.
	Reason          string
	SystemInitiated bool
}

type MoveTaskParams struct {
	TaskID   string
	Actor    models.User
	Quadrant int
}

type DeleteTaskParams struct {
	TaskID string
	Actor  models.User
}

type UpdateProfileParams struct {
	UserID    string
	Name      *string
	AvatarURL *string
}

type UpdateUserRoleParams struct {
	Actor    models.User
	TargetID string
	NewRole  models.Role
}

type UpdateUserManagerParams struct {
	Actor    models.User
	TargetID string
	// ManagerID nil clears the assignment.
	ManagerID *string
}

type CreateTeamParams struct {
	Actor models.User
	Name  string
	// ManagerID defaults to the actor for managers creating their
	// own team.
	ManagerID string
}

type UpdateTeamParams struct {
	Actor  models.User
	TeamID string
	Name   *string
}

type SetTeamLeadParams struct {
	Actor  models.User
	TeamID string
	// LeadID nil clears the lead.
	LeadID *string
}

type TeamMemberParams struct {
	Actor  models.User
	TeamID string
	UserID string
}

type SaveSettingsParams struct {
	Actor    models.User
	Settings models.SystemSettings
}
