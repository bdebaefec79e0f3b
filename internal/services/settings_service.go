package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/avelkov/quadboard/internal/models"
	"github.com/avelkov/quadboard/internal/realtime"
)

type settingsServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	broker *realtime.Broker

	mu     sync.RWMutex
	cached *models.SystemSettings
}

func NewSettingsService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	broker *realtime.Broker,
) SettingsService {
	return &settingsServiceImpl{
		logger: logger,
		pgPool: pgPool,
		broker: broker,
	}
}

func (s *settingsServiceImpl) GetSettings(ctx context.Context) (models.SystemSettings, error) {
	s.mu.RLock()
	if s.cached != nil {
		settings := *s.cached
		s.mu.RUnlock()
		return settings, nil
	}
	s.mu.RUnlock()

	settings := models.SystemSettings{ID: models.SettingsID}

	const selectSettingsQuery = `
SELECT threshold_critical,
       threshold_medium,
       threshold_low,
       tasks_per_page,
       default_sort_order,
       mark_overdue_days,
       warning_days,
       updated_at
FROM system_settings
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectSettingsQuery,
		settings.ID,
	).Scan(
		&settings.Thresholds.Critical,
		&settings.Thresholds.Medium,
		&settings.Thresholds.Low,
		&settings.TasksPerPage,
		&settings.DefaultSortOrder,
		&settings.MarkOverdueDays,
		&settings.WarningDays,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The row is created lazily on first save; until
			// then the built-in defaults apply.
			settings = models.DefaultSettings()
			s.logger.Debug().Msg("settings row absent, using defaults")
		} else {
			s.logger.Error().
				Err(err).
				Msg("failed to select system settings")
			return models.SystemSettings{}, err
		}
	}

	s.mu.Lock()
	s.cached = &settings
	s.mu.Unlock()

	return settings, nil
}

func (s *settingsServiceImpl) SaveSettings(ctx context.Context, params SaveSettingsParams) (models.SystemSettings, error) {
	if params.Actor.Role != models.RoleAdmin {
		s.logger.Error().
			Str("actor_id", params.Actor.ID).
			Str("role", string(params.Actor.Role)).
			Msg("settings save denied")
		return models.SystemSettings{}, ErrPermissionDenied
	}

	settings := params.Settings
	settings.ID = models.SettingsID
	settings.UpdatedAt = time.Now()

	if settings.Thresholds.Critical < 0 || settings.Thresholds.Medium < settings.Thresholds.Critical {
		s.logger.Error().
			Int("critical", settings.Thresholds.Critical).
			Int("medium", settings.Thresholds.Medium).
			Msg("rejected due date thresholds")
		return models.SystemSettings{}, ErrInvalidThresholds
	}
	if settings.TasksPerPage < 1 {
		settings.TasksPerPage = models.DefaultSettings().TasksPerPage
	}

	const upsertSettingsQuery = `
INSERT INTO system_settings (id,
                             threshold_critical,
                             threshold_medium,
                             threshold_low,
                             tasks_per_page,
                             default_sort_order,
                             mark_overdue_days,
                             warning_days,
                             updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
    SET threshold_critical = EXCLUDED.threshold_critical,
        threshold_medium   = EXCLUDED.threshold_medium,
        threshold_low      = EXCLUDED.threshold_low,
        tasks_per_page     = EXCLUDED.tasks_per_page,
        default_sort_order = EXCLUDED.default_sort_order,
        mark_overdue_days  = EXCLUDED.mark_overdue_days,
        warning_days       = EXCLUDED.warning_days,
        updated_at         = EXCLUDED.updated_at
`
	_, err := s.pgPool.Exec(
		ctx,
		upsertSettingsQuery,
		settings.ID,
		settings.Thresholds.Critical,
		settings.Thresholds.Medium,
		settings.Thresholds.Low,
		settings.TasksPerPage,
		settings.DefaultSortOrder,
		settings.MarkOverdueDays,
		settings.WarningDays,
		settings.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to upsert system settings")
		return models.SystemSettings{}, err
	}

	s.mu.Lock()
	s.cached = &settings
	s.mu.Unlock()

	s.logger.Info().
		Str("actor_id", params.Actor.ID).
		Int("critical", settings.Thresholds.Critical).
		Int("medium", settings.Thresholds.Medium).
		Msg("saved system settings")

	s.broker.Publish(ctx, realtime.Event{
		Table: "system_settings",
		Op:    realtime.OpUpdate,
		RowID: settings.ID,
	})
	return settings, nil
}
