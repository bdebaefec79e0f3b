package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/avelkov/quadboard/internal/config"
	"github.com/avelkov/quadboard/internal/services"
)

var globalCron *cron.Cron

// MustStartCron schedules the overdue sweep. Tasks long past their due
// date get their stored quadrant aligned with what classification
// already reports, so sorted queries and exports agree with the board.
func MustStartCron(taskService services.TaskService) {
	spec := config.Global().Cron.OverdueSweepSpec

	globalCron = cron.New()
	_, err := globalCron.AddFunc(spec, func() {
		moved, err := taskService.SweepOverdue(context.Background())
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("overdue sweep failed")
			return
		}
		globalLogger.Info().
			Int("moved", moved).
			Msg("overdue sweep finished")
	})
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("spec", spec).
			Msg("failed to schedule overdue sweep")
		panic(err)
	}

	globalCron.Start()
	globalLogger.Info().
		Str("spec", spec).
		Msg("scheduled overdue sweep")
}

func StopCron() {
	if globalCron != nil {
		<-globalCron.Stop().Done()
		globalLogger.Info().Msg("stopped cron")
	}
}
