package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartReconciler запускает сверку статистики по cron-расписанию.
// Останавливается вместе с ctx.
func (a *App) StartReconciler(ctx context.Context, spec string) (*cron.Cron, error) {
	logger := a.Log.With().Str("component", "reconciler").Logger()
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		fixed, err := a.StatsUC.Reconcile(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("reconciler: сверка не удалась")
			return
		}
		logger.Debug().Int("fixed", fixed).Msg("reconciler: сверка завершена")
	})
	if err != nil {
		return nil, fmt.Errorf("расписание %q: %w", spec, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
