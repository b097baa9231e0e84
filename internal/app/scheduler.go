package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduler runs the month-end collection on the configured cron schedule.
// The default schedule fires early on the 1st, so each run collects the
// month that just ended and refreshes the performance table from it.
type scheduler struct {
	cron *cron.Cron
}

func newScheduler(a *App) (*scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(a.Config.Collector.Schedule, func() {
		runScheduledCollection(a)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	a.Logger.Info().Str("schedule", a.Config.Collector.Schedule).Msg("Collection scheduler started")
	return &scheduler{cron: c}, nil
}

func runScheduledCollection(a *App) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Previous calendar month relative to now.
	now := time.Now().UTC()
	target := now.AddDate(0, 0, -now.Day())
	year, month := target.Year(), target.Month()

	result, err := a.MarketService.CollectMonthEnd(ctx, year, month)
	if err != nil {
		a.Logger.Error().Err(err).Int("year", year).Int("month", int(month)).
			Msg("Scheduled collection failed")
		return
	}
	a.Logger.Info().
		Str("run_id", result.RunID).
		Int("collected", len(result.Collected)).
		Int("skipped", len(result.Skipped)).
		Msg("Scheduled collection finished")

	if _, _, err := a.PortfolioService.Recalculate(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("Post-collection recalculation failed")
	}
}

func (s *scheduler) stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
