package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// RefreshWorker resyncs the dashboard snapshot on a cron schedule. A run that
// is still going when the next tick fires makes that tick a no-op.
type RefreshWorker struct {
	refresher Refresher
	spec      string
	schedule  cron.Schedule
	logger    zerolog.Logger
	cron      *cron.Cron
}

func NewRefreshWorker(refresher Refresher, spec string, logger zerolog.Logger) (*RefreshWorker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	w := &RefreshWorker{
		refresher: refresher,
		spec:      spec,
		schedule:  schedule,
		logger:    logger.With().Str("worker", "refresh").Logger(),
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	return w, nil
}

// Start blocks until ctx is done, then waits for a running refresh to return.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.cron.Schedule(w.schedule, cron.FuncJob(func() { _ = w.RunOnce(ctx) }))
	w.cron.Start()
	w.logger.Info().Str("schedule", w.spec).Msg("Refresh worker started")

	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.logger.Info().Msg("Refresh worker stopped")
}

func (w *RefreshWorker) RunOnce(ctx context.Context) error {
	start := time.Now()
	if err := w.refresher.RefreshAll(ctx); err != nil {
		w.logger.Error().Err(err).Dur("took", time.Since(start)).Msg("Scheduled refresh failed")
		return fmt.Errorf("failed to refresh dashboard: %w", err)
	}
	w.logger.Debug().Dur("took", time.Since(start)).Msg("Scheduled refresh completed")
	return nil
}
