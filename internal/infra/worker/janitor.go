package worker

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor runs periodic maintenance (expired cache/rate-limit entry
// cleanup) on WorkerConfig's cron schedule. It reuses the worker
// package's existing config validation and health server rather than
// introducing a second scheduling stack.
type Janitor struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewJanitor builds a Janitor that invokes cleanup on cfg's schedule,
// in cfg's timezone. cfg must already be valid (see WorkerConfig.Validate).
func NewJanitor(cfg WorkerConfig, logger *slog.Logger, cleanup func()) (*Janitor, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.CronSchedule, func() {
		logger.Info("janitor cleanup starting")
		cleanup()
		logger.Info("janitor cleanup finished")
	})
	if err != nil {
		return nil, err
	}

	return &Janitor{cron: c, logger: logger}, nil
}

// Start begins running the scheduled cleanup in the background.
func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the scheduler and waits for any in-flight job to finish.
func (j *Janitor) Stop() { <-j.cron.Stop().Done() }
