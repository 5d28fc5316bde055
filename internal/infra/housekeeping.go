package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

// Job is a named housekeeping task.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Housekeeper runs periodic maintenance jobs on a cron schedule.
type Housekeeper struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

// NewHousekeeper schedules every job on spec (robfig/cron syntax, e.g. "@every 5m").
func NewHousekeeper(spec string, jobs []Job, logger *slog.Logger) (*Housekeeper, error) {
	h := &Housekeeper{cron: cron.New(), logger: logger, timeout: 30 * time.Second}
	for _, job := range jobs {
		job := job
		if err := h.cron.AddFunc(spec, func() { h.runJob(job) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}
	return h, nil
}

func (h *Housekeeper) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	start := time.Now()
	n, err := job.Run(ctx)
	if err != nil {
		h.logger.Error("housekeeping job failed", "job", job.Name, "error", err)
		return
	}
	h.logger.Info("housekeeping job done", "job", job.Name, "removed", n, "duration_ms", time.Since(start).Milliseconds())
}

// Start begins running jobs in the background.
func (h *Housekeeper) Start() {
	h.cron.Start()
}

// Stop halts the scheduler. Jobs already running are not interrupted.
func (h *Housekeeper) Stop() {
	h.cron.Stop()
}
