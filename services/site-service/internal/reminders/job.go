// Package reminders emails customers the day before their appointment.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lbsconnect/examcenter/services/site-service/internal/metrics"
	"github.com/lbsconnect/examcenter/services/site-service/internal/model"
	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "0 17 * * *"

type Store interface {
	DueReminders(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

type Sender interface {
	SendReminder(ctx context.Context, appt model.Appointment) error
}

type Config struct {
	// Schedule is a standard five field cron expression in Location.
	Schedule    string
	Location    *time.Location
	SendTimeout time.Duration
	Now         func() time.Time
}

type Job struct {
	store  Store
	sender Sender
	logger *slog.Logger
	cfg    Config
}

func New(store Store, sender Sender, logger *slog.Logger, cfg Config) *Job {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Job{store: store, sender: sender, logger: logger, cfg: cfg}
}

// Run schedules the job and blocks until ctx is cancelled and any running pass finished.
func (j *Job) Run(ctx context.Context) error {
	logger := cronLogger{j.logger}
	c := cron.New(
		cron.WithLocation(j.cfg.Location),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(j.cfg.Schedule, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error("reminder pass failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("reminder schedule %q: %w", j.cfg.Schedule, err)
	}

	c.Start()
	j.logger.Info("reminder job scheduled", "schedule", j.cfg.Schedule, "location", j.cfg.Location.String())
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce reminds every live appointment of the next calendar day that has not
// been reminded yet and returns how many reminders went out.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	now := j.cfg.Now().In(j.cfg.Location)
	y, m, d := now.Date()
	start := time.Date(y, m, d+1, 0, 0, 0, 0, j.cfg.Location)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	due, err := j.store.DueReminders(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	sent := 0
	for _, appt := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		sendCtx, cancel := context.WithTimeout(ctx, j.cfg.SendTimeout)
		err := j.sender.SendReminder(sendCtx, appt)
		cancel()
		if err != nil {
			metrics.IncNotification("reminder", "error")
			j.logger.Error("reminder send failed", "appointment_id", appt.ID, "err", err)
			continue
		}
		metrics.IncNotification("reminder", "sent")
		if err := j.store.MarkReminderSent(ctx, appt.ID, j.cfg.Now().UTC()); err != nil {
			j.logger.Error("record reminder failed", "appointment_id", appt.ID, "err", err)
		}
		sent++
	}
	if len(due) > 0 {
		j.logger.Info("reminder pass done", "due", len(due), "sent", sent, "day", start.Format("2006-01-02"))
	}
	return sent, nil
}

type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
