package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfline/shelfline-backend/pkg/logger"
)

type visitCloser interface {
	CloseIdle(ctx context.Context, idleTimeout time.Duration, now time.Time) (int64, error)
}

type EntryLogCloseJobParams struct {
	Logger      *logger.Logger
	EntryLog    visitCloser
	IdleTimeout time.Duration
}

// NewEntryLogCloseJob builds the sweep that closes visits whose patron never
// logged out.
func NewEntryLogCloseJob(params EntryLogCloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.EntryLog == nil {
		return nil, fmt.Errorf("entry log service required")
	}
	if params.IdleTimeout <= 0 {
		return nil, fmt.Errorf("idle timeout must be positive")
	}
	return &entryLogCloseJob{
		logg:        params.Logger,
		visits:      params.EntryLog,
		idleTimeout: params.IdleTimeout,
		now:         time.Now,
	}, nil
}

type entryLogCloseJob struct {
	logg        *logger.Logger
	visits      visitCloser
	idleTimeout time.Duration
	now         func() time.Time
}

func (j *entryLogCloseJob) Name() string { return "entrylog-close" }

func (j *entryLogCloseJob) Run(ctx context.Context) error {
	closed, err := j.visits.CloseIdle(ctx, j.idleTimeout, j.now().UTC())
	if err != nil {
		return fmt.Errorf("entry log close: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"idle_timeout":  j.idleTimeout.String(),
		"visits_closed": closed,
	})
	j.logg.Info(logCtx, "idle visit sweep complete")
	return nil
}
