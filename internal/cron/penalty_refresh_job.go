package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfline/shelfline-backend/pkg/logger"
)

type penaltyRefresher interface {
	RefreshPenalties(ctx context.Context, now time.Time) (int, error)
}

type PenaltyRefreshJobParams struct {
	Logger      *logger.Logger
	Circulation penaltyRefresher
}

// NewPenaltyRefreshJob builds the nightly job that recomputes the stored fee
// on every overdue active loan.
func NewPenaltyRefreshJob(params PenaltyRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Circulation == nil {
		return nil, fmt.Errorf("circulation service required")
	}
	return &penaltyRefreshJob{
		logg:        params.Logger,
		circulation: params.Circulation,
		now:         time.Now,
	}, nil
}

type penaltyRefreshJob struct {
	logg        *logger.Logger
	circulation penaltyRefresher
	now         func() time.Time
}

func (j *penaltyRefreshJob) Name() string { return "penalty-refresh" }

func (j *penaltyRefreshJob) Run(ctx context.Context) error {
	updated, err := j.circulation.RefreshPenalties(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("penalty refresh: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "loans_updated", updated)
	j.logg.Info(logCtx, "penalty refresh complete")
	return nil
}
