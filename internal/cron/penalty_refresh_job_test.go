package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelfline/shelfline-backend/pkg/logger"
)

type fakePenaltyRefresher struct {
	updated int
	err     error
	lastNow time.Time
	called  int
}

func (f *fakePenaltyRefresher) RefreshPenalties(ctx context.Context, now time.Time) (int, error) {
	f.called++
	f.lastNow = now
	if f.err != nil {
		return 0, f.err
	}
	return f.updated, nil
}

func newPenaltyRefreshJob(t *testing.T, svc *fakePenaltyRefresher) *penaltyRefreshJob {
	t.Helper()
	jobIface, err := NewPenaltyRefreshJob(PenaltyRefreshJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Circulation: svc,
	})
	if err != nil {
		t.Fatalf("NewPenaltyRefreshJob: %v", err)
	}
	job, ok := jobIface.(*penaltyRefreshJob)
	if !ok {
		t.Fatalf("expected penaltyRefreshJob, got %T", jobIface)
	}
	return job
}

func TestPenaltyRefreshJobPassesCurrentTime(t *testing.T) {
	now := time.Date(2026, 2, 14, 3, 0, 0, 0, time.UTC)
	svc := &fakePenaltyRefresher{updated: 7}
	job := newPenaltyRefreshJob(t, svc)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.called != 1 {
		t.Fatalf("expected one refresh call, got %d", svc.called)
	}
	if !svc.lastNow.Equal(now) {
		t.Fatalf("expected now %s, got %s", now, svc.lastNow)
	}
}

func TestPenaltyRefreshJobPropagatesErrors(t *testing.T) {
	svc := &fakePenaltyRefresher{err: errors.New("boom")}
	job := newPenaltyRefreshJob(t, svc)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
