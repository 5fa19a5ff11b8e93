package penalty

import (
	"testing"
	"time"

	"github.com/shelfline/shelfline-backend/pkg/config"
)

func testPolicy(t *testing.T) Policy {
	t.Helper()
	policy, err := NewPolicy(config.CirculationConfig{
		LoanPeriod:     240 * time.Hour,
		PenaltyPerDay:  10,
		PenaltyCapDays: 10,
	})
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return policy
}

func TestDueDate(t *testing.T) {
	t.Parallel()

	policy := testPolicy(t)
	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	due := policy.DueDate(issued)
	if want := issued.AddDate(0, 0, 10); !due.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, due)
	}
}

func TestAmount(t *testing.T) {
	t.Parallel()

	policy := testPolicy(t)
	due := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before due", due.Add(-time.Hour), 0},
		{"exactly due", due, 0},
		{"under one day late", due.Add(23 * time.Hour), 0},
		{"one day late", due.Add(25 * time.Hour), 10},
		{"five days late", due.AddDate(0, 0, 5).Add(time.Hour), 50},
		{"ten days late hits cap", due.AddDate(0, 0, 10).Add(time.Hour), 100},
		{"eleven days late stays capped", due.AddDate(0, 0, 11), 100},
		{"thirty days late stays capped", due.AddDate(0, 0, 30), 100},
		{"a year late stays capped", due.AddDate(1, 0, 0), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Amount(due, tc.now); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}

	if policy.MaxAmount() != 100 {
		t.Fatalf("expected max 100, got %d", policy.MaxAmount())
	}
}

func TestPaidToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	if PaidToday(nil, now) {
		t.Fatal("nil paid-at must not pass the gate")
	}

	sameDay := time.Date(2025, 3, 15, 0, 5, 0, 0, time.UTC)
	if !PaidToday(&sameDay, now) {
		t.Fatal("payment earlier the same day should pass")
	}

	yesterday := now.AddDate(0, 0, -1)
	if PaidToday(&yesterday, now) {
		t.Fatal("payment from a previous day must not pass")
	}
}

func TestNewPolicyRejectsBadConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewPolicy(config.CirculationConfig{LoanPeriod: 0, PenaltyPerDay: 10, PenaltyCapDays: 10}); err == nil {
		t.Fatal("expected error for zero loan period")
	}
	if _, err := NewPolicy(config.CirculationConfig{LoanPeriod: time.Hour, PenaltyPerDay: -1, PenaltyCapDays: 10}); err == nil {
		t.Fatal("expected error for negative per-day fee")
	}
}
