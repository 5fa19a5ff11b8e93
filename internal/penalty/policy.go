package penalty

import (
	"fmt"
	"time"

	"github.com/shelfline/shelfline-backend/pkg/config"
)

// Policy holds the lending policy used to derive due dates and late fees.
type Policy struct {
	loanPeriod time.Duration
	perDay     int
	capDays    int
}

// NewPolicy validates and builds a Policy from configuration.
func NewPolicy(cfg config.CirculationConfig) (Policy, error) {
	if cfg.LoanPeriod <= 0 {
		return Policy{}, fmt.Errorf("loan period must be positive")
	}
	if cfg.PenaltyPerDay < 0 {
		return Policy{}, fmt.Errorf("penalty per day cannot be negative")
	}
	if cfg.PenaltyCapDays < 0 {
		return Policy{}, fmt.Errorf("penalty cap days cannot be negative")
	}
	return Policy{
		loanPeriod: cfg.LoanPeriod,
		perDay:     cfg.PenaltyPerDay,
		capDays:    cfg.PenaltyCapDays,
	}, nil
}

// DueDate returns when a loan issued at the given time falls due.
func (p Policy) DueDate(issuedAt time.Time) time.Time {
	return issuedAt.Add(p.loanPeriod)
}

// Amount computes the late fee owed at the given moment. Accrual is per
// whole day past the due date and stops at the configured cap.
func (p Policy) Amount(dueAt, now time.Time) int {
	if !now.After(dueAt) {
		return 0
	}
	daysLate := int(now.Sub(dueAt) / (24 * time.Hour))
	if daysLate <= 0 {
		return 0
	}
	if daysLate > p.capDays {
		daysLate = p.capDays
	}
	return daysLate * p.perDay
}

// MaxAmount returns the largest fee a single loan can accrue.
func (p Policy) MaxAmount() int {
	return p.capDays * p.perDay
}

// PaidToday reports whether a settlement timestamp authorises a return right
// now. Payment only counts on the calendar day it was made; a flag left over
// from a previous day no longer clears the gate.
func PaidToday(paidAt *time.Time, now time.Time) bool {
	if paidAt == nil {
		return false
	}
	y1, m1, d1 := paidAt.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
