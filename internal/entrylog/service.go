package entrylog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
)

// Visitor identifies the patron whose visit is being logged.
type Visitor struct {
	Email string
	Name  string
	USN   string
}

// Service records library visits: a log opens at login and closes at logout,
// or when the idle sweeper catches a session that never logged out.
type Service interface {
	Open(ctx context.Context, visitor Visitor, now time.Time) (*models.EntryLog, error)
	Close(ctx context.Context, patronEmail string, now time.Time) error
	CloseIdle(ctx context.Context, idleTimeout time.Duration, now time.Time) (int64, error)
	List(ctx context.Context, input ListEntriesInput) (*EntryListResult, error)
}

type service struct {
	repo Repository
}

// NewService wires the entry log service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entry log repository required")
	}
	return &service{repo: repo}, nil
}

// Open starts a fresh visit. A still-open previous visit is closed first so a
// patron never holds two open logs.
func (s *service) Open(ctx context.Context, visitor Visitor, now time.Time) (*models.EntryLog, error) {
	email := strings.ToLower(strings.TrimSpace(visitor.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patron email is required")
	}
	if strings.TrimSpace(visitor.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patron name is required")
	}

	if _, err := s.repo.CloseOpen(ctx, email, now); err != nil {
		return nil, err
	}

	entry := &models.EntryLog{
		PatronEmail: email,
		PatronName:  strings.TrimSpace(visitor.Name),
		USN:         strings.TrimSpace(visitor.USN),
		InTime:      now,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Close stamps the out time on the patron's open visit. Closing with no open
// visit is a no-op.
func (s *service) Close(ctx context.Context, patronEmail string, now time.Time) error {
	email := strings.ToLower(strings.TrimSpace(patronEmail))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "patron email is required")
	}
	_, err := s.repo.CloseOpen(ctx, email, now)
	return err
}

func (s *service) CloseIdle(ctx context.Context, idleTimeout time.Duration, now time.Time) (int64, error) {
	if idleTimeout <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "idle timeout must be positive")
	}
	return s.repo.CloseIdleBefore(ctx, now.Add(-idleTimeout), now)
}

func (s *service) List(ctx context.Context, input ListEntriesInput) (*EntryListResult, error) {
	input.PatronEmail = strings.ToLower(strings.TrimSpace(input.PatronEmail))
	return s.repo.List(ctx, input)
}
