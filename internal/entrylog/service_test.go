package entrylog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
)

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	dsn := "file:entrylog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.EntryLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func testVisitor() Visitor {
	return Visitor{Email: "Reader@Campus.EDU", Name: "Reader One", USN: "1SL21CS001"}
}

func TestOpenAndClose(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	entry, err := svc.Open(ctx, testVisitor(), now)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if entry.PatronEmail != "reader@campus.edu" || entry.OutTime != nil {
		t.Fatalf("unexpected entry %+v", entry)
	}

	open, err := repo.FindOpen(ctx, "reader@campus.edu")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if open.ID != entry.ID {
		t.Fatalf("expected entry %s open, got %s", entry.ID, open.ID)
	}

	if err := svc.Close(ctx, "reader@campus.edu", now.Add(time.Hour)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := repo.FindOpen(ctx, "reader@campus.edu"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected no open entry, got %v", err)
	}

	// Closing again is a no-op.
	if err := svc.Close(ctx, "reader@campus.edu", now.Add(2*time.Hour)); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenClosesPreviousVisit(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := svc.Open(ctx, testVisitor(), now)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	second, err := svc.Open(ctx, testVisitor(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second open: %v", err)
	}

	open, err := repo.FindOpen(ctx, "reader@campus.edu")
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if open.ID != second.ID {
		t.Fatalf("expected newest visit open, got %s (first %s)", open.ID, first.ID)
	}
}

func TestCloseIdle(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := svc.Open(ctx, Visitor{Email: "stale@campus.edu", Name: "Stale"}, now.Add(-30*time.Minute)); err != nil {
		t.Fatalf("open stale: %v", err)
	}
	if _, err := svc.Open(ctx, Visitor{Email: "fresh@campus.edu", Name: "Fresh"}, now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("open fresh: %v", err)
	}

	closed, err := svc.CloseIdle(ctx, 10*time.Minute, now)
	if err != nil {
		t.Fatalf("close idle: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 idle visit closed, got %d", closed)
	}

	if _, err := repo.FindOpen(ctx, "stale@campus.edu"); err != gorm.ErrRecordNotFound {
		t.Fatalf("stale visit should be closed, got %v", err)
	}
	if _, err := repo.FindOpen(ctx, "fresh@campus.edu"); err != nil {
		t.Fatalf("fresh visit should stay open: %v", err)
	}
}

func TestListOpenOnly(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := svc.Open(ctx, Visitor{Email: "a@campus.edu", Name: "A"}, now.Add(-time.Hour)); err != nil {
		t.Fatalf("open a: %v", err)
	}
	if _, err := svc.Open(ctx, Visitor{Email: "b@campus.edu", Name: "B"}, now); err != nil {
		t.Fatalf("open b: %v", err)
	}
	if err := svc.Close(ctx, "a@campus.edu", now); err != nil {
		t.Fatalf("close a: %v", err)
	}

	open, err := svc.List(ctx, ListEntriesInput{OpenOnly: true})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open.Entries) != 1 || open.Entries[0].PatronEmail != "b@campus.edu" {
		t.Fatalf("unexpected open entries %+v", open.Entries)
	}

	all, err := svc.List(ctx, ListEntriesInput{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all.Entries))
	}
}
