package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shelfline/shelfline-backend/api/middleware"
	"github.com/shelfline/shelfline-backend/internal/cart"
	"github.com/shelfline/shelfline-backend/internal/circulation"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	"github.com/shelfline/shelfline-backend/pkg/logger"
)

type stubIssueService struct {
	circulation.Service

	results []circulation.IssueResult
}

func (s *stubIssueService) Issue(_ context.Context, _ enums.LoanKind, _ circulation.Patron, _ []string) ([]circulation.IssueResult, error) {
	return s.results, nil
}

type stubRoster struct {
	students.Service
}

func (stubRoster) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	return &models.Student{
		Email:      email,
		Name:       "Reader One",
		USN:        "1SL21CS001",
		Branch:     "CSE",
		Department: "Engineering",
	}, nil
}

type stubCartService struct {
	cart.Service

	items       []cart.Item
	clearCalls  int
	removeCalls int
}

func (s *stubCartService) Get(_ context.Context, _ string) ([]cart.Item, error) {
	return s.items, nil
}

func (s *stubCartService) Remove(_ context.Context, _, _ string) ([]cart.Item, error) {
	s.removeCalls++
	return s.items, nil
}

func (s *stubCartService) Clear(_ context.Context, _ string) error {
	s.clearCalls++
	return nil
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-controllers", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func issueFromCartRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.WithMember(req.Context(), "member-1", "reader@campus.edu", "Reader One", "1SL21CS001", string(enums.MemberRolePatron))
	return req.WithContext(ctx)
}

func TestPatronIssueClearsCartOnceWhenAllIssued(t *testing.T) {
	t.Parallel()

	circ := &stubIssueService{results: []circulation.IssueResult{
		{ISBN: "isbn-1", Issued: true},
		{ISBN: "isbn-2", Issued: true},
	}}
	cartSvc := &stubCartService{items: []cart.Item{{ISBN: "isbn-1"}, {ISBN: "isbn-2"}}}
	handler := PatronIssue(circ, stubRoster{}, cartSvc, controllerTestLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, issueFromCartRequest(`{"kind":"borrow","from_cart":true}`))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if cartSvc.clearCalls != 1 {
		t.Fatalf("expected one cart clear, got %d", cartSvc.clearCalls)
	}
	if cartSvc.removeCalls != 0 {
		t.Fatalf("expected no per-item removals, got %d", cartSvc.removeCalls)
	}
}

func TestPatronIssueKeepsCartOnPartialBatch(t *testing.T) {
	t.Parallel()

	circ := &stubIssueService{results: []circulation.IssueResult{
		{ISBN: "isbn-1", Issued: true},
		{ISBN: "isbn-2", Reason: "no copies available"},
	}}
	cartSvc := &stubCartService{items: []cart.Item{{ISBN: "isbn-1"}, {ISBN: "isbn-2"}}}
	handler := PatronIssue(circ, stubRoster{}, cartSvc, controllerTestLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, issueFromCartRequest(`{"kind":"borrow","from_cart":true}`))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if cartSvc.clearCalls != 0 {
		t.Fatalf("a partial batch must leave the cart intact, got %d clears", cartSvc.clearCalls)
	}
}
