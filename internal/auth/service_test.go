package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/internal/entrylog"
	pkgAuth "github.com/shelfline/shelfline-backend/pkg/auth"
	"github.com/shelfline/shelfline-backend/pkg/auth/session"
	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/security"
)

type stubDirectory struct {
	students map[string]*models.Student
	staff    map[string]*models.Staff
}

func (s *stubDirectory) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	if student, ok := s.students[email]; ok {
		return student, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubDirectory) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	if staff, ok := s.staff[email]; ok {
		return staff, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubEntryLog struct {
	opened []entrylog.Visitor
	closed []string
}

func (s *stubEntryLog) Open(ctx context.Context, visitor entrylog.Visitor, now time.Time) (*models.EntryLog, error) {
	s.opened = append(s.opened, visitor)
	return &models.EntryLog{PatronEmail: strings.ToLower(visitor.Email)}, nil
}

func (s *stubEntryLog) Close(ctx context.Context, patronEmail string, now time.Time) error {
	s.closed = append(s.closed, strings.ToLower(patronEmail))
	return nil
}

type stubSessions struct {
	tokens  map[string]string
	revoked []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + newAccessID
	s.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.tokens, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "shelfline",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return hash
}

type fixture struct {
	svc      Service
	visits   *stubEntryLog
	sessions *stubSessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	directory := &stubDirectory{
		students: map[string]*models.Student{
			"asha@example.edu": {
				ID:           uuid.New(),
				USN:          "1MS21CS001",
				Name:         "Asha Rao",
				Email:        "asha@example.edu",
				Branch:       "CSE",
				PasswordHash: mustHash(t, "patron-pass"),
			},
		},
		staff: map[string]*models.Staff{
			"librarian@example.edu": {
				ID:           uuid.New(),
				Name:         "Head Librarian",
				Email:        "librarian@example.edu",
				PasswordHash: mustHash(t, "admin-pass"),
			},
		},
	}

	visits := &stubEntryLog{}
	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{
		Members:        directory,
		EntryLog:       visits,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, visits: visits, sessions: sessions}
}

func TestPatronLoginOpensVisit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := f.svc.PatronLogin(context.Background(), LoginRequest{Email: "Asha@Example.edu", Password: "patron-pass"})
	if err != nil {
		t.Fatalf("PatronLogin: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.Member.Role != enums.MemberRolePatron || resp.Member.USN != "1MS21CS001" {
		t.Fatalf("unexpected member %+v", resp.Member)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Role != enums.MemberRolePatron || claims.Email != "asha@example.edu" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, ok := f.sessions.tokens[claims.ID]; !ok {
		t.Fatal("refresh session not stored under jti")
	}

	if len(f.visits.opened) != 1 || f.visits.opened[0].USN != "1MS21CS001" {
		t.Fatalf("expected one opened visit, got %+v", f.visits.opened)
	}
}

func TestPatronLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	cases := []LoginRequest{
		{Email: "asha@example.edu", Password: "wrong-pass"},
		{Email: "nobody@example.edu", Password: "patron-pass"},
		{Email: "", Password: "patron-pass"},
	}
	for _, req := range cases {
		_, err := f.svc.PatronLogin(context.Background(), req)
		domainErr := pkgerrors.As(err)
		if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
	if len(f.visits.opened) != 0 {
		t.Fatal("failed login must not open a visit")
	}
}

func TestAdminLoginDoesNotTouchEntryLog(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	resp, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: "librarian@example.edu", Password: "admin-pass"})
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if resp.Member.Role != enums.MemberRoleAdmin {
		t.Fatalf("unexpected role %s", resp.Member.Role)
	}
	if len(f.visits.opened) != 0 {
		t.Fatal("admin login must not open a visit")
	}
}

func TestAdminLoginRejectsPatronAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: "asha@example.edu", Password: "patron-pass"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	login, err := f.svc.PatronLogin(context.Background(), LoginRequest{Email: "asha@example.edu", Password: "patron-pass"})
	if err != nil {
		t.Fatalf("PatronLogin: %v", err)
	}

	refreshed, err := f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), refreshed.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.USN != "1MS21CS001" || claims.Role != enums.MemberRolePatron {
		t.Fatalf("identity must survive rotation, got %+v", claims)
	}

	// The old pair is burned.
	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for replayed pair, got %v", err)
	}
}

func TestLogoutRevokesAndClosesVisit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	login, err := f.svc.PatronLogin(context.Background(), LoginRequest{Email: "asha@example.edu", Password: "patron-pass"})
	if err != nil {
		t.Fatalf("PatronLogin: %v", err)
	}

	if err := f.svc.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(f.sessions.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(f.sessions.revoked))
	}
	if len(f.visits.closed) != 1 || f.visits.closed[0] != "asha@example.edu" {
		t.Fatalf("expected closed visit for patron, got %v", f.visits.closed)
	}
}

func TestLogoutAdminSkipsEntryLog(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	login, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: "librarian@example.edu", Password: "admin-pass"})
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if err := f.svc.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(f.visits.closed) != 0 {
		t.Fatal("admin logout must not close a visit")
	}
}
