package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers. Patron logins
// open an entry-log visit; a patron logout closes it.
type Service interface {
	PatronLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

type memberDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
}

type entryLogger interface {
	Open(ctx context.Context, visitor entrylog.Visitor, now time.Time) (*models.EntryLog, error)
	Close(ctx context.Context, patronEmail string, now time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Members        memberDirectory
	EntryLog       entryLogger
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

type service struct {
	members memberDirectory
	visits  entryLogger
	session sessionManager
	jwtCfg  config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Members == nil {
		return nil, fmt.Errorf("member directory is required")
	}
	if params.EntryLog == nil {
		return nil, fmt.Errorf("entry log service is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		members: params.Members,
		visits:  params.EntryLog,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
	}, nil
}

func (s *service) PatronLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	student, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		return nil, asCredentialError(err, "lookup patron")
	}
	if err := verifyPassword(req.Password, student.PasswordHash); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payload := pkgAuth.AccessTokenPayload{
		MemberID: student.ID,
		Email:    student.Email,
		Name:     student.Name,
		USN:      student.USN,
		Role:     enums.MemberRolePatron,
		JTI:      session.NewAccessID(),
	}
	resp, err := s.issueTokens(ctx, now, payload)
	if err != nil {
		return nil, err
	}
	resp.Member = MemberSummary{
		ID:         student.ID,
		Email:      student.Email,
		Name:       student.Name,
		USN:        student.USN,
		Branch:     student.Branch,
		Department: student.Department,
		Role:       enums.MemberRolePatron,
	}

	if _, err := s.visits.Open(ctx, entrylog.Visitor{
		Email: student.Email,
		Name:  student.Name,
		USN:   student.USN,
	}, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open entry log")
	}

	return resp, nil
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	staff, err := s.members.GetStaffByEmail(ctx, email)
	if err != nil {
		return nil, asCredentialError(err, "lookup staff")
	}
	if err := verifyPassword(req.Password, staff.PasswordHash); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payload := pkgAuth.AccessTokenPayload{
		MemberID: staff.ID,
		Email:    staff.Email,
		Name:     staff.Name,
		Role:     enums.MemberRoleAdmin,
		JTI:      session.NewAccessID(),
	}
	resp, err := s.issueTokens(ctx, now, payload)
	if err != nil {
		return nil, err
	}
	resp.Member = MemberSummary{
		ID:    staff.ID,
		Email: staff.Email,
		Name:  staff.Name,
		Role:  enums.MemberRoleAdmin,
	}
	return resp, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	now := time.Now().UTC()
	payload := pkgAuth.AccessTokenPayload{
		MemberID: claims.MemberID,
		Email:    claims.Email,
		Name:     claims.Name,
		USN:      claims.USN,
		Role:     claims.Role,
		JTI:      newAccessID,
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    now.Add(s.accessTTL()),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}

	if claims.Role == enums.MemberRolePatron {
		if err := s.visits.Close(ctx, claims.Email, time.Now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close entry log")
		}
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, now time.Time, payload pkgAuth.AccessTokenPayload) (*LoginResponse, error) {
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, payload.JTI)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.accessTTL()),
	}, nil
}

func (s *service) accessTTL() time.Duration {
	return time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return email, nil
}

func verifyPassword(password, hash string) error {
	valid, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}

func asCredentialError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
