package students

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/security"
)

// Service manages the patron roster and staff accounts.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Student, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	List(ctx context.Context, input ListStudentsInput) (*StudentListResult, error)
	RegisterStaff(ctx context.Context, input RegisterStaffInput) (*models.Staff, error)
}

// RegisterInput carries the fields accepted when enrolling a patron.
type RegisterInput struct {
	USN        string `json:"usn" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Branch     string `json:"branch"`
	Department string `json:"department"`
	Batch      string `json:"batch"`
	Password   string `json:"password" validate:"required,min=8"`
}

// UpdateInput carries the mutable roster fields. Nil means unchanged.
type UpdateInput struct {
	Name       *string `json:"name,omitempty"`
	Branch     *string `json:"branch,omitempty"`
	Department *string `json:"department,omitempty"`
	Batch      *string `json:"batch,omitempty"`
	Password   *string `json:"password,omitempty"`
}

// RegisterStaffInput carries the fields for a back-office account.
type RegisterStaffInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type service struct {
	repo     Repository
	password config.PasswordConfig
}

// NewService wires the roster service with its repository and hashing params.
func NewService(repo Repository, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("student repository required")
	}
	return &service{repo: repo, password: password}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Student, error) {
	usn := strings.ToUpper(strings.TrimSpace(input.USN))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if usn == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usn is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	student := &models.Student{
		USN:          usn,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Branch:       strings.TrimSpace(input.Branch),
		Department:   strings.TrimSpace(input.Department),
		Batch:        strings.TrimSpace(input.Batch),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a student with this usn or email already exists")
		}
		return nil, err
	}
	return student, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Student, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}

	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if input.Name != nil {
		student.Name = strings.TrimSpace(*input.Name)
	}
	if input.Branch != nil {
		student.Branch = strings.TrimSpace(*input.Branch)
	}
	if input.Department != nil {
		student.Department = strings.TrimSpace(*input.Department)
	}
	if input.Batch != nil {
		student.Batch = strings.TrimSpace(*input.Batch)
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
		}
		hash, err := security.HashPassword(*input.Password, s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
		}
		student.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return mapNotFound(err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return student, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	student, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return student, nil
}

func (s *service) List(ctx context.Context, input ListStudentsInput) (*StudentListResult, error) {
	return s.repo.List(ctx, input)
}

func (s *service) RegisterStaff(ctx context.Context, input RegisterStaffInput) (*models.Staff, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	staff := &models.Staff{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
	}
	if err := s.repo.CreateStaff(ctx, staff); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a staff account with this email already exists")
		}
		return nil, err
	}
	return staff, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
	}
	return err
}
