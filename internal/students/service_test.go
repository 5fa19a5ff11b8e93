package students

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/security"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := "file:students_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Student{}, &models.Staff{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(conn), testPasswordConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
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

func TestRegisterHashesPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	student, err := svc.Register(ctx, RegisterInput{
		USN:      "1sl21cs001",
		Name:     "Reader One",
		Email:    "Reader@Campus.EDU",
		Branch:   "CSE",
		Password: "super-secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if student.USN != "1SL21CS001" {
		t.Fatalf("usn should be uppercased, got %q", student.USN)
	}
	if student.Email != "reader@campus.edu" {
		t.Fatalf("email should be lowercased, got %q", student.Email)
	}
	if student.PasswordHash == "super-secret" || student.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	ok, err := security.VerifyPassword("super-secret", student.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash should verify: ok=%v err=%v", ok, err)
	}
}

func TestRegisterDuplicateUSN(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	input := RegisterInput{USN: "1SL21CS001", Name: "A", Email: "a@campus.edu", Password: "super-secret"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}

	input.Email = "other@campus.edu"
	_, err := svc.Register(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing usn", RegisterInput{Name: "A", Email: "a@campus.edu", Password: "super-secret"}},
		{"missing email", RegisterInput{USN: "U1", Name: "A", Password: "super-secret"}},
		{"missing name", RegisterInput{USN: "U1", Email: "a@campus.edu", Password: "super-secret"}},
		{"short password", RegisterInput{USN: "U1", Name: "A", Email: "a@campus.edu", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	student, err := svc.Register(ctx, RegisterInput{
		USN: "1SL21CS002", Name: "Before", Email: "b@campus.edu", Password: "super-secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name := "After"
	updated, err := svc.Update(ctx, student.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "After" {
		t.Fatalf("expected renamed student, got %q", updated.Name)
	}

	if err := svc.Delete(ctx, student.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.Get(ctx, student.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRegisterStaff(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	staff, err := svc.RegisterStaff(ctx, RegisterStaffInput{
		Email: "Admin@Shelfline.IO", Name: "Desk Admin", Password: "super-secret",
	})
	if err != nil {
		t.Fatalf("register staff: %v", err)
	}
	if staff.Email != "admin@shelfline.io" {
		t.Fatalf("email should be lowercased, got %q", staff.Email)
	}

	_, err = svc.RegisterStaff(ctx, RegisterStaffInput{
		Email: "admin@shelfline.io", Name: "Again", Password: "super-secret",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
