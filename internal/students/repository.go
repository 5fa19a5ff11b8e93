package students

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// ListStudentsInput captures filter and paging knobs for the roster listing.
type ListStudentsInput struct {
	Branch     string
	Batch      string
	Query      string
	Pagination pagination.Params
}

// StudentListResult carries one roster page plus the next cursor.
type StudentListResult struct {
	Students   []models.Student
	NextCursor string
}

// Repository manages persistence for students and back-office staff.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	GetByUSN(ctx context.Context, usn string) (*models.Student, error)
	List(ctx context.Context, input ListStudentsInput) (*StudentListResult, error)
	ExistingUSNs(ctx context.Context, usns []string) (map[string]bool, error)

	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a member repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *repository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Student{}).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) GetByUSN(ctx context.Context, usn string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("usn = ?", usn).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) List(ctx context.Context, input ListStudentsInput) (*StudentListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Student{})
	if input.Branch != "" {
		qb = qb.Where("branch = ?", input.Branch)
	}
	if input.Batch != "" {
		qb = qb.Where("batch = ?", input.Batch)
	}
	if search := strings.TrimSpace(input.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(usn) LIKE ?)", pattern, pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Student
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &StudentListResult{Students: rows, NextCursor: nextCursor}, nil
}

func (r *repository) ExistingUSNs(ctx context.Context, usns []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(usns))
	if len(usns) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("usn IN ?", usns).
		Pluck("usn", &found).Error; err != nil {
		return nil, err
	}
	for _, usn := range found {
		existing[usn] = true
	}
	return existing, nil
}

func (r *repository) CreateStaff(ctx context.Context, staff *models.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *repository) GetStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}
