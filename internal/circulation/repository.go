package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// ListLoansInput captures the filter and paging knobs for loan listings.
type ListLoansInput struct {
	PatronEmail string
	Kind        *enums.LoanKind
	Status      *enums.LoanStatus
	OverdueAsOf *time.Time
	Pagination  pagination.Params
}

// LoanListResult carries one page of loan records plus the next cursor.
type LoanListResult struct {
	Records    []models.LoanRecord
	NextCursor string
}

// Repository manages persistence for loan records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.LoanRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error)
	FindActive(ctx context.Context, patronEmail, isbn string, kind enums.LoanKind) (*models.LoanRecord, error)
	Update(ctx context.Context, record *models.LoanRecord) error
	List(ctx context.Context, input ListLoansInput) (*LoanListResult, error)
	ListOverdueActive(ctx context.Context, asOf time.Time) ([]models.LoanRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loan record repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.LoanRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error) {
	var record models.LoanRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindActive(ctx context.Context, patronEmail, isbn string, kind enums.LoanKind) (*models.LoanRecord, error) {
	var record models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("patron_email = ? AND isbn = ? AND kind = ? AND status = ?",
			patronEmail, isbn, kind, enums.LoanStatusActive).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Update(ctx context.Context, record *models.LoanRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) List(ctx context.Context, input ListLoansInput) (*LoanListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.LoanRecord{})
	if input.PatronEmail != "" {
		qb = qb.Where("patron_email = ?", input.PatronEmail)
	}
	if input.Kind != nil {
		qb = qb.Where("kind = ?", *input.Kind)
	}
	if input.Status != nil {
		qb = qb.Where("status = ?", *input.Status)
	}
	if input.OverdueAsOf != nil {
		qb = qb.Where("status = ? AND due_at < ?", enums.LoanStatusActive, *input.OverdueAsOf)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []models.LoanRecord
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&records).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(records) > pageSize {
		records = records[:pageSize]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &LoanListResult{Records: records, NextCursor: nextCursor}, nil
}

func (r *repository) ListOverdueActive(ctx context.Context, asOf time.Time) ([]models.LoanRecord, error) {
	var records []models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_at < ?", enums.LoanStatusActive, asOf).
		Order("due_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
