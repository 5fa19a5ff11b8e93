package entrylog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// ListEntriesInput captures filter and paging knobs for visit listings.
type ListEntriesInput struct {
	PatronEmail string
	OpenOnly    bool
	Pagination  pagination.Params
}

// EntryListResult carries one page of visits plus the next cursor.
type EntryListResult struct {
	Entries    []models.EntryLog
	NextCursor string
}

// Repository manages persistence for entry logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.EntryLog) error
	FindOpen(ctx context.Context, patronEmail string) (*models.EntryLog, error)
	CloseOpen(ctx context.Context, patronEmail string, at time.Time) (int64, error)
	CloseIdleBefore(ctx context.Context, threshold, at time.Time) (int64, error)
	List(ctx context.Context, input ListEntriesInput) (*EntryListResult, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an entry log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.EntryLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindOpen(ctx context.Context, patronEmail string) (*models.EntryLog, error) {
	var entry models.EntryLog
	err := r.db.WithContext(ctx).
		Where("patron_email = ? AND out_time IS NULL", patronEmail).
		Order("in_time DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) CloseOpen(ctx context.Context, patronEmail string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.EntryLog{}).
		Where("patron_email = ? AND out_time IS NULL", patronEmail).
		UpdateColumn("out_time", at)
	return res.RowsAffected, res.Error
}

// CloseIdleBefore stamps an out time on every visit still open whose in time
// predates the threshold. Used by the sweeper for patrons who never log out.
func (r *repository) CloseIdleBefore(ctx context.Context, threshold, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.EntryLog{}).
		Where("out_time IS NULL AND in_time < ?", threshold).
		UpdateColumn("out_time", at)
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context, input ListEntriesInput) (*EntryListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.EntryLog{})
	if input.PatronEmail != "" {
		qb = qb.Where("patron_email = ?", input.PatronEmail)
	}
	if input.OpenOnly {
		qb = qb.Where("out_time IS NULL")
	}
	if cursor != nil {
		qb = qb.Where("(in_time < ?) OR (in_time = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var entries []models.EntryLog
	if err := qb.Order("in_time DESC").Order("id DESC").Limit(limitWithBuffer).Find(&entries).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(entries) > pageSize {
		entries = entries[:pageSize]
		last := entries[len(entries)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.InTime, ID: last.ID})
	}

	return &EntryListResult{Entries: entries, NextCursor: nextCursor}, nil
}
