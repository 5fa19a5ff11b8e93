package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// ErrNoCopies signals that an availability decrement found the title at zero.
var ErrNoCopies = errors.New("no copies available")

// Repository manages persistence for the book catalog and its taxonomies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
	List(ctx context.Context, input ListBooksInput) (*BookListResult, error)
	ExistingISBNs(ctx context.Context, isbns []string) (map[string]bool, error)

	DecrementAvailable(ctx context.Context, isbn string) (int, error)
	IncrementAvailable(ctx context.Context, isbn string) (int, error)

	UpsertAuthor(ctx context.Context, name string) error
	UpsertCategory(ctx context.Context, name string) error
	UpsertBookType(ctx context.Context, name string) error
	ListAuthors(ctx context.Context) ([]models.Author, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBookTypes(ctx context.Context) ([]models.BookType, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *repository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{}).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// BookListResult carries one catalog page plus the cursor for the next one.
type BookListResult struct {
	Books      []models.Book
	NextCursor string
}

func (r *repository) List(ctx context.Context, input ListBooksInput) (*BookListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Book{})

	filter := input.Filters
	if filter.Category != "" {
		qb = qb.Where("? = ANY(categories)", filter.Category)
	}
	if filter.Type != "" {
		qb = qb.Where("type = ?", filter.Type)
	}
	if filter.Author != "" {
		qb = qb.Where("author = ?", filter.Author)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR isbn LIKE ?)", pattern, pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var books []models.Book
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&books).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(books) > pageSize {
		books = books[:pageSize]
		last := books[len(books)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &BookListResult{Books: books, NextCursor: nextCursor}, nil
}

func (r *repository) ExistingISBNs(ctx context.Context, isbns []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(isbns))
	if len(isbns) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("isbn IN ?", isbns).
		Pluck("isbn", &found).Error; err != nil {
		return nil, err
	}
	for _, isbn := range found {
		existing[isbn] = true
	}
	return existing, nil
}

// DecrementAvailable takes one copy off the shelf and returns the count left
// on it. The guard on available_count keeps concurrent decrements from
// driving the count negative; losing the race surfaces as ErrNoCopies.
func (r *repository) DecrementAvailable(ctx context.Context, isbn string) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("isbn = ? AND available_count > 0", isbn).
		UpdateColumn("available_count", gorm.Expr("available_count - 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Book{}).Where("isbn = ?", isbn).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, gorm.ErrRecordNotFound
		}
		return 0, ErrNoCopies
	}
	return r.availableCount(ctx, isbn)
}

// IncrementAvailable puts a returned copy back on the shelf and returns the
// new count.
func (r *repository) IncrementAvailable(ctx context.Context, isbn string) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("isbn = ?", isbn).
		UpdateColumn("available_count", gorm.Expr("available_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.availableCount(ctx, isbn)
}

// availableCount reads the count back on the same connection, so inside a
// transaction it sees the update it follows.
func (r *repository) availableCount(ctx context.Context, isbn string) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Model(&models.Book{}).
		Select("available_count").
		Where("isbn = ?", isbn).
		Scan(&count).Error
	return count, err
}

func (r *repository) UpsertAuthor(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&models.Author{}, models.Author{Name: name}).Error
}

func (r *repository) UpsertCategory(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&models.Category{}, models.Category{Name: name}).Error
}

func (r *repository) UpsertBookType(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&models.BookType{}, models.BookType{Name: name}).Error
}

func (r *repository) ListAuthors(ctx context.Context) ([]models.Author, error) {
	var authors []models.Author
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&authors).Error; err != nil {
		return nil, err
	}
	return authors, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) ListBookTypes(ctx context.Context) ([]models.BookType, error) {
	var types []models.BookType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
