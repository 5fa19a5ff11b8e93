package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/pkg/db"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog management for the admin portal and browsing for patrons.
type Service interface {
	CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error)
	ListBooks(ctx context.Context, input ListBooksInput) (*BookListResult, error)
	ListAuthors(ctx context.Context) ([]models.Author, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBookTypes(ctx context.Context) ([]models.BookType, error)
}

// CreateBookInput carries the fields accepted when registering a title.
type CreateBookInput struct {
	ISBN           string   `json:"isbn" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Author         string   `json:"author" validate:"required"`
	Publisher      string   `json:"publisher"`
	Type           string   `json:"type"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
	AvailableCount int      `json:"available_count" validate:"gte=0"`
	ShelfCode      string   `json:"shelf_code"`
}

// UpdateBookInput carries the mutable fields of a title. Nil means unchanged.
type UpdateBookInput struct {
	Title          *string   `json:"title,omitempty"`
	Author         *string   `json:"author,omitempty"`
	Publisher      *string   `json:"publisher,omitempty"`
	Type           *string   `json:"type,omitempty"`
	Categories     *[]string `json:"categories,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	AvailableCount *int      `json:"available_count,omitempty"`
	ShelfCode      *string   `json:"shelf_code,omitempty"`
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	isbn := strings.TrimSpace(input.ISBN)
	if isbn == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Author) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author is required")
	}
	if input.AvailableCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available count cannot be negative")
	}

	book := &models.Book{
		ISBN:           isbn,
		Title:          strings.TrimSpace(input.Title),
		Author:         strings.TrimSpace(input.Author),
		Publisher:      strings.TrimSpace(input.Publisher),
		Type:           strings.TrimSpace(input.Type),
		Categories:     input.Categories,
		Tags:           input.Tags,
		AvailableCount: input.AvailableCount,
		ShelfCode:      strings.TrimSpace(input.ShelfCode),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, book); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "a title with this isbn already exists")
			}
			return err
		}
		return upsertTaxonomies(ctx, repo, book)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}

	var updated *models.Book
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		book, err := repo.GetByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "book not found")
		}

		if input.Title != nil {
			book.Title = strings.TrimSpace(*input.Title)
		}
		if input.Author != nil {
			book.Author = strings.TrimSpace(*input.Author)
		}
		if input.Publisher != nil {
			book.Publisher = strings.TrimSpace(*input.Publisher)
		}
		if input.Type != nil {
			book.Type = strings.TrimSpace(*input.Type)
		}
		if input.Categories != nil {
			book.Categories = *input.Categories
		}
		if input.Tags != nil {
			book.Tags = *input.Tags
		}
		if input.AvailableCount != nil {
			if *input.AvailableCount < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "available count cannot be negative")
			}
			book.AvailableCount = *input.AvailableCount
		}
		if input.ShelfCode != nil {
			book.ShelfCode = strings.TrimSpace(*input.ShelfCode)
		}

		if err := repo.Update(ctx, book); err != nil {
			return err
		}
		if err := upsertTaxonomies(ctx, repo, book); err != nil {
			return err
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return mapNotFound(err, "book not found")
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "book not found")
	}
	return book, nil
}

func (s *service) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	if strings.TrimSpace(isbn) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}
	book, err := s.repo.GetByISBN(ctx, strings.TrimSpace(isbn))
	if err != nil {
		return nil, mapNotFound(err, "book not found")
	}
	return book, nil
}

func (s *service) ListBooks(ctx context.Context, input ListBooksInput) (*BookListResult, error) {
	return s.repo.List(ctx, input)
}

func (s *service) ListAuthors(ctx context.Context) ([]models.Author, error) {
	return s.repo.ListAuthors(ctx)
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) ListBookTypes(ctx context.Context) ([]models.BookType, error) {
	return s.repo.ListBookTypes(ctx)
}

func upsertTaxonomies(ctx context.Context, repo Repository, book *models.Book) error {
	if name := strings.TrimSpace(book.Author); name != "" {
		if err := repo.UpsertAuthor(ctx, name); err != nil {
			return err
		}
	}
	if name := strings.TrimSpace(book.Type); name != "" {
		if err := repo.UpsertBookType(ctx, name); err != nil {
			return err
		}
	}
	for _, category := range book.Categories {
		if name := strings.TrimSpace(category); name != "" {
			if err := repo.UpsertCategory(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
