package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/internal/catalog"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result summarises a bulk import. Rows that fail to parse are reported but
// do not abort the batch; rows already present are skipped.
type Result struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Service loads catalog titles and roster entries from CSV files.
type Service interface {
	ImportBooks(ctx context.Context, r io.Reader) (*Result, error)
	ImportStudents(ctx context.Context, r io.Reader) (*Result, error)
}

type service struct {
	tx       txRunner
	books    catalog.Repository
	roster   students.Repository
	password config.PasswordConfig
}

// NewService wires the importer with both repositories.
func NewService(tx txRunner, books catalog.Repository, roster students.Repository, password config.PasswordConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if books == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if roster == nil {
		return nil, fmt.Errorf("student repository required")
	}
	return &service{tx: tx, books: books, roster: roster, password: password}, nil
}

// bookColumns is the required header of a catalog CSV. Categories and tags
// hold semicolon-separated lists.
var bookColumns = []string{"isbn", "title", "author", "publisher", "type", "categories", "tags", "available_count", "shelf_code"}

func (s *service) ImportBooks(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := readCSV(r, bookColumns)
	if err != nil {
		return nil, err
	}

	type parsedBook struct {
		line int
		book models.Book
	}

	var (
		parsed   []parsedBook
		rowErrs  error
		seen     = map[string]bool{}
		allISBNs []string
	)
	for _, row := range rows {
		isbn := strings.TrimSpace(row.values["isbn"])
		title := strings.TrimSpace(row.values["title"])
		author := strings.TrimSpace(row.values["author"])
		if isbn == "" || title == "" || author == "" {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: isbn, title and author are required", row.line))
			continue
		}
		if seen[isbn] {
			continue
		}
		seen[isbn] = true
		allISBNs = append(allISBNs, isbn)

		available := 0
		if raw := strings.TrimSpace(row.values["available_count"]); raw != "" {
			available, err = strconv.Atoi(raw)
			if err != nil || available < 0 {
				rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: invalid available_count %q", row.line, raw))
				continue
			}
		}

		parsed = append(parsed, parsedBook{
			line: row.line,
			book: models.Book{
				ISBN:           isbn,
				Title:          title,
				Author:         author,
				Publisher:      strings.TrimSpace(row.values["publisher"]),
				Type:           strings.TrimSpace(row.values["type"]),
				Categories:     splitList(row.values["categories"]),
				Tags:           splitList(row.values["tags"]),
				AvailableCount: available,
				ShelfCode:      strings.TrimSpace(row.values["shelf_code"]),
			},
		})
	}

	result := &Result{Errors: errorStrings(rowErrs)}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		books := s.books.WithTx(tx)

		existing, err := books.ExistingISBNs(ctx, allISBNs)
		if err != nil {
			return err
		}

		for _, entry := range parsed {
			if existing[entry.book.ISBN] {
				result.Skipped++
				continue
			}
			book := entry.book
			if err := books.Create(ctx, &book); err != nil {
				return fmt.Errorf("line %d: %w", entry.line, err)
			}
			if err := upsertBookTaxonomies(ctx, books, &book); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "importing books")
	}
	return result, nil
}

// studentColumns is the required header of a roster CSV.
var studentColumns = []string{"usn", "name", "email", "branch", "department", "batch", "password"}

func (s *service) ImportStudents(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := readCSV(r, studentColumns)
	if err != nil {
		return nil, err
	}

	type parsedStudent struct {
		line    int
		student models.Student
	}

	var (
		parsed  []parsedStudent
		rowErrs error
		seen    = map[string]bool{}
		allUSNs []string
	)
	for _, row := range rows {
		usn := strings.ToUpper(strings.TrimSpace(row.values["usn"]))
		name := strings.TrimSpace(row.values["name"])
		email := strings.ToLower(strings.TrimSpace(row.values["email"]))
		password := row.values["password"]
		if usn == "" || name == "" || email == "" {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: usn, name and email are required", row.line))
			continue
		}
		if len(password) < 8 {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: password must be at least 8 characters", row.line))
			continue
		}
		if seen[usn] {
			continue
		}
		seen[usn] = true
		allUSNs = append(allUSNs, usn)

		hash, err := security.HashPassword(password, s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
		}

		parsed = append(parsed, parsedStudent{
			line: row.line,
			student: models.Student{
				USN:          usn,
				Name:         name,
				Email:        email,
				Branch:       strings.TrimSpace(row.values["branch"]),
				Department:   strings.TrimSpace(row.values["department"]),
				Batch:        strings.TrimSpace(row.values["batch"]),
				PasswordHash: hash,
			},
		})
	}

	result := &Result{Errors: errorStrings(rowErrs)}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		roster := s.roster.WithTx(tx)

		existing, err := roster.ExistingUSNs(ctx, allUSNs)
		if err != nil {
			return err
		}

		for _, entry := range parsed {
			if existing[entry.student.USN] {
				result.Skipped++
				continue
			}
			student := entry.student
			if err := roster.Create(ctx, &student); err != nil {
				return fmt.Errorf("line %d: %w", entry.line, err)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "importing students")
	}
	return result, nil
}

type csvRow struct {
	line   int
	values map[string]string
}

func readCSV(r io.Reader, required []string) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv file is empty")
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("csv is missing column %q", col))
		}
	}

	var rows []csvRow
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("line %d: malformed csv", line))
		}
		values := make(map[string]string, len(index))
		for col, i := range index {
			if i < len(record) {
				values[col] = record[i]
			}
		}
		rows = append(rows, csvRow{line: line, values: values})
	}
	return rows, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func upsertBookTaxonomies(ctx context.Context, repo catalog.Repository, book *models.Book) error {
	if book.Author != "" {
		if err := repo.UpsertAuthor(ctx, book.Author); err != nil {
			return err
		}
	}
	if book.Type != "" {
		if err := repo.UpsertBookType(ctx, book.Type); err != nil {
			return err
		}
	}
	for _, category := range book.Categories {
		if err := repo.UpsertCategory(ctx, category); err != nil {
			return err
		}
	}
	return nil
}

func errorStrings(err error) []string {
	var out []string
	for _, e := range multierr.Errors(err) {
		out = append(out, e.Error())
	}
	return out
}
