package importer

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/internal/catalog"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubBookRepo struct {
	catalog.Repository

	existing   map[string]bool
	created    []models.Book
	authors    []string
	categories []string
	bookTypes  []string
}

func (s *stubBookRepo) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubBookRepo) Create(ctx context.Context, book *models.Book) error {
	s.created = append(s.created, *book)
	return nil
}

func (s *stubBookRepo) ExistingISBNs(ctx context.Context, isbns []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, isbn := range isbns {
		if s.existing[isbn] {
			out[isbn] = true
		}
	}
	return out, nil
}

func (s *stubBookRepo) UpsertAuthor(ctx context.Context, name string) error {
	s.authors = append(s.authors, name)
	return nil
}

func (s *stubBookRepo) UpsertCategory(ctx context.Context, name string) error {
	s.categories = append(s.categories, name)
	return nil
}

func (s *stubBookRepo) UpsertBookType(ctx context.Context, name string) error {
	s.bookTypes = append(s.bookTypes, name)
	return nil
}

type stubStudentRepo struct {
	students.Repository

	existing map[string]bool
	created  []models.Student
}

func (s *stubStudentRepo) WithTx(tx *gorm.DB) students.Repository { return s }

func (s *stubStudentRepo) Create(ctx context.Context, student *models.Student) error {
	s.created = append(s.created, *student)
	return nil
}

func (s *stubStudentRepo) ExistingUSNs(ctx context.Context, usns []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, usn := range usns {
		if s.existing[usn] {
			out[usn] = true
		}
	}
	return out, nil
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

func newImporter(t *testing.T, books *stubBookRepo, roster *stubStudentRepo) Service {
	t.Helper()
	svc, err := NewService(stubTxRunner{}, books, roster, testPasswordConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestImportBooks(t *testing.T) {
	t.Parallel()

	books := &stubBookRepo{existing: map[string]bool{"978-0134190440": true}}
	svc := newImporter(t, books, &stubStudentRepo{})

	csvBody := strings.Join([]string{
		"isbn,title,author,publisher,type,categories,tags,available_count,shelf_code",
		`978-0134190440,The Go Programming Language,Alan Donovan,Addison-Wesley,reference,Programming,golang,4,A-12`,
		`978-0596007126,Head First Design Patterns,Eric Freeman,O'Reilly,textbook,Programming;Design,patterns,2,B-03`,
		`978-0596007126,Duplicate Row,Someone Else,,,,,1,`,
		`,Missing ISBN,Nobody,,,,,1,`,
	}, "\n")

	result, err := svc.ImportBooks(context.Background(), strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportBooks: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d", result.Created)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "line 5") {
		t.Fatalf("expected one error for line 5, got %v", result.Errors)
	}

	if len(books.created) != 1 {
		t.Fatalf("expected 1 book created, got %d", len(books.created))
	}
	book := books.created[0]
	if book.ISBN != "978-0596007126" {
		t.Fatalf("unexpected isbn %q", book.ISBN)
	}
	if len(book.Categories) != 2 || book.Categories[1] != "Design" {
		t.Fatalf("unexpected categories %v", book.Categories)
	}
	if book.AvailableCount != 2 {
		t.Fatalf("unexpected available count %d", book.AvailableCount)
	}
	if len(books.authors) != 1 || books.authors[0] != "Eric Freeman" {
		t.Fatalf("unexpected authors %v", books.authors)
	}
	if len(books.categories) != 2 {
		t.Fatalf("unexpected category upserts %v", books.categories)
	}
}

func TestImportBooksMissingColumn(t *testing.T) {
	t.Parallel()

	svc := newImporter(t, &stubBookRepo{}, &stubStudentRepo{})

	_, err := svc.ImportBooks(context.Background(), strings.NewReader("isbn,title\n978,Go\n"))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestImportBooksRejectsBadCount(t *testing.T) {
	t.Parallel()

	books := &stubBookRepo{}
	svc := newImporter(t, books, &stubStudentRepo{})

	csvBody := strings.Join([]string{
		"isbn,title,author,publisher,type,categories,tags,available_count,shelf_code",
		`978-1,One,Author,,,,,many,`,
		`978-2,Two,Author,,,,,-1,`,
	}, "\n")

	result, err := svc.ImportBooks(context.Background(), strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportBooks: %v", err)
	}
	if result.Created != 0 {
		t.Fatalf("expected no books created, got %d", result.Created)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", result.Errors)
	}
}

func TestImportStudents(t *testing.T) {
	t.Parallel()

	roster := &stubStudentRepo{existing: map[string]bool{"1MS21CS001": true}}
	svc := newImporter(t, &stubBookRepo{}, roster)

	csvBody := strings.Join([]string{
		"usn,name,email,branch,department,batch,password",
		`1ms21cs001,Asha Rao,ASHA@example.edu,CSE,Engineering,2021,college-pass1`,
		`1MS21CS002,Vikram Shetty,vikram@example.edu,ISE,Engineering,2021,longenough`,
		`1MS21CS003,Short Pass,short@example.edu,CSE,Engineering,2021,tiny`,
	}, "\n")

	result, err := svc.ImportStudents(context.Background(), strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d", result.Created)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped (usn upper-cased against roster), got %d", result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "password") {
		t.Fatalf("expected password error, got %v", result.Errors)
	}

	if len(roster.created) != 1 {
		t.Fatalf("expected 1 student created, got %d", len(roster.created))
	}
	student := roster.created[0]
	if student.USN != "1MS21CS002" {
		t.Fatalf("unexpected usn %q", student.USN)
	}
	if student.Email != "vikram@example.edu" {
		t.Fatalf("email should be lower-cased, got %q", student.Email)
	}
	if student.PasswordHash == "" || student.PasswordHash == "longenough" {
		t.Fatal("password must be stored hashed")
	}
}
