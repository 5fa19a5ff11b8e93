package circulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfline/shelfline-backend/internal/catalog"
	"github.com/shelfline/shelfline-backend/internal/penalty"
	"github.com/shelfline/shelfline-backend/pkg/db"
	"github.com/shelfline/shelfline-backend/pkg/db/models"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Patron identifies the member a loan is issued to.
type Patron struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	USN        string `json:"usn"`
	Branch     string `json:"branch"`
	Department string `json:"department"`
}

// IssueResult reports the outcome for a single title in an issue batch.
// A failed title ends the batch; records created before it stand.
type IssueResult struct {
	ISBN     string     `json:"isbn"`
	RecordID uuid.UUID  `json:"record_id,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	Issued   bool       `json:"issued"`
	Reason   string     `json:"reason,omitempty"`
}

// ReturnResult describes a completed return.
type ReturnResult struct {
	Record        *models.LoanRecord `json:"record"`
	PenaltyAmount int                `json:"penalty_amount"`
}

// ReturnSummary reports a batch return. The batch is all-or-nothing: one
// missing, settled, or fee-carrying record aborts every return in it.
type ReturnSummary struct {
	Returned []ReturnResult `json:"returned"`
}

// Service executes circulation: issuing titles, taking returns, and settling fees.
type Service interface {
	Issue(ctx context.Context, kind enums.LoanKind, patron Patron, isbns []string) ([]IssueResult, error)
	Return(ctx context.Context, recordID uuid.UUID, now time.Time) (*ReturnResult, error)
	ReturnItems(ctx context.Context, recordIDs []uuid.UUID, now time.Time) (*ReturnSummary, error)
	ClearPenalty(ctx context.Context, recordID uuid.UUID, now time.Time) (*models.LoanRecord, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error)
	ListLoans(ctx context.Context, input ListLoansInput) (*LoanListResult, error)
	RefreshPenalties(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	tx     txRunner
	repo   Repository
	books  catalog.Repository
	policy penalty.Policy
}

// NewService builds the circulation service.
func NewService(tx txRunner, repo Repository, books catalog.Repository, policy penalty.Policy) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("loan repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{tx: tx, repo: repo, books: books, policy: policy}, nil
}

// Issue processes each title on its own transaction and stops at the first
// one that cannot be issued. Titles issued before the failure keep their
// records; the remainder of the batch is never attempted.
func (s *service) Issue(ctx context.Context, kind enums.LoanKind, patron Patron, isbns []string) ([]IssueResult, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid loan kind")
	}
	if err := validatePatron(patron); err != nil {
		return nil, err
	}
	if len(isbns) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one title is required")
	}

	email := strings.ToLower(strings.TrimSpace(patron.Email))
	now := time.Now().UTC()
	results := make([]IssueResult, 0, len(isbns))

	for _, raw := range isbns {
		isbn := strings.TrimSpace(raw)
		if isbn == "" {
			results = append(results, IssueResult{ISBN: raw, Reason: "isbn is required"})
			break
		}

		var record *models.LoanRecord
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			loans := s.repo.WithTx(tx)
			books := s.books.WithTx(tx)

			book, err := books.GetByISBN(ctx, isbn)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "title not found")
				}
				return err
			}

			if _, err := loans.FindActive(ctx, email, isbn, kind); err == nil {
				return pkgerrors.New(pkgerrors.CodeAlreadyBorrowed, "title already on loan to this patron")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if _, err := books.DecrementAvailable(ctx, isbn); err != nil {
				if errors.Is(err, catalog.ErrNoCopies) {
					return pkgerrors.New(pkgerrors.CodeOutOfStock, "no copies available")
				}
				return err
			}

			// A reading-room title falls due on the spot; only borrows get
			// the loan period.
			due := now
			if kind == enums.LoanKindBorrow {
				due = s.policy.DueDate(now)
			}
			record = &models.LoanRecord{
				Kind:        kind,
				PatronEmail: email,
				PatronName:  strings.TrimSpace(patron.Name),
				USN:         strings.TrimSpace(patron.USN),
				Branch:      strings.TrimSpace(patron.Branch),
				Department:  strings.TrimSpace(patron.Department),
				ISBN:        isbn,
				BookTitle:   book.Title,
				Status:      enums.LoanStatusActive,
				DueAt:       due,
			}
			if err := loans.Create(ctx, record); err != nil {
				// The partial unique index is the real guard; the FindActive
				// probe above only gives the common case a cleaner path.
				if db.IsUniqueViolation(err) {
					return pkgerrors.New(pkgerrors.CodeAlreadyBorrowed, "title already on loan to this patron")
				}
				return err
			}
			return nil
		})

		result := IssueResult{ISBN: isbn}
		if err != nil {
			result.Reason = issueFailureReason(err)
			results = append(results, result)
			break
		}
		result.Issued = true
		result.RecordID = record.ID
		result.DueAt = &record.DueAt
		results = append(results, result)
	}

	return results, nil
}

func (s *service) Return(ctx context.Context, recordID uuid.UUID, now time.Time) (*ReturnResult, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}

	var result *ReturnResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loans := s.repo.WithTx(tx)
		books := s.books.WithTx(tx)

		record, err := loans.GetByID(ctx, recordID)
		if err != nil {
			return mapNotFound(err, "loan record not found")
		}
		if record.Status != enums.LoanStatusActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "loan already returned")
		}

		if owed := s.outstandingFee(record, now); owed > 0 {
			return pkgerrors.New(pkgerrors.CodePenaltyUnpaid, "outstanding penalty must be settled first").
				WithDetails(map[string]any{"penalty_amount": owed})
		}

		returnedAt := now
		record.Status = enums.LoanStatusReturned
		record.ReturnedAt = &returnedAt
		if err := loans.Update(ctx, record); err != nil {
			return err
		}
		if _, err := books.IncrementAvailable(ctx, record.ISBN); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Title was removed from the catalog while on loan; the
				// return itself still completes.
				result = &ReturnResult{Record: record, PenaltyAmount: record.PenaltyAmount}
				return nil
			}
			return err
		}
		result = &ReturnResult{Record: record, PenaltyAmount: record.PenaltyAmount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReturnItems takes back a set of loans in one transaction. Every record is
// validated before the first one is touched: any missing record, any record
// already returned, and any unsettled fee abort the whole batch.
func (s *service) ReturnItems(ctx context.Context, recordIDs []uuid.UUID, now time.Time) (*ReturnSummary, error) {
	if len(recordIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one record id is required")
	}
	for _, id := range recordIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id required")
		}
	}

	summary := &ReturnSummary{Returned: make([]ReturnResult, 0, len(recordIDs))}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		loans := s.repo.WithTx(tx)
		books := s.books.WithTx(tx)

		records := make([]*models.LoanRecord, 0, len(recordIDs))
		for _, id := range recordIDs {
			record, err := loans.GetByID(ctx, id)
			if err != nil {
				return mapNotFound(err, "loan record not found")
			}
			if record.Status != enums.LoanStatusActive {
				return pkgerrors.New(pkgerrors.CodeConflict, "loan already returned").
					WithDetails(map[string]any{"record_id": record.ID})
			}
			if owed := s.outstandingFee(record, now); owed > 0 {
				return pkgerrors.New(pkgerrors.CodePenaltyUnpaid, "outstanding penalty must be settled first").
					WithDetails(map[string]any{"record_id": record.ID, "penalty_amount": owed})
			}
			records = append(records, record)
		}

		returnedAt := now
		for _, record := range records {
			record.Status = enums.LoanStatusReturned
			record.ReturnedAt = &returnedAt
			if err := loans.Update(ctx, record); err != nil {
				return err
			}
			if _, err := books.IncrementAvailable(ctx, record.ISBN); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			summary.Returned = append(summary.Returned, ReturnResult{Record: record, PenaltyAmount: record.PenaltyAmount})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ClearPenalty marks the fee settled as of now. Calling it twice on the same
// record is harmless.
func (s *service) ClearPenalty(ctx context.Context, recordID uuid.UUID, now time.Time) (*models.LoanRecord, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}

	record, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, mapNotFound(err, "loan record not found")
	}

	paidAt := now
	record.PenaltyAmount = 0
	record.PenaltyPaidToday = true
	record.PenaltyPaidAt = &paidAt
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "loan record not found")
	}
	return record, nil
}

func (s *service) ListLoans(ctx context.Context, input ListLoansInput) (*LoanListResult, error) {
	input.PatronEmail = strings.ToLower(strings.TrimSpace(input.PatronEmail))
	return s.repo.List(ctx, input)
}

// RefreshPenalties walks the overdue active loans and stores the fee each one
// has accrued so far. It returns how many records changed.
func (s *service) RefreshPenalties(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.repo.ListOverdueActive(ctx, now)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range overdue {
		record := &overdue[i]
		if record.Kind != enums.LoanKindBorrow {
			continue
		}
		owed := s.policy.Amount(record.DueAt, now)
		if owed == record.PenaltyAmount {
			continue
		}
		if penalty.PaidToday(record.PenaltyPaidAt, now) {
			continue
		}
		record.PenaltyAmount = owed
		record.PenaltyPaidToday = false
		if err := s.repo.Update(ctx, record); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// outstandingFee reports the fee currently blocking a return. Reading-room
// loans never accrue fees, and a settled fee clears the gate only on the
// calendar day it was paid.
func (s *service) outstandingFee(record *models.LoanRecord, now time.Time) int {
	if record.Kind != enums.LoanKindBorrow {
		return 0
	}
	owed := s.policy.Amount(record.DueAt, now)
	if owed == 0 || penalty.PaidToday(record.PenaltyPaidAt, now) {
		return 0
	}
	return owed
}

func validatePatron(patron Patron) error {
	if strings.TrimSpace(patron.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "patron email is required")
	}
	if strings.TrimSpace(patron.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "patron name is required")
	}
	if strings.TrimSpace(patron.USN) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "patron usn is required")
	}
	return nil
}

func issueFailureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "could not issue title"
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
