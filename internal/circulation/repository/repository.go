package repository

import (
	"context"
	"errors"
	"time"

	"library-circulation/internal/circulation/models"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrNoCopiesAvailable     = errors.New("no copies available")
	ErrInventoryInconsistent = errors.New("available copies would exceed total copies")
	ErrDuplicate             = errors.New("record already exists")
)

// InventoryLedger owns the copy counts of every book. Decrement and increment
// check and mutate in one storage operation, never read-then-write.
type InventoryLedger interface {
	GetAvailability(ctx context.Context, bookID int64) (*models.Availability, error)
	DecrementAvailable(ctx context.Context, bookID int64) error
	IncrementAvailable(ctx context.Context, bookID int64) error
}

// LoanStore owns loan records and their active -> returned lifecycle.
type LoanStore interface {
	CreateLoan(ctx context.Context, studentID string, bookID int64, borrowedAt, dueDate time.Time) (*models.Loan, error)
	GetActiveLoanForReturn(ctx context.Context, loanID string) (*models.Loan, error)
	MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error
	ListLoansForStudent(ctx context.Context, studentID string) ([]models.LoanView, error)
	GetLoan(ctx context.Context, loanID string) (*models.LoanView, error)
}

// Stores are the ledger and loan store bound to one transaction.
type Stores struct {
	Ledger InventoryLedger
	Loans  LoanStore
}

// Transactor runs fn so that every write it makes through s becomes visible
// together, or not at all when fn returns an error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// BookRepository is the read side of the catalog, plus Create for seeding.
type BookRepository interface {
	GetAll(ctx context.Context) ([]models.Book, error)
	GetByID(ctx context.Context, id int64) (*models.Book, error)
	Create(ctx context.Context, b *models.Book) error
}

// StudentRepository stores library accounts keyed by their student id.
type StudentRepository interface {
	Create(ctx context.Context, s *models.Student) error
	FindByStudentID(ctx context.Context, studentID string) (*models.Student, error)
	TouchLastLogin(ctx context.Context, studentID string, at time.Time) error
}
