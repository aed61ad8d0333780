package memory

import (
	"context"
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"
)

// WithinTx runs fn against a view of the store that locks every book and
// loan row it touches and keeps them locked until fn returns. Readers of
// those rows wait for the outcome, so they see either all of the writes or
// none. On error or panic the undo log is replayed in reverse before the
// locks are released.
//
// Rows are locked in the order fn touches them. The circulation service
// touches one book per transaction, which keeps that order deadlock free.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st repository.Stores) error) (err error) {
	tx := &txStore{
		Store: s,
		books: make(map[int64]*bookRow),
		loans: make(map[string]*loanRow),
	}

	defer func() {
		p := recover()
		tx.finish(p == nil && err == nil)
		if p != nil {
			panic(p)
		}
	}()

	return fn(ctx, repository.Stores{Ledger: tx, Loans: tx})
}

type txStore struct {
	*Store
	books map[int64]*bookRow  // locked until finish
	loans map[string]*loanRow // locked until finish
	undo  []func()
}

func (t *txStore) finish(commit bool) {
	if !commit {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
	}
	t.undo = nil
	for _, row := range t.loans {
		row.mu.Unlock()
	}
	for _, row := range t.books {
		row.mu.Unlock()
	}
}

func (t *txStore) lockBook(id int64) (*bookRow, error) {
	if row, ok := t.books[id]; ok {
		return row, nil
	}
	row, ok := t.Store.book(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	row.mu.Lock()
	t.books[id] = row
	return row, nil
}

func (t *txStore) lockLoan(id string) (*loanRow, error) {
	if row, ok := t.loans[id]; ok {
		return row, nil
	}
	row, ok := t.Store.loan(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	row.mu.Lock()
	if row.dead {
		row.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	t.loans[id] = row
	return row, nil
}

func (t *txStore) readLoan(id string, row *loanRow) (models.Loan, int64, bool) {
	if held, ok := t.loans[id]; ok && held == row {
		return row.loan, row.seq, !row.dead
	}
	return t.Store.readLoan(id, row)
}

func (t *txStore) readBook(id int64, row *bookRow) models.Book {
	if held, ok := t.books[id]; ok && held == row {
		return row.book
	}
	return t.Store.readBook(id, row)
}

// --- inventory ledger ---

func (t *txStore) GetAvailability(ctx context.Context, bookID int64) (*models.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := t.lockBook(bookID)
	if err != nil {
		return nil, err
	}
	return &models.Availability{
		BookID:          row.book.ID,
		TotalCopies:     row.book.TotalCopies,
		AvailableCopies: row.book.AvailableCopies,
	}, nil
}

func (t *txStore) DecrementAvailable(ctx context.Context, bookID int64) error {
	return t.adjust(ctx, bookID, -1)
}

func (t *txStore) IncrementAvailable(ctx context.Context, bookID int64) error {
	return t.adjust(ctx, bookID, 1)
}

func (t *txStore) adjust(ctx context.Context, bookID int64, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := t.lockBook(bookID)
	if err != nil {
		return err
	}
	if err := step(&row.book, delta); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { row.book.AvailableCopies -= delta })
	return nil
}

// --- loan store ---

func (t *txStore) CreateLoan(ctx context.Context, studentID string, bookID int64, borrowedAt, dueDate time.Time) (*models.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := t.Store.book(bookID); !ok {
		return nil, repository.ErrNotFound
	}

	row := t.Store.newLoanRow(studentID, bookID, borrowedAt, dueDate)
	id := row.loan.ID
	row.mu.Lock()
	t.loans[id] = row
	t.Store.loans.Store(id, row)
	t.undo = append(t.undo, func() {
		row.dead = true
		t.Store.loans.Delete(id)
	})

	loan := row.loan
	return &loan, nil
}

func (t *txStore) GetActiveLoanForReturn(ctx context.Context, loanID string) (*models.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := t.lockLoan(loanID)
	if err != nil {
		return nil, err
	}
	if row.loan.Status != models.LoanActive {
		return nil, repository.ErrNotFound
	}
	loan := row.loan
	return &loan, nil
}

func (t *txStore) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := t.lockLoan(loanID)
	if err != nil {
		return err
	}
	if row.loan.Status != models.LoanActive {
		return repository.ErrNotFound
	}

	at := returnedAt
	row.loan.Status = models.LoanReturned
	row.loan.ReturnedAt = &at
	t.undo = append(t.undo, func() {
		row.loan.Status = models.LoanActive
		row.loan.ReturnedAt = nil
	})
	return nil
}

func (t *txStore) ListLoansForStudent(ctx context.Context, studentID string) ([]models.LoanView, error) {
	return t.Store.listLoans(ctx, t, studentID)
}

func (t *txStore) GetLoan(ctx context.Context, loanID string) (*models.LoanView, error) {
	return t.Store.getLoan(ctx, t, loanID)
}
