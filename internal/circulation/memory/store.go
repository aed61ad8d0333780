package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"

	"github.com/google/uuid"
)

type bookRow struct {
	mu   sync.Mutex
	book models.Book
}

type loanRow struct {
	mu   sync.Mutex
	seq  int64
	loan models.Loan
	dead bool // rolled back before it was ever committed
}

// Store keeps books and loans in process memory. Every book and every loan
// has its own lock, so work on different books never contends. A
// transaction keeps the rows it writes locked until it commits or rolls
// back, so readers never see half of one.
type Store struct {
	books   sync.Map // int64 -> *bookRow
	loans   sync.Map // string -> *loanRow
	bookSeq atomic.Int64
	loanSeq atomic.Int64
}

func NewStore() *Store {
	return &Store{}
}

// AddBook inserts a catalog entry, assigning ID and CreatedAt when unset.
func (s *Store) AddBook(b models.Book) models.Book {
	if b.ID == 0 {
		b.ID = s.bookSeq.Add(1)
	} else {
		for {
			cur := s.bookSeq.Load()
			if b.ID <= cur || s.bookSeq.CompareAndSwap(cur, b.ID) {
				break
			}
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.books.Store(b.ID, &bookRow{book: b})
	return b
}

func (s *Store) book(id int64) (*bookRow, bool) {
	v, ok := s.books.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*bookRow), true
}

func (s *Store) loan(id string) (*loanRow, bool) {
	v, ok := s.loans.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*loanRow), true
}

// --- catalog ---

func (s *Store) GetAll(ctx context.Context) ([]models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]models.Book, 0)
	s.books.Range(func(_, v any) bool {
		row := v.(*bookRow)
		row.mu.Lock()
		list = append(list, row.book)
		row.mu.Unlock()
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := s.book(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	row.mu.Lock()
	defer row.mu.Unlock()
	b := row.book
	return &b, nil
}

func (s *Store) Create(ctx context.Context, b *models.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	*b = s.AddBook(*b)
	return nil
}

// --- inventory ledger ---

func (s *Store) GetAvailability(ctx context.Context, bookID int64) (*models.Availability, error) {
	b, err := s.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return &models.Availability{
		BookID:          b.ID,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}, nil
}

func (s *Store) DecrementAvailable(ctx context.Context, bookID int64) error {
	return s.adjust(ctx, bookID, -1)
}

func (s *Store) IncrementAvailable(ctx context.Context, bookID int64) error {
	return s.adjust(ctx, bookID, 1)
}

// adjust checks the bounds and applies delta under the book's lock.
func (s *Store) adjust(ctx context.Context, bookID int64, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, ok := s.book(bookID)
	if !ok {
		return repository.ErrNotFound
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	return step(&row.book, delta)
}

// step moves the available count by delta, keeping it within [0, total].
// The caller holds the book's lock.
func step(b *models.Book, delta int) error {
	next := b.AvailableCopies + delta
	switch {
	case next < 0:
		return repository.ErrNoCopiesAvailable
	case next > b.TotalCopies:
		return repository.ErrInventoryInconsistent
	}
	b.AvailableCopies = next
	return nil
}

// --- loan store ---

func (s *Store) CreateLoan(ctx context.Context, studentID string, bookID int64, borrowedAt, dueDate time.Time) (*models.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// foreign key
	if _, ok := s.book(bookID); !ok {
		return nil, repository.ErrNotFound
	}

	row := s.newLoanRow(studentID, bookID, borrowedAt, dueDate)
	s.loans.Store(row.loan.ID, row)

	loan := row.loan
	return &loan, nil
}

func (s *Store) newLoanRow(studentID string, bookID int64, borrowedAt, dueDate time.Time) *loanRow {
	return &loanRow{
		seq: s.loanSeq.Add(1),
		loan: models.Loan{
			ID:         uuid.NewString(),
			StudentID:  studentID,
			BookID:     bookID,
			BorrowedAt: borrowedAt,
			DueDate:    dueDate,
			Status:     models.LoanActive,
		},
	}
}

func (s *Store) GetActiveLoanForReturn(ctx context.Context, loanID string) (*models.Loan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := s.loan(loanID)
	if !ok {
		return nil, repository.ErrNotFound
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	if row.dead || row.loan.Status != models.LoanActive {
		return nil, repository.ErrNotFound
	}
	loan := row.loan
	return &loan, nil
}

func (s *Store) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, ok := s.loan(loanID)
	if !ok {
		return repository.ErrNotFound
	}

	row.mu.Lock()
	defer row.mu.Unlock()
	if row.dead || row.loan.Status != models.LoanActive {
		return repository.ErrNotFound
	}
	at := returnedAt
	row.loan.Status = models.LoanReturned
	row.loan.ReturnedAt = &at
	return nil
}

// rowReader reads single rows for the list and join queries. A transaction
// reads the rows it already holds without locking them a second time.
type rowReader interface {
	readLoan(id string, row *loanRow) (loan models.Loan, seq int64, ok bool)
	readBook(id int64, row *bookRow) models.Book
}

func (s *Store) readLoan(_ string, row *loanRow) (models.Loan, int64, bool) {
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.loan, row.seq, !row.dead
}

func (s *Store) readBook(_ int64, row *bookRow) models.Book {
	row.mu.Lock()
	defer row.mu.Unlock()
	return row.book
}

func (s *Store) ListLoansForStudent(ctx context.Context, studentID string) ([]models.LoanView, error) {
	return s.listLoans(ctx, s, studentID)
}

func (s *Store) GetLoan(ctx context.Context, loanID string) (*models.LoanView, error) {
	return s.getLoan(ctx, s, loanID)
}

func (s *Store) listLoans(ctx context.Context, r rowReader, studentID string) ([]models.LoanView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type entry struct {
		seq  int64
		view models.LoanView
	}
	var entries []entry
	s.loans.Range(func(k, v any) bool {
		loan, seq, ok := r.readLoan(k.(string), v.(*loanRow))
		if !ok || loan.StudentID != studentID {
			return true
		}
		if view, ok := s.view(r, loan); ok {
			entries = append(entries, entry{seq: seq, view: view})
		}
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].view.BorrowedAt, entries[j].view.BorrowedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return entries[i].seq > entries[j].seq
	})

	views := make([]models.LoanView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.view)
	}
	return views, nil
}

func (s *Store) getLoan(ctx context.Context, r rowReader, loanID string) (*models.LoanView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, ok := s.loan(loanID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	loan, _, ok := r.readLoan(loanID, row)
	if !ok {
		return nil, repository.ErrNotFound
	}

	view, ok := s.view(r, loan)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &view, nil
}

// view joins a loan with its book, like the INNER JOIN of the SQL store.
func (s *Store) view(r rowReader, loan models.Loan) (models.LoanView, bool) {
	row, ok := s.book(loan.BookID)
	if !ok {
		return models.LoanView{}, false
	}
	b := r.readBook(loan.BookID, row)

	return models.LoanView{
		Loan:       loan,
		Title:      b.Title,
		Author:     b.Author,
		ImageURL:   b.ImageURL,
		CoverColor: b.CoverColor,
		Department: b.Department,
	}, true
}
