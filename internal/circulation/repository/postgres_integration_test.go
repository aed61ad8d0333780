//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"library-circulation/database"
	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"
	"library-circulation/internal/circulation/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresSuite runs the circulation rules against a real Postgres.
type PostgresSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *database.DB
	books     *repository.BookRepo
	ledger    repository.InventoryLedger
	loans     repository.LoanStore
	svc       service.CirculationService
	now       time.Time
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("library_system"),
		postgres.WithUsername("library"),
		postgres.WithPassword("library"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		s.T().Skipf("postgres container unavailable: %v", err)
		return
	}
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = database.Connect(ctx, dsn, database.PoolSettings{MaxConns: 60, MinConns: 2}, zap.NewNop())
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(s.db.Gorm))

	s.books = repository.NewBookRepo(s.db.Gorm)
	s.ledger = repository.NewInventoryRepository(s.db.Gorm)
	s.loans = repository.NewLoanRepository(s.db.Gorm)
	s.svc = service.NewCirculationService(s.ledger, s.loans, repository.NewGormTransactor(s.db.Gorm),
		service.WithClock(func() time.Time { return s.now }),
	)
}

func (s *PostgresSuite) TearDownSuite() {
	s.db.Close()
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *PostgresSuite) SetupTest() {
	s.now = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.db.Gorm.Exec("TRUNCATE borrowings, books, students RESTART IDENTITY CASCADE").Error)
}

func (s *PostgresSuite) addBook(total, available int) int64 {
	b := &models.Book{Title: "The River Between", Author: "Ngũgĩ wa Thiong'o", TotalCopies: total, AvailableCopies: available}
	s.Require().NoError(s.books.Create(context.Background(), b))
	return b.ID
}

func (s *PostgresSuite) available(bookID int64) int {
	a, err := s.ledger.GetAvailability(context.Background(), bookID)
	s.Require().NoError(err)
	return a.AvailableCopies
}

func (s *PostgresSuite) TestSingleCopyScenario() {
	ctx := context.Background()
	bookID := s.addBook(1, 1)

	borrowed, err := s.svc.Borrow(ctx, "S1", bookID)
	s.Require().NoError(err)
	s.Equal("2024-09-16", models.FormatDate(borrowed.DueDate))
	s.Equal(0, s.available(bookID))

	_, err = s.svc.Borrow(ctx, "S2", bookID)
	s.ErrorIs(err, service.ErrUnavailable)

	_, err = s.svc.Return(ctx, borrowed.LoanID)
	s.Require().NoError(err)
	s.Equal(1, s.available(bookID))

	_, err = s.svc.Return(ctx, borrowed.LoanID)
	s.ErrorIs(err, service.ErrNotFound)
	s.Equal(1, s.available(bookID))

	views, err := s.svc.ListLoans(ctx, "S1")
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(models.LoanReturned, views[0].Status)
	s.Equal("The River Between", views[0].Title)
	s.Equal("2024-09-16", models.FormatDate(views[0].DueDate))
}

func (s *PostgresSuite) TestConcurrentLastCopy() {
	bookID := s.addBook(1, 1)

	const borrowers = 40
	var wg sync.WaitGroup
	results := make(chan error, borrowers)
	start := make(chan struct{})
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.svc.Borrow(context.Background(), uuid.NewString(), bookID)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		s.ErrorIs(err, service.ErrUnavailable)
	}
	s.Equal(1, successes)
	s.Equal(0, s.available(bookID))

	var active int64
	s.Require().NoError(s.db.Gorm.Model(&models.Loan{}).Where("book_id = ? AND status = ?", bookID, models.LoanActive).Count(&active).Error)
	s.Equal(int64(1), active)
}

func (s *PostgresSuite) TestConcurrentReturnOfOneLoan() {
	bookID := s.addBook(2, 2)
	borrowed, err := s.svc.Borrow(context.Background(), "S1", bookID)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Return(context.Background(), borrowed.LoanID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		s.ErrorIs(err, service.ErrNotFound)
	}
	s.Equal(1, successes)
	s.Equal(2, s.available(bookID))
}

func (s *PostgresSuite) TestLedgerGuards() {
	ctx := context.Background()
	bookID := s.addBook(1, 1)

	s.ErrorIs(s.ledger.IncrementAvailable(ctx, bookID), repository.ErrInventoryInconsistent)
	s.NoError(s.ledger.DecrementAvailable(ctx, bookID))
	s.ErrorIs(s.ledger.DecrementAvailable(ctx, bookID), repository.ErrNoCopiesAvailable)
	s.ErrorIs(s.ledger.DecrementAvailable(ctx, bookID+1000), repository.ErrNotFound)
}

func (s *PostgresSuite) TestCheckConstraintsRejectBadCounts() {
	err := s.books.Create(context.Background(), &models.Book{Title: "Broken", Author: "x", TotalCopies: 1, AvailableCopies: 2})
	s.ErrorIs(err, gorm.ErrCheckConstraintViolated)
}

func (s *PostgresSuite) TestTransactionRollsBackBothWrites() {
	ctx := context.Background()
	bookID := s.addBook(1, 1)
	tx := repository.NewGormTransactor(s.db.Gorm)

	var loanID string
	err := tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		if err := st.Ledger.DecrementAvailable(ctx, bookID); err != nil {
			return err
		}
		loan, err := st.Loans.CreateLoan(ctx, "S1", bookID, s.now, s.now)
		if err != nil {
			return err
		}
		loanID = loan.ID
		// fails the guard, so the whole transaction must disappear
		return st.Ledger.DecrementAvailable(ctx, bookID)
	})
	s.ErrorIs(err, repository.ErrNoCopiesAvailable)
	s.Equal(1, s.available(bookID))

	_, err = s.loans.GetLoan(ctx, loanID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresSuite) TestListOrderAndEmpty() {
	ctx := context.Background()
	bookID := s.addBook(3, 3)

	first, err := s.svc.Borrow(ctx, "S1", bookID)
	s.Require().NoError(err)
	s.now = s.now.Add(time.Hour)
	second, err := s.svc.Borrow(ctx, "S1", bookID)
	s.Require().NoError(err)

	views, err := s.svc.ListLoans(ctx, "S1")
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	s.Equal(second.LoanID, views[0].ID)
	s.Equal(first.LoanID, views[1].ID)

	none, err := s.svc.ListLoans(ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresSuite) TestStudentAccounts() {
	ctx := context.Background()
	students := repository.NewStudentRepo(s.db.Gorm)

	st := &models.Student{StudentID: "S1", StudentName: "Amina", PasswordHash: "hash"}
	s.Require().NoError(students.Create(ctx, st))
	s.NotEmpty(st.ID)
	s.Equal(models.RoleStudent, st.Role)

	err := students.Create(ctx, &models.Student{StudentID: "S1", StudentName: "Other", PasswordHash: "hash"})
	s.ErrorIs(err, repository.ErrDuplicate)

	s.Require().NoError(students.TouchLastLogin(ctx, "S1", s.now))
	found, err := students.FindByStudentID(ctx, "S1")
	s.Require().NoError(err)
	s.Equal("Amina", found.StudentName)
	s.Require().NotNil(found.LastLogin)
	s.True(s.now.Equal(*found.LastLogin))

	_, err = students.FindByStudentID(ctx, "nobody")
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(students.TouchLastLogin(ctx, "nobody", s.now), repository.ErrNotFound)
}
