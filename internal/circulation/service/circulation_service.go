package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"
	"library-circulation/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultLoanPeriodDays = 14

	opBorrow    = "borrow"
	opReturn    = "return"
	opListLoans = "list_loans"
	opGetLoan   = "get_loan"
)

type BorrowResult struct {
	LoanID  string
	BookID  int64
	DueDate time.Time // calendar date
}

type ReturnResult struct {
	LoanID       string
	BookID       int64
	ReturnedAt   time.Time
	ReturnedDate time.Time // calendar date
}

type CirculationService interface {
	Borrow(ctx context.Context, studentID string, bookID int64) (*BorrowResult, error)
	Return(ctx context.Context, loanID string) (*ReturnResult, error)
	ListLoans(ctx context.Context, studentID string) ([]models.LoanView, error)
	GetLoan(ctx context.Context, loanID string) (*models.LoanView, error)
}

// LoanCache is a read-through cache of a student's loan list. Set must drop
// the write when Invalidate ran after gen was read from Generation.
type LoanCache interface {
	Get(ctx context.Context, studentID string) ([]models.LoanView, bool, error)
	Generation(ctx context.Context, studentID string) (int64, error)
	Set(ctx context.Context, studentID string, gen int64, views []models.LoanView) (bool, error)
	Invalidate(ctx context.Context, studentID string) error
}

type circulationService struct {
	ledger     repository.InventoryLedger
	loans      repository.LoanStore
	tx         repository.Transactor
	cache      LoanCache
	log        *zap.Logger
	metrics    metrics.Recorder
	tracer     trace.Tracer
	now        func() time.Time
	location   *time.Location
	loanPeriod int
}

// Option configures a CirculationService.
type Option func(*circulationService)

func WithLoanCache(c LoanCache) Option {
	return func(s *circulationService) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *circulationService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *circulationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *circulationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone whose calendar days due dates count in.
func WithLocation(loc *time.Location) Option {
	return func(s *circulationService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLoanPeriod(days int) Option {
	return func(s *circulationService) {
		if days > 0 {
			s.loanPeriod = days
		}
	}
}

func NewCirculationService(
	ledger repository.InventoryLedger,
	loans repository.LoanStore,
	tx repository.Transactor,
	opts ...Option,
) CirculationService {
	s := &circulationService{
		ledger:     ledger,
		loans:      loans,
		tx:         tx,
		cache:      noCache{},
		log:        zap.NewNop(),
		metrics:    metrics.Nop{},
		tracer:     otel.Tracer("library-circulation/circulation"),
		now:        time.Now,
		location:   time.UTC,
		loanPeriod: DefaultLoanPeriodDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("service", "circulation"))
	return s
}

// Borrow lends one copy of bookID to studentID. The loan is created and the
// copy count decremented in one transaction; the decrement re-checks
// availability, so the pre-check below only saves a transaction in the
// common unavailable case.
func (s *circulationService) Borrow(ctx context.Context, studentID string, bookID int64) (_ *BorrowResult, err error) {
	studentID = strings.TrimSpace(studentID)
	ctx, done := s.begin(ctx, opBorrow,
		zap.String("student_id", studentID),
		zap.Int64("book_id", bookID),
	)
	var loanID string
	defer func() { done(err, zap.String("loan_id", loanID)) }()

	if studentID == "" || bookID <= 0 {
		return nil, fmt.Errorf("%w: student_id and book_id are required", ErrInvalidRequest)
	}

	subject := fmt.Sprintf("book %d", bookID)

	avail, err := s.ledger.GetAvailability(ctx, bookID)
	if err != nil {
		return nil, classify(err, subject)
	}
	if avail.AvailableCopies <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, subject)
	}

	now := s.now()
	dueDate := s.today(now).AddDate(0, 0, s.loanPeriod)

	var loan *models.Loan
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		if err := st.Ledger.DecrementAvailable(ctx, bookID); err != nil {
			return err
		}
		created, err := st.Loans.CreateLoan(ctx, studentID, bookID, now, dueDate)
		if err != nil {
			return err
		}
		loan = created
		return nil
	})
	if err != nil {
		return nil, classify(err, subject)
	}
	loanID = loan.ID

	s.invalidate(ctx, studentID)

	return &BorrowResult{
		LoanID:  loan.ID,
		BookID:  bookID,
		DueDate: dueDate,
	}, nil
}

// Return closes an active loan and puts the copy back on the shelf in one
// transaction. Unknown and already returned loans both fail ErrNotFound.
func (s *circulationService) Return(ctx context.Context, loanID string) (_ *ReturnResult, err error) {
	loanID = strings.TrimSpace(loanID)
	ctx, done := s.begin(ctx, opReturn, zap.String("loan_id", loanID))
	var loan *models.Loan
	defer func() {
		if loan != nil {
			done(err, zap.String("student_id", loan.StudentID), zap.Int64("book_id", loan.BookID))
			return
		}
		done(err)
	}()

	if err := validateLoanID(loanID); err != nil {
		return nil, err
	}

	var returnedAt time.Time
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
		active, err := st.Loans.GetActiveLoanForReturn(ctx, loanID)
		if err != nil {
			return err
		}
		loan = active

		returnedAt = s.now()
		if returnedAt.Before(active.BorrowedAt) {
			returnedAt = active.BorrowedAt
		}

		if err := st.Loans.MarkReturned(ctx, loanID, returnedAt); err != nil {
			return err
		}
		return st.Ledger.IncrementAvailable(ctx, active.BookID)
	})
	if err != nil {
		return nil, classify(err, "active loan "+loanID)
	}

	s.invalidate(ctx, loan.StudentID)

	return &ReturnResult{
		LoanID:       loanID,
		BookID:       loan.BookID,
		ReturnedAt:   returnedAt,
		ReturnedDate: s.today(returnedAt),
	}, nil
}

// ListLoans returns the student's loans, newest first. Unknown students have
// no loans, which is not an error.
func (s *circulationService) ListLoans(ctx context.Context, studentID string) (_ []models.LoanView, err error) {
	studentID = strings.TrimSpace(studentID)
	ctx, done := s.begin(ctx, opListLoans, zap.String("student_id", studentID))
	cached := false
	defer func() { done(err, zap.Bool("cache_hit", cached)) }()

	if studentID == "" {
		return []models.LoanView{}, nil
	}

	views, hit, cacheErr := s.cache.Get(ctx, studentID)
	if cacheErr != nil {
		s.log.Warn("loan cache read failed", zap.String("student_id", studentID), zap.Error(cacheErr))
	}
	if hit {
		cached = true
		return s.markOverdue(views), nil
	}

	// The generation has to be sampled before storage is read, otherwise a
	// borrow committing in between could be hidden until the entry expires.
	gen, genErr := s.cache.Generation(ctx, studentID)
	if genErr != nil {
		s.log.Warn("loan cache generation read failed", zap.String("student_id", studentID), zap.Error(genErr))
	}

	views, err = s.loans.ListLoansForStudent(ctx, studentID)
	if err != nil {
		return nil, classify(err, "loans of "+studentID)
	}
	if views == nil {
		views = []models.LoanView{}
	}

	if genErr == nil {
		stored, err := s.cache.Set(ctx, studentID, gen, views)
		if err != nil {
			s.log.Warn("loan cache write failed", zap.String("student_id", studentID), zap.Error(err))
		} else if !stored {
			s.log.Debug("loan cache write skipped, list changed during read", zap.String("student_id", studentID))
		}
	}
	return s.markOverdue(views), nil
}

// GetLoan returns a loan in any state, so callers can tell an already
// returned loan from one that never existed.
func (s *circulationService) GetLoan(ctx context.Context, loanID string) (_ *models.LoanView, err error) {
	loanID = strings.TrimSpace(loanID)
	ctx, done := s.begin(ctx, opGetLoan, zap.String("loan_id", loanID))
	defer func() { done(err) }()

	if err := validateLoanID(loanID); err != nil {
		return nil, err
	}

	view, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return nil, classify(err, "loan "+loanID)
	}
	view.Overdue = view.IsOverdue(s.now().In(s.location))
	return view, nil
}

func validateLoanID(loanID string) error {
	if loanID == "" {
		return fmt.Errorf("%w: loan id is required", ErrInvalidRequest)
	}
	if _, err := uuid.Parse(loanID); err != nil {
		return fmt.Errorf("%w: malformed loan id %q", ErrInvalidRequest, loanID)
	}
	return nil
}

// today is the library's current calendar date.
func (s *circulationService) today(t time.Time) time.Time {
	return models.CalendarDate(t.In(s.location))
}

func (s *circulationService) markOverdue(views []models.LoanView) []models.LoanView {
	now := s.now().In(s.location)
	for i := range views {
		views[i].Overdue = views[i].IsOverdue(now)
	}
	return views
}

func (s *circulationService) invalidate(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, studentID); err != nil {
		s.log.Warn("loan cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// begin opens a span for op and returns a func that ends it, records the
// outcome metric and writes the completion log line.
func (s *circulationService) begin(ctx context.Context, op string, fields ...zap.Field) (context.Context, func(error, ...zap.Field)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "Circulation."+op, trace.WithAttributes(attribute.String("operation", op)))

	return ctx, func(err error, extra ...zap.Field) {
		took := time.Since(start)
		outcome := outcomeOf(err)

		span.SetAttributes(attribute.String("outcome", outcome))
		if outcome == outcomeStorage {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, outcome)
		}
		span.End()

		s.metrics.Observe(op, outcome, took)

		all := make([]zap.Field, 0, len(fields)+len(extra)+4)
		all = append(all, zap.String("operation", op), zap.String("outcome", outcome), zap.Duration("latency", took))
		all = append(all, fields...)
		all = append(all, extra...)
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			all = append(all, zap.String("trace_id", sc.TraceID().String()))
		}

		switch outcome {
		case outcomeStorage:
			s.log.Error("circulation_op_done", append(all, zap.Error(err))...)
		case outcomeSuccess:
			s.log.Info("circulation_op_done", all...)
		default:
			s.log.Info("circulation_op_done", append(all, zap.String("reason", err.Error()))...)
		}
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]models.LoanView, bool, error) { return nil, false, nil }
func (noCache) Generation(context.Context, string) (int64, error)            { return 0, nil }
func (noCache) Set(context.Context, string, int64, []models.LoanView) (bool, error) {
	return false, nil
}
func (noCache) Invalidate(context.Context, string) error { return nil }
