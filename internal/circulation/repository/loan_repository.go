package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-circulation/internal/circulation/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const loanViewColumns = `b.id, b.student_id, b.book_id, b.borrowed_at, b.due_date, b.returned_at, b.status,
	bk.title, bk.author, bk.image_url, bk.cover_color, bk.department`

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanStore {
	return &loanRepository{db: db}
}

func (r *loanRepository) CreateLoan(ctx context.Context, studentID string, bookID int64, borrowedAt, dueDate time.Time) (*models.Loan, error) {
	loan := &models.Loan{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		BookID:     bookID,
		BorrowedAt: borrowedAt,
		DueDate:    dueDate,
		Status:     models.LoanActive,
	}

	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return loan, nil
}

// GetActiveLoanForReturn locks the loan row for the rest of the transaction.
// Unknown and already returned loans are both ErrNotFound.
func (r *loanRepository) GetActiveLoanForReturn(ctx context.Context, loanID string) (*models.Loan, error) {
	if _, err := uuid.Parse(loanID); err != nil {
		return nil, ErrNotFound
	}

	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", loanID, models.LoanActive).
		First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active loan: %w", err)
	}
	return &loan, nil
}

func (r *loanRepository) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, models.LoanActive).
		Updates(map[string]any{
			"status":      models.LoanReturned,
			"returned_at": returnedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("mark loan returned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *loanRepository) ListLoansForStudent(ctx context.Context, studentID string) ([]models.LoanView, error) {
	views := make([]models.LoanView, 0)

	if err := r.loanViews(ctx).
		Where("b.student_id = ?", studentID).
		Order("b.borrowed_at DESC").
		Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return views, nil
}

func (r *loanRepository) GetLoan(ctx context.Context, loanID string) (*models.LoanView, error) {
	if _, err := uuid.Parse(loanID); err != nil {
		return nil, ErrNotFound
	}

	var view models.LoanView
	result := r.loanViews(ctx).
		Where("b.id = ?", loanID).
		Limit(1).
		Scan(&view)
	if result.Error != nil {
		return nil, fmt.Errorf("get loan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &view, nil
}

func (r *loanRepository) loanViews(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("borrowings AS b").
		Select(loanViewColumns).
		Joins("INNER JOIN books bk ON bk.id = b.book_id")
}
