package repository

import (
	"context"
	"errors"
	"fmt"

	"library-circulation/internal/circulation/models"

	"gorm.io/gorm"
)

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryLedger {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetAvailability(ctx context.Context, bookID int64) (*models.Availability, error) {
	var b models.Book
	err := r.db.WithContext(ctx).
		Select("id", "total_copies", "available_copies").
		First(&b, bookID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return &models.Availability{
		BookID:          b.ID,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}, nil
}

// DecrementAvailable takes one copy off the shelf. The WHERE clause is
// evaluated against the row version the UPDATE locks, so two callers racing
// for the last copy cannot both succeed.
func (r *inventoryRepository) DecrementAvailable(ctx context.Context, bookID int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if result.Error != nil {
		return fmt.Errorf("decrement available copies: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	return r.missingOr(ctx, bookID, ErrNoCopiesAvailable)
}

// IncrementAvailable puts one copy back, never above total_copies.
func (r *inventoryRepository) IncrementAvailable(ctx context.Context, bookID int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	if result.Error != nil {
		return fmt.Errorf("increment available copies: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	return r.missingOr(ctx, bookID, ErrInventoryInconsistent)
}

// missingOr tells an unknown book apart from a guard that did not match.
func (r *inventoryRepository) missingOr(ctx context.Context, bookID int64, guardErr error) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return guardErr
}
