package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormTransactor spans one database transaction over the ledger and the
// loan store. gorm rolls back when fn returns an error or panics.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, Stores{
			Ledger: NewInventoryRepository(tx),
			Loans:  NewLoanRepository(tx),
		})
	})
}
