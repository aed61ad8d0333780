package repository

import (
	"context"
	"errors"
	"fmt"

	"library-circulation/internal/circulation/models"

	"gorm.io/gorm"
)

type BookRepo struct {
	db *gorm.DB
}

func NewBookRepo(db *gorm.DB) *BookRepo {
	return &BookRepo{db: db}
}

func (r *BookRepo) GetAll(ctx context.Context) ([]models.Book, error) {
	list := make([]models.Book, 0)
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return list, nil
}

func (r *BookRepo) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	err := r.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

func (r *BookRepo) Create(ctx context.Context, b *models.Book) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	// GORM will populate b.ID and b.CreatedAt
	return nil
}
