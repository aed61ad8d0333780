package service

import (
	"context"
	"fmt"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"
)

// CatalogService is the read-only view of the book catalog that the
// circulation routes expose next to borrowing.
type CatalogService interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

type catalogService struct {
	repo repository.BookRepository
}

func NewCatalogService(r repository.BookRepository) CatalogService {
	return &catalogService{repo: r}
}

func (s *catalogService) ListBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, classify(err, "books")
	}
	return books, nil
}

func (s *catalogService) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid book id %d", ErrInvalidRequest, id)
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("book %d", id))
	}
	return b, nil
}
