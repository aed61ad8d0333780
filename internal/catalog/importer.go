package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var ErrInvalidRecord = errors.New("invalid book record")

// Record is one catalog entry in an import file.
type Record struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ImageURL    string `json:"image_url"`
	CoverColor  string `json:"cover_color"`
	Department  string `json:"department"`
	TotalCopies int    `json:"total_copies"`
}

// ReadRecords decodes a JSON array of records.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return records, nil
}

// Validate checks a record before anything is written.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	}
	if r.TotalCopies < 0 {
		return fmt.Errorf("%w: %q has negative total_copies", ErrInvalidRecord, r.Title)
	}
	return nil
}

// ToModel builds a book with every copy on the shelf.
func (r Record) ToModel() models.Book {
	return models.Book{
		Title:           strings.TrimSpace(r.Title),
		Author:          strings.TrimSpace(r.Author),
		ImageURL:        optional(r.ImageURL),
		CoverColor:      optional(r.CoverColor),
		Department:      optional(r.Department),
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.TotalCopies,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Import validates every record first, then creates the books in order.
// Run it against a transaction-bound repository to make the whole file
// all-or-nothing.
func Import(ctx context.Context, repo repository.BookRepository, records []Record, log *zap.Logger) (int, error) {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	for i, rec := range records {
		b := rec.ToModel()
		if err := repo.Create(ctx, &b); err != nil {
			return i, fmt.Errorf("record %d (%q): %w", i, rec.Title, err)
		}
		log.Debug("book imported", zap.Int64("book_id", b.ID), zap.String("title", b.Title))
	}
	return len(records), nil
}
