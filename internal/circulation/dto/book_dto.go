package dto

import (
	"time"

	"library-circulation/internal/circulation/models"
)

type BookResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ImageURL        *string   `json:"image_url"`
	CoverColor      *string   `json:"cover_color"`
	Department      *string   `json:"department"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

type BookListResponse struct {
	Success bool           `json:"success"`
	Books   []BookResponse `json:"books"`
}

type BookDetailResponse struct {
	Success bool         `json:"success"`
	Book    BookResponse `json:"book"`
}

func FromBookModel(b models.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ImageURL:        b.ImageURL,
		CoverColor:      b.CoverColor,
		Department:      b.Department,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
	}
}

func FromBookModels(books []models.Book) BookListResponse {
	items := make([]BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, FromBookModel(b))
	}
	return BookListResponse{Success: true, Books: items}
}
