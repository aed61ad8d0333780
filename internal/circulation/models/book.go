package models

import "time"

// Book is a catalog title together with its copy counts. Catalog columns are
// owned by the catalog service; the copy counts are owned by the inventory
// ledger and change only through borrow and return.
type Book struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string    `json:"title" gorm:"not null"`
	Author          string    `json:"author" gorm:"not null"`
	ImageURL        *string   `json:"image_url,omitempty"`
	CoverColor      *string   `json:"cover_color,omitempty" gorm:"size:20"`
	Department      *string   `json:"department,omitempty" gorm:"size:100;index"`
	TotalCopies     int       `json:"total_copies" gorm:"not null;check:chk_books_total_copies,total_copies >= 0"`
	AvailableCopies int       `json:"available_copies" gorm:"not null;check:chk_books_available_copies,available_copies >= 0 AND available_copies <= total_copies"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Book) TableName() string {
	return "books"
}

// Availability is the ledger's view of a book.
type Availability struct {
	BookID          int64 `json:"book_id"`
	TotalCopies     int   `json:"total_copies"`
	AvailableCopies int   `json:"available_copies"`
}
