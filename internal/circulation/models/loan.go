package models

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

// Loan records one student holding one copy of one book.
// The only transition is active -> returned; returned loans are immutable.
type Loan struct {
	ID         string     `json:"id" gorm:"type:uuid;primaryKey"`
	StudentID  string     `json:"student_id" gorm:"size:64;not null;index:idx_borrowings_student_borrowed,priority:1"`
	BookID     int64      `json:"book_id" gorm:"not null;index"`
	BorrowedAt time.Time  `json:"borrowed_at" gorm:"not null;index:idx_borrowings_student_borrowed,priority:2,sort:desc"`
	DueDate    time.Time  `json:"due_date" gorm:"type:date;not null"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Status     LoanStatus `json:"status" gorm:"size:16;not null;default:'active';index"`

	// Associations
	Book *Book `json:"book,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT"`
}

// Loans live in the legacy "borrowings" table.
func (Loan) TableName() string {
	return "borrowings"
}

func (l *Loan) IsActive() bool {
	return l.Status == LoanActive
}

// IsOverdue reports whether an active loan is past its due date on the
// calendar day containing now.
func (l *Loan) IsOverdue(now time.Time) bool {
	if !l.IsActive() {
		return false
	}
	return l.DueDate.Before(CalendarDate(now))
}

// LoanView is a loan joined with the catalog metadata of its book.
type LoanView struct {
	Loan
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	ImageURL   *string `json:"image_url,omitempty"`
	CoverColor *string `json:"cover_color,omitempty"`
	Department *string `json:"department,omitempty"`

	// Derived on read, never stored.
	Overdue bool `json:"overdue" gorm:"-"`
}
