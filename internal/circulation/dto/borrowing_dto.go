package dto

import (
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/service"
)

// BorrowRequest: payload to borrow one copy of a book
type BorrowRequest struct {
	StudentID string `json:"student_id"`
	BookID    int64  `json:"book_id"`
}

type BorrowResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	BorrowingID string `json:"borrowing_id"`
	DueDate     string `json:"due_date"`
}

type ReturnResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	BorrowingID  string `json:"borrowing_id"`
	ReturnedDate string `json:"returned_date"`
}

// BorrowingResponse: one loan joined with its book, in the shape the
// borrowings list has always used
type BorrowingResponse struct {
	BorrowingID  string  `json:"borrowing_id"`
	StudentID    string  `json:"student_id"`
	BorrowedDate string  `json:"borrowed_date"`
	BorrowedAt   string  `json:"borrowed_at"`
	DueDate      string  `json:"due_date"`
	ReturnedDate *string `json:"returned_date"`
	Status       string  `json:"status"`
	Overdue      bool    `json:"overdue"`
	BookID       int64   `json:"book_id"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	ImageURL     *string `json:"image_url"`
	CoverColor   *string `json:"cover_color"`
	Department   *string `json:"department"`
}

type BorrowingListResponse struct {
	Success    bool                `json:"success"`
	Borrowings []BorrowingResponse `json:"borrowings"`
	Total      int                 `json:"total"`
}

type BorrowingDetailResponse struct {
	Success   bool              `json:"success"`
	Borrowing BorrowingResponse `json:"borrowing"`
}

func FromBorrowResult(r *service.BorrowResult) BorrowResponse {
	return BorrowResponse{
		Success:     true,
		Message:     "Book borrowed successfully",
		BorrowingID: r.LoanID,
		DueDate:     models.FormatDate(r.DueDate),
	}
}

func FromReturnResult(r *service.ReturnResult) ReturnResponse {
	return ReturnResponse{
		Success:      true,
		Message:      "Book returned successfully",
		BorrowingID:  r.LoanID,
		ReturnedDate: models.FormatDate(r.ReturnedDate),
	}
}

// FromLoanView renders a loan. Dates are the calendar days in loc.
func FromLoanView(v models.LoanView, loc *time.Location) BorrowingResponse {
	resp := BorrowingResponse{
		BorrowingID:  v.ID,
		StudentID:    v.StudentID,
		BorrowedDate: models.FormatDate(v.BorrowedAt.In(loc)),
		BorrowedAt:   v.BorrowedAt.UTC().Format(time.RFC3339),
		DueDate:      models.FormatDate(v.DueDate),
		Status:       string(v.Status),
		Overdue:      v.Overdue,
		BookID:       v.BookID,
		Title:        v.Title,
		Author:       v.Author,
		ImageURL:     v.ImageURL,
		CoverColor:   v.CoverColor,
		Department:   v.Department,
	}
	if v.ReturnedAt != nil {
		d := models.FormatDate(v.ReturnedAt.In(loc))
		resp.ReturnedDate = &d
	}
	return resp
}

func FromLoanViews(views []models.LoanView, loc *time.Location) BorrowingListResponse {
	items := make([]BorrowingResponse, 0, len(views))
	for _, v := range views {
		items = append(items, FromLoanView(v, loc))
	}
	return BorrowingListResponse{
		Success:    true,
		Borrowings: items,
		Total:      len(items),
	}
}
