package dto

import (
	"testing"
	"time"

	"library-circulation/internal/circulation/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLoanView_UsesLibraryCalendar(t *testing.T) {
	kampala := time.FixedZone("EAT", 3*60*60)
	returned := time.Date(2024, 9, 10, 22, 0, 0, 0, time.UTC)
	view := models.LoanView{
		Loan: models.Loan{
			ID:         "loan-1",
			StudentID:  "S1",
			BookID:     4,
			BorrowedAt: time.Date(2024, 9, 2, 21, 30, 0, 0, time.UTC),
			DueDate:    time.Date(2024, 9, 17, 0, 0, 0, 0, time.UTC),
			ReturnedAt: &returned,
			Status:     models.LoanReturned,
		},
		Title: "Nervous Conditions",
	}

	resp := FromLoanView(view, kampala)

	assert.Equal(t, "2024-09-03", resp.BorrowedDate)
	assert.Equal(t, "2024-09-17", resp.DueDate)
	require.NotNil(t, resp.ReturnedDate)
	assert.Equal(t, "2024-09-11", *resp.ReturnedDate)
	assert.Equal(t, "returned", resp.Status)
}

func TestFromLoanViews_EmptyIsNotNull(t *testing.T) {
	resp := FromLoanViews(nil, time.UTC)

	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Borrowings)
	assert.Zero(t, resp.Total)
}
