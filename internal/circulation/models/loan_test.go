package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarDate(t *testing.T) {
	kampala := time.FixedZone("EAT", 3*60*60)

	// 22:30 UTC on the 1st is already the 2nd in Kampala
	late := time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), CalendarDate(late))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), CalendarDate(late.In(kampala)))
	assert.Equal(t, "2024-03-02", FormatDate(CalendarDate(late.In(kampala))))
}

func TestLoan_IsOverdue(t *testing.T) {
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	loan := Loan{Status: LoanActive, DueDate: due}

	assert.False(t, loan.IsOverdue(time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)), "due day itself is not overdue")
	assert.True(t, loan.IsOverdue(time.Date(2024, 3, 16, 0, 1, 0, 0, time.UTC)))

	returned := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	loan.Status = LoanReturned
	loan.ReturnedAt = &returned
	assert.False(t, loan.IsOverdue(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)), "returned loans are never overdue")
}
