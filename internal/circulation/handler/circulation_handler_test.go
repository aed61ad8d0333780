package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-circulation/internal/circulation/dto"
	"library-circulation/internal/circulation/handler"
	"library-circulation/internal/circulation/middleware"
	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- MOCK SERVICE ---

type MockCirculationService struct {
	mock.Mock
}

func (m *MockCirculationService) Borrow(ctx context.Context, studentID string, bookID int64) (*service.BorrowResult, error) {
	args := m.Called(ctx, studentID, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BorrowResult), args.Error(1)
}

func (m *MockCirculationService) Return(ctx context.Context, loanID string) (*service.ReturnResult, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReturnResult), args.Error(1)
}

func (m *MockCirculationService) ListLoans(ctx context.Context, studentID string) ([]models.LoanView, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LoanView), args.Error(1)
}

func (m *MockCirculationService) GetLoan(ctx context.Context, loanID string) (*models.LoanView, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanView), args.Error(1)
}

// --- SETUP ---

const loanID = "0b8f3a52-7d1e-4f0a-9c3b-2f6e1d4a5b7c"

// mockAuthMiddleware stands in for the JWT check
func mockAuthMiddleware(studentID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.StudentIDKey, studentID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	}
}

func setupRouter(svc *MockCirculationService, studentID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewCirculationHandler(svc, time.Second, time.UTC, "librarian")

	api := r.Group("/api", mockAuthMiddleware(studentID, role))
	h.RegisterRoutes(api, func(c *gin.Context) { c.Next() })
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- TESTS ---

func TestCirculationHandler_Borrow(t *testing.T) {
	due := time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC)

	t.Run("Created", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")
		svc.On("Borrow", mock.Anything, "S1", int64(3)).
			Return(&service.BorrowResult{LoanID: loanID, BookID: 3, DueDate: due}, nil).Once()

		w := doJSON(r, http.MethodPost, "/api/borrowings", dto.BorrowRequest{StudentID: "S1", BookID: 3})

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp dto.BorrowResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, loanID, resp.BorrowingID)
		assert.Equal(t, "2024-09-16", resp.DueDate)
		svc.AssertExpectations(t)
	})

	t.Run("StudentDefaultsToToken", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")
		svc.On("Borrow", mock.Anything, "S1", int64(3)).
			Return(&service.BorrowResult{LoanID: loanID, BookID: 3, DueDate: due}, nil).Once()

		w := doJSON(r, http.MethodPost, "/api/borrowings", gin.H{"book_id": 3})

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("OtherStudentForbidden", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")

		w := doJSON(r, http.MethodPost, "/api/borrowings", dto.BorrowRequest{StudentID: "S2", BookID: 3})

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LibrarianBorrowsForStudent", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "L1", "librarian")
		svc.On("Borrow", mock.Anything, "S2", int64(3)).
			Return(&service.BorrowResult{LoanID: loanID, BookID: 3, DueDate: due}, nil).Once()

		w := doJSON(r, http.MethodPost, "/api/borrowings", dto.BorrowRequest{StudentID: "S2", BookID: 3})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")

		req, _ := http.NewRequest(http.MethodPost, "/api/borrowings", bytes.NewBufferString(`{"book_id": "three"`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{"Invalid", fmt.Errorf("%w: student_id and book_id are required", service.ErrInvalidRequest), http.StatusBadRequest},
		{"UnknownBook", fmt.Errorf("%w: book 3", service.ErrNotFound), http.StatusNotFound},
		{"Unavailable", fmt.Errorf("%w: book 3", service.ErrUnavailable), http.StatusConflict},
		{"Storage", fmt.Errorf("%w: %w", service.ErrStorage, errors.New("password authentication failed")), http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockCirculationService)
			r := setupRouter(svc, "S1", "student")
			svc.On("Borrow", mock.Anything, "S1", int64(3)).Return(nil, tc.err).Once()

			w := doJSON(r, http.MethodPost, "/api/borrowings", dto.BorrowRequest{StudentID: "S1", BookID: 3})

			assert.Equal(t, tc.want, w.Code)
			assert.NotContains(t, w.Body.String(), "password", "storage causes stay server side")
		})
	}
}

func TestCirculationHandler_Return(t *testing.T) {
	returned := time.Date(2024, 9, 10, 9, 0, 0, 0, time.UTC)
	own := &models.LoanView{Loan: models.Loan{ID: loanID, StudentID: "S1", BookID: 3, Status: models.LoanActive}}

	t.Run("OK", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")
		svc.On("GetLoan", mock.Anything, loanID).Return(own, nil).Once()
		svc.On("Return", mock.Anything, loanID).
			Return(&service.ReturnResult{LoanID: loanID, BookID: 3, ReturnedAt: returned, ReturnedDate: models.CalendarDate(returned)}, nil).Once()

		w := doJSON(r, http.MethodPut, "/api/borrowings/"+loanID+"/return", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.ReturnResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2024-09-10", resp.ReturnedDate)
		svc.AssertExpectations(t)
	})

	t.Run("AlreadyReturned", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")
		svc.On("GetLoan", mock.Anything, loanID).Return(own, nil).Once()
		svc.On("Return", mock.Anything, loanID).Return(nil, fmt.Errorf("%w: active loan", service.ErrNotFound)).Once()

		w := doJSON(r, http.MethodPut, "/api/borrowings/"+loanID+"/return", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("SomeoneElsesLoan", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S2", "student")
		svc.On("GetLoan", mock.Anything, loanID).Return(own, nil).Once()

		w := doJSON(r, http.MethodPut, "/api/borrowings/"+loanID+"/return", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		svc.AssertNotCalled(t, "Return", mock.Anything, mock.Anything)
	})

	t.Run("LibrarianSkipsOwnership", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "L1", "librarian")
		svc.On("Return", mock.Anything, loanID).
			Return(&service.ReturnResult{LoanID: loanID, BookID: 3, ReturnedAt: returned, ReturnedDate: models.CalendarDate(returned)}, nil).Once()

		w := doJSON(r, http.MethodPut, "/api/borrowings/"+loanID+"/return", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertNotCalled(t, "GetLoan", mock.Anything, mock.Anything)
	})

	t.Run("MalformedID", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")
		svc.On("GetLoan", mock.Anything, "42").Return(nil, fmt.Errorf("%w: malformed loan id", service.ErrInvalidRequest)).Once()

		w := doJSON(r, http.MethodPut, "/api/borrowings/42/return", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCirculationHandler_List(t *testing.T) {
	svc := new(MockCirculationService)
	dept := "Literature"
	views := []models.LoanView{{
		Loan: models.Loan{
			ID:         loanID,
			StudentID:  "S1",
			BookID:     3,
			BorrowedAt: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
			DueDate:    time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC),
			Status:     models.LoanActive,
		},
		Title:      "Things Fall Apart",
		Author:     "Chinua Achebe",
		Department: &dept,
		Overdue:    true,
	}}

	t.Run("Own", func(t *testing.T) {
		r := setupRouter(svc, "S1", "student")
		svc.On("ListLoans", mock.Anything, "S1").Return(views, nil).Once()

		w := doJSON(r, http.MethodGet, "/api/borrowings/S1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.BorrowingListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Borrowings, 1)
		item := resp.Borrowings[0]
		assert.Equal(t, loanID, item.BorrowingID)
		assert.Equal(t, "2024-09-02", item.BorrowedDate)
		assert.Equal(t, "2024-09-16", item.DueDate)
		assert.Nil(t, item.ReturnedDate)
		assert.Equal(t, "active", item.Status)
		assert.True(t, item.Overdue)
		assert.Equal(t, "Things Fall Apart", item.Title)
	})

	t.Run("EmptyListIsArray", func(t *testing.T) {
		r := setupRouter(svc, "S9", "student")
		svc.On("ListLoans", mock.Anything, "S9").Return([]models.LoanView{}, nil).Once()

		w := doJSON(r, http.MethodGet, "/api/borrowings/S9", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"borrowings":[]`)
	})

	t.Run("OtherStudentForbidden", func(t *testing.T) {
		r := setupRouter(svc, "S2", "student")

		w := doJSON(r, http.MethodGet, "/api/borrowings/S1", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCirculationHandler_GetLoan(t *testing.T) {
	returnedAt := time.Date(2024, 9, 5, 9, 0, 0, 0, time.UTC)
	view := &models.LoanView{Loan: models.Loan{ID: loanID, StudentID: "S1", Status: models.LoanReturned, ReturnedAt: &returnedAt}}

	t.Run("Owner", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S1", "student")
		svc.On("GetLoan", mock.Anything, loanID).Return(view, nil).Once()

		w := doJSON(r, http.MethodGet, "/api/loans/"+loanID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.BorrowingDetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "returned", resp.Borrowing.Status)
		require.NotNil(t, resp.Borrowing.ReturnedDate)
		assert.Equal(t, "2024-09-05", *resp.Borrowing.ReturnedDate)
	})

	t.Run("Stranger", func(t *testing.T) {
		svc := new(MockCirculationService)
		r := setupRouter(svc, "S2", "student")
		svc.On("GetLoan", mock.Anything, loanID).Return(view, nil).Once()

		w := doJSON(r, http.MethodGet, "/api/loans/"+loanID, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
