package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"library-circulation/internal/circulation/dto"
	"library-circulation/internal/circulation/middleware"
	"library-circulation/internal/circulation/service"

	"github.com/gin-gonic/gin"
)

type CirculationHandler struct {
	svc        service.CirculationService
	timeout    time.Duration
	location   *time.Location
	staffRoles []string
}

func NewCirculationHandler(svc service.CirculationService, timeout time.Duration, loc *time.Location, staffRoles ...string) *CirculationHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CirculationHandler{svc: svc, timeout: timeout, location: loc, staffRoles: staffRoles}
}

// RegisterRoutes mounts the borrowing routes on an authenticated group.
// limit guards the routes that write.
func (h *CirculationHandler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	borrowings := rg.Group("/borrowings")
	borrowings.GET("/:student_id", middleware.RequireStudentParam("student_id", h.staffRoles...), h.List)
	borrowings.POST("", limit, h.Borrow)
	borrowings.PUT("/:id/return", limit, h.Return)

	rg.GET("/loans/:id", h.GetLoan)
}

// List a student's borrowings, newest first
func (h *CirculationHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	views, err := h.svc.ListLoans(ctx, c.Param("student_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLoanViews(views, h.location))
}

// Borrow a book for the authenticated student
func (h *CirculationHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "student_id and book_id are required"})
		return
	}

	// the body may omit the student; it defaults to the token's
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		studentID = c.GetString(middleware.StudentIDKey)
	}
	if studentID != c.GetString(middleware.StudentIDKey) && !middleware.IsStaff(c, h.staffRoles...) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "cannot borrow for another student"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.Borrow(ctx, studentID, req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromBorrowResult(res))
}

// Return a borrowed book. Students may only return their own loans.
func (h *CirculationHandler) Return(c *gin.Context) {
	loanID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if !middleware.IsStaff(c, h.staffRoles...) {
		loan, err := h.svc.GetLoan(ctx, loanID)
		if err != nil {
			respondError(c, err)
			return
		}
		if loan.StudentID != c.GetString(middleware.StudentIDKey) {
			// someone else's loan looks the same as no loan
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Active borrowing not found"})
			return
		}
	}

	res, err := h.svc.Return(ctx, loanID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReturnResult(res))
}

// GetLoan shows one loan in any state
func (h *CirculationHandler) GetLoan(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.GetLoan(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if view.StudentID != c.GetString(middleware.StudentIDKey) && !middleware.IsStaff(c, h.staffRoles...) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.BorrowingDetailResponse{
		Success:   true,
		Borrowing: dto.FromLoanView(*view, h.location),
	})
}
