package handler

import (
	"context"
	"errors"
	"net/http"

	"library-circulation/internal/circulation/service"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto a status code. Storage failures
// never leak their cause to the client.
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Database error"
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrUnavailable):
		status, message = http.StatusConflict, "Book not available"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}
