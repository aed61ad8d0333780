package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"library-circulation/internal/circulation/dto"
	"library-circulation/internal/circulation/service"

	"github.com/gin-gonic/gin"
)

type BookHandler struct {
	svc     service.CatalogService
	timeout time.Duration
}

func NewBookHandler(svc service.CatalogService, timeout time.Duration) *BookHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BookHandler{svc: svc, timeout: timeout}
}

func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}

func (h *BookHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	books, err := h.svc.ListBooks(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromBookModels(books))
}

func (h *BookHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	b, err := h.svc.GetBook(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BookDetailResponse{Success: true, Book: dto.FromBookModel(*b)})
}
