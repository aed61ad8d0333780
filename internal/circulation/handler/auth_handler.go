package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"library-circulation/internal/circulation/dto"
	"library-circulation/internal/circulation/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc     service.AuthService
	timeout time.Duration
}

func NewAuthHandler(svc service.AuthService, timeout time.Duration) *AuthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuthHandler{svc: svc, timeout: timeout}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please fill in all fields"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	_, err := h.svc.Signup(ctx, req.StudentName, req.StudentID, req.Password)
	if errors.Is(err, service.ErrStudentExists) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Student ID already registered"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SignupResponse{
		Success: true,
		Message: "Account created successfully! You can now login.",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Please enter student ID and password"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.Login(ctx, req.StudentID, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid student ID or password"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Success:     true,
		Message:     "Login successful",
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt,
		StudentName: res.Student.StudentName,
		StudentID:   res.Student.StudentID,
	})
}
