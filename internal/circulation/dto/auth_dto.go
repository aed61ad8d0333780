package dto

import "time"

// SignupRequest: payload for student registration
type SignupRequest struct {
	StudentName string `json:"student_name" binding:"required,max=255"`
	StudentID   string `json:"student_id" binding:"required,max=50"`
	Password    string `json:"password" binding:"required,max=72"`
}

// LoginRequest: payload for student login
type LoginRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResponse: response payload after successful authentication
type LoginResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	StudentName string    `json:"student_name"`
	StudentID   string    `json:"student_id"`
}
