package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleStudent is the role every self-registered account gets.
const RoleStudent = "student"

type Student struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	StudentID    string     `gorm:"uniqueIndex;not null;size:50" json:"student_id"`
	StudentName  string     `gorm:"not null;size:255" json:"student_name"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Role         string     `gorm:"not null;size:20" json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// BeforeCreate fills the surrogate key and role when the caller left them empty.
func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Role == "" {
		s.Role = RoleStudent
	}
	return nil
}

func (Student) TableName() string {
	return "students"
}
