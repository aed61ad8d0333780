package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library-circulation/internal/circulation/models"

	"gorm.io/gorm"
)

type StudentRepo struct {
	db *gorm.DB
}

func NewStudentRepo(db *gorm.DB) *StudentRepo {
	return &StudentRepo{db: db}
}

func (r *StudentRepo) Create(ctx context.Context, s *models.Student) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (r *StudentRepo) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	var s models.Student
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &s, nil
}

func (r *StudentRepo) TouchLastLogin(ctx context.Context, studentID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("student_id = ?", studentID).
		Update("last_login", at)
	if res.Error != nil {
		return fmt.Errorf("update last login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
