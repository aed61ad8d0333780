package memory

import (
	"context"
	"sync"
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"

	"github.com/google/uuid"
)

// Students is the in-process account table used with the memory driver.
type Students struct {
	mu   sync.RWMutex
	byID map[string]models.Student
}

func NewStudents() *Students {
	return &Students{byID: make(map[string]models.Student)}
}

func (s *Students) Create(ctx context.Context, st *models.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[st.StudentID]; exists {
		return repository.ErrDuplicate
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Role == "" {
		st.Role = models.RoleStudent
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	s.byID[st.StudentID] = *st
	return nil
}

func (s *Students) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.byID[studentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (s *Students) TouchLastLogin(ctx context.Context, studentID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byID[studentID]
	if !ok {
		return repository.ErrNotFound
	}
	st.LastLogin = &at
	s.byID[studentID] = st
	return nil
}
