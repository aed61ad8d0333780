package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"
	"library-circulation/internal/middleware/auth"

	"go.uber.org/zap"
)

var (
	ErrStudentExists      = errors.New("student id already registered")
	ErrInvalidCredentials = errors.New("invalid student id or password")
)

const maxStudentIDLength = 50

type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	BcryptCost     int
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Student     *models.Student
}

// AuthService registers students and issues the bearer tokens the
// circulation routes verify.
type AuthService interface {
	Signup(ctx context.Context, studentName, studentID, password string) (*models.Student, error)
	Login(ctx context.Context, studentID, password string) (*LoginResult, error)
}

type authService struct {
	students repository.StudentRepository
	cfg      AuthConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(students repository.StudentRepository, cfg AuthConfig, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	return &authService{students: students, cfg: cfg, log: log, now: time.Now}
}

func (s *authService) Signup(ctx context.Context, studentName, studentID, password string) (*models.Student, error) {
	studentName, studentID = strings.TrimSpace(studentName), strings.TrimSpace(studentID)
	if studentName == "" || studentID == "" || password == "" {
		return nil, fmt.Errorf("%w: student_name, student_id and password are required", ErrInvalidRequest)
	}
	if len(studentID) > maxStudentIDLength {
		return nil, fmt.Errorf("%w: student_id is longer than %d characters", ErrInvalidRequest, maxStudentIDLength)
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %w", ErrStorage, err)
	}

	st := &models.Student{
		StudentID:    studentID,
		StudentName:  studentName,
		PasswordHash: hash,
		Role:         models.RoleStudent,
	}
	if err := s.students.Create(ctx, st); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStudentExists
		}
		return nil, classify(err, "student "+studentID)
	}

	s.log.Info("student registered", zap.String("student_id", studentID))
	return st, nil
}

func (s *authService) Login(ctx context.Context, studentID, password string) (*LoginResult, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" || password == "" {
		return nil, fmt.Errorf("%w: student_id and password are required", ErrInvalidRequest)
	}

	st, err := s.students.FindByStudentID(ctx, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		auth.BurnCompare(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, classify(err, "student "+studentID)
	}
	if err := auth.VerifyPassword(st.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	token, expiresAt, err := s.issueToken(st, now)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %w", ErrStorage, err)
	}

	if err := s.students.TouchLastLogin(ctx, st.StudentID, now); err != nil {
		s.log.Warn("last login not recorded", zap.String("student_id", st.StudentID), zap.Error(err))
	}

	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, Student: st}, nil
}

func (s *authService) issueToken(st *models.Student, now time.Time) (string, time.Time, error) {
	claims := auth.NewStudentClaims(st.StudentID, st.Role, now, s.cfg.AccessTokenTTL)
	signed, err := auth.SignToken(claims, s.cfg.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}
