package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StudentClaims is what a library access token carries.
type StudentClaims struct {
	StudentID string `json:"student_id"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewStudentClaims builds claims for a token issued at now and valid for ttl.
func NewStudentClaims(studentID, role string, now time.Time, ttl time.Duration) StudentClaims {
	return StudentClaims{
		StudentID: studentID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// SignToken signs claims with HS256.
func SignToken(claims StudentClaims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// HMACVerifier checks HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (v *HMACVerifier) ValidateToken(tokenString string) (*StudentClaims, error) {
	claims := &StudentClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	// older tokens only carry the subject
	if claims.StudentID == "" {
		claims.StudentID = claims.Subject
	}
	if strings.TrimSpace(claims.StudentID) == "" {
		return nil, errors.New("token has no student id")
	}
	return claims, nil
}
