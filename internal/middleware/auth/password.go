package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost existing library accounts were hashed with.
const DefaultCost = bcrypt.DefaultCost

// dummyHash is compared against when the account does not exist, so a login
// for an unknown student costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-account"), DefaultCost)
	return h
})

// HashPassword creates a bcrypt hash of password. A cost outside bcrypt's
// range falls back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks password against a stored bcrypt hash.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// BurnCompare spends one bcrypt comparison and discards the result.
func BurnCompare(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}
