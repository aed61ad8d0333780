package authentication

// keystring.go keeps the student's access token in the OS keyring.
import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/zalando/go-keyring"
)

const (
	serviceName = "library-cli"
	tokenKey    = "auth_tokens"
)

var ErrNotLoggedIn = errors.New("not logged in, run `library-cli auth login` first")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type StoredCredentials struct {
	AccessToken string    `json:"access_token"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (c *StoredCredentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func StoreTokens(creds *StoredCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, tokenKey, string(data))
}

func GetTokens() (*StoredCredentials, error) {
	value, err := keyring.Get(serviceName, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	var creds StoredCredentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func DeleteTokens() error {
	err := keyring.Delete(serviceName, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
