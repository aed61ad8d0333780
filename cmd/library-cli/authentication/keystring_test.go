package authentication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestTokens_RoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := GetTokens()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	exp := time.Date(2024, 9, 2, 11, 0, 0, 0, time.UTC)
	require.NoError(t, StoreTokens(&StoredCredentials{AccessToken: "tok", StudentID: "S1", StudentName: "Amina", ExpiresAt: exp}))

	creds, err := GetTokens()
	require.NoError(t, err)
	assert.Equal(t, "tok", creds.AccessToken)
	assert.Equal(t, "S1", creds.StudentID)
	assert.True(t, exp.Equal(creds.ExpiresAt))

	require.NoError(t, DeleteTokens())
	require.NoError(t, DeleteTokens())
	_, err = GetTokens()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStoredCredentials_Expired(t *testing.T) {
	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

	assert.False(t, (&StoredCredentials{}).Expired(now))
	assert.False(t, (&StoredCredentials{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&StoredCredentials{ExpiresAt: now}).Expired(now))
}
