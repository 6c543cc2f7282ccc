package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		Issuer:        "inventory-management",
		Audience:      "inventory-management",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestIssueAndParse(t *testing.T) {
	m, err := NewTokenManager(testConfig())
	require.NoError(t, err)

	pair, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, pair.AccessTTL)
	assert.NotEqual(t, pair.Access.ID, pair.Refresh.ID)

	access, err := m.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.Subject)
	assert.Equal(t, "inventory-management", access.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"inventory-management"}, access.Audience)
	assert.Equal(t, pair.Access.ID, access.ID)
	assert.Equal(t, 5*time.Second, access.IssuedAt.Sub(access.NotBefore.Time))
	assert.Equal(t, time.Hour, access.ExpiresAt.Sub(access.IssuedAt.Time))

	refresh, err := m.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.Subject)
	assert.Equal(t, 24*time.Hour, refresh.ExpiresAt.Sub(refresh.IssuedAt.Time))
}

func TestParse_KeysAreNotInterchangeable(t *testing.T) {
	m, err := NewTokenManager(testConfig())
	require.NoError(t, err)
	pair, err := m.Issue("user-1")
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	now := time.Now()
	cfg := testConfig()
	cfg.Now = func() time.Time { return now }
	m, err := NewTokenManager(cfg)
	require.NoError(t, err)
	pair, err := m.Issue("user-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// refresh token lives longer
	_, err = m.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestParse_WrongAudienceOrIssuer(t *testing.T) {
	m, err := NewTokenManager(testConfig())
	require.NoError(t, err)

	other := testConfig()
	other.Audience = "someone-else"
	foreign, err := NewTokenManager(other)
	require.NoError(t, err)
	pair, err := foreign.Issue("user-1")
	require.NoError(t, err)

	_, err = m.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	m, err := NewTokenManager(testConfig())
	require.NoError(t, err)

	claims := m.claims("user-1", time.Now(), time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = m.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseAccess("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManager_Validation(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	_, err := NewTokenManager(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.AccessTTL = 0
	_, err = NewTokenManager(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.AccessSecret = ""
	_, err = NewTokenManager(cfg)
	assert.Error(t, err)
}
