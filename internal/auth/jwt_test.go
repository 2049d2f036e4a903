package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    42,
		Email: "collector@example.com",
		Roles: []string{domain.RoleOperator, domain.RoleAdmin},
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)

	token, err := m.Generate(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "collector@example.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", "vinylbox-api", -time.Minute, -time.Minute)

	token, err := m.Generate(testUser())
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	m := NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	other := NewTokenManager("other-secret", "vinylbox-api", time.Hour, 24*time.Hour)

	token, err := m.Generate(testUser())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	m := NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	other := NewTokenManager("test-secret", "someone-else", time.Hour, 24*time.Hour)

	token, err := m.Generate(testUser())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_RefreshRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)

	token, err := m.GenerateRefresh(testUser())
	require.NoError(t, err)

	userID, err := m.ValidateRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenManager_ExpiredRefresh(t *testing.T) {
	m := NewTokenManager("test-secret", "vinylbox-api", time.Hour, -time.Minute)

	token, err := m.GenerateRefresh(testUser())
	require.NoError(t, err)

	_, err = m.ValidateRefresh(token)
	assert.Error(t, err)
}

func TestPrimaryRole(t *testing.T) {
	assert.Equal(t, domain.RoleAdmin, primaryRole(&domain.User{Roles: []string{domain.RoleOperator, domain.RoleAdmin}}))
	assert.Equal(t, domain.RoleOperator, primaryRole(&domain.User{Roles: []string{domain.RoleOperator}}))
	assert.Equal(t, "ROLE_CUSTOM", primaryRole(&domain.User{Roles: []string{"ROLE_CUSTOM"}}))
	assert.Equal(t, "", primaryRole(&domain.User{}))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-spinning")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-spinning", hash)

	assert.True(t, CheckPassword(hash, "s3cret-spinning"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
