package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dougmab/open-vinyl-box-api/internal/auth"
	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// --- Tests ---

func TestRegister_Success(t *testing.T) {
	users := new(mockUserRepository)
	svc := NewUserService(users, newTestLogger())
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.Register(ctx, &RegisterUserInput{
		FirstName: "Maria",
		LastName:  "Silva",
		Email:     "Maria.Silva@Example.com",
		Password:  "spinning-records",
	})

	require.NoError(t, err)
	assert.Equal(t, "maria.silva@example.com", user.Email)
	assert.Equal(t, []string{domain.RoleOperator}, user.Roles)
	assert.NotEqual(t, "spinning-records", user.PasswordHash)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "spinning-records"))
}

func TestRegister_ShortPassword(t *testing.T) {
	users := new(mockUserRepository)
	svc := NewUserService(users, newTestLogger())

	_, err := svc.Register(context.Background(), &RegisterUserInput{
		Email:    "a@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := auth.NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, tokens, newTestLogger())
	ctx := context.Background()

	hash, err := auth.HashPassword("spinning-records")
	require.NoError(t, err)

	user := &domain.User{ID: 42, Email: "maria@example.com", PasswordHash: hash, Roles: []string{domain.RoleOperator}}
	users.On("GetByEmail", ctx, "maria@example.com").Return(user, nil)

	result, err := svc.Login(ctx, "maria@example.com", "spinning-records")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.RefreshToken)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestRefresh_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := auth.NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, tokens, newTestLogger())
	ctx := context.Background()

	user := &domain.User{ID: 42, Email: "maria@example.com", Roles: []string{domain.RoleOperator}}
	refresh, err := tokens.GenerateRefresh(user)
	require.NoError(t, err)

	users.On("GetByID", ctx, int64(42)).Return(user, nil)

	result, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestRefresh_DeletedUser(t *testing.T) {
	users := new(mockUserRepository)
	tokens := auth.NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, tokens, newTestLogger())
	ctx := context.Background()

	refresh, err := tokens.GenerateRefresh(&domain.User{ID: 42})
	require.NoError(t, err)

	users.On("GetByID", ctx, int64(42)).Return(nil, apperrors.NotFound("user", 42))

	_, err = svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh_GarbageToken(t *testing.T) {
	users := new(mockUserRepository)
	tokens := auth.NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, tokens, newTestLogger())

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(mockUserRepository)
	tokens := auth.NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, tokens, newTestLogger())
	ctx := context.Background()

	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)

	user := &domain.User{ID: 42, Email: "maria@example.com", PasswordHash: hash}
	users.On("GetByEmail", ctx, "maria@example.com").Return(user, nil)

	_, err = svc.Login(ctx, "maria@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	users := new(mockUserRepository)
	tokens := auth.NewTokenManager("test-secret", "vinylbox-api", time.Hour, 24*time.Hour)
	svc := NewAuthService(users, tokens, newTestLogger())
	ctx := context.Background()

	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.NotFound("user", "ghost@example.com"))

	_, err := svc.Login(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
