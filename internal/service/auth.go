package service

import (
	"context"
	"log/slog"

	"github.com/dougmab/open-vinyl-box-api/internal/auth"
	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/repository"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// LoginResult carries the issued token pair and the authenticated user.
type LoginResult struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

// AuthService implements login and token issuance.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies the credentials and issues an access token. Unknown emails
// and wrong passwords produce the same error, so the endpoint does not leak
// which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.WarnContext(ctx, "login failed",
			slog.Int64("user_id", user.ID),
		)
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", user.ID),
	)

	return result, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The user is
// re-read from the store so revoked accounts and role changes take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "token refreshed",
		slog.Int64("user_id", user.ID),
	)

	return result, nil
}

func (s *AuthService) issueTokens(user *domain.User) (*LoginResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refresh, err := s.tokens.GenerateRefresh(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &LoginResult{Token: token, RefreshToken: refresh, User: user}, nil
}
