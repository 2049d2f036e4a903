package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dougmab/open-vinyl-box-api/internal/auth"
	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/repository"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// RegisterUserInput holds the parameters for registering a user.
type RegisterUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []string
}

// UpdateUserInput holds the parameters for updating a user. Nil pointers
// leave the corresponding field unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Roles     []string
}

// UserService implements the business logic for user operations.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Register creates a new user account. Self-registered accounts get the
// operator role; only admins can grant additional roles.
func (s *UserService) Register(ctx context.Context, input *RegisterUserInput) (*domain.User, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.InvalidInput("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{domain.RoleOperator}
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
		Roles:        roles,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns paginated users.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) ([]domain.User, int, error) {
	return s.users.List(ctx, page, perPage)
}

// UpdateUser applies the given changes to an existing user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, input *UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = strings.ToLower(*input.Email)
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, apperrors.InvalidInput("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		user.PasswordHash = hash
	}
	if input.Roles != nil {
		user.Roles = input.Roles
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated",
		slog.Int64("user_id", user.ID),
	)

	return user, nil
}

// DeleteUser removes a user account. Ratings the user submitted stay in
// place so product aggregates keep their history.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.Int64("user_id", id),
	)

	return nil
}
