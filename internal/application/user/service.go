// Package user provides the application layer for accounts and sessions
package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/user"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// UserService implements the account use cases
type UserService struct {
	userRepo  outbound.UserRepository
	auth      *security.AuthService
	validator *security.Validator
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo outbound.UserRepository,
	auth *security.AuthService,
	validator *security.Validator,
	logger *zap.Logger,
) inbound.AccountService {
	return &UserService{
		userRepo:  userRepo,
		auth:      auth,
		validator: validator,
		logger:    logger.Named("user-service"),
	}
}

// Register creates a new account and signs it in
func (s *UserService) Register(ctx context.Context, cmd inbound.RegisterCommand) (*inbound.AuthResult, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	s.logger.Info("Registering new user", zap.String("email", cmd.Email))

	newUser, err := user.NewUser(cmd.Email, cmd.Name, cmd.Password)
	if err != nil {
		if errors.Is(err, user.ErrPasswordHash) {
			return nil, apperrors.Wrap(err, "failed to create user")
		}
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("create user", err)
	}

	result, err := s.issue(newUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID().String()),
		zap.String("email", newUser.Email()),
	)
	return result, nil
}

// SignIn checks the credentials and issues an access token
func (s *UserService) SignIn(ctx context.Context, cmd inbound.SignInCommand) (*inbound.AuthResult, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	s.logger.Info("User login attempt", zap.String("email", cmd.Email))

	account, err := s.userRepo.FindByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperrors.NewInvalidCredentialsError()
		}
		return nil, apperrors.NewDatabaseError("find user", err)
	}

	if err := account.CheckPassword(cmd.Password); err != nil {
		s.logger.Warn("Invalid password attempt", zap.String("email", cmd.Email))
		return nil, apperrors.NewInvalidCredentialsError()
	}

	if !account.IsActive() {
		return nil, apperrors.NewForbiddenError("Account is deactivated")
	}

	account.RecordLogin()
	if err := s.userRepo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update last login", zap.Error(err))
	}

	result, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully",
		zap.String("user_id", account.ID().String()),
		zap.String("email", account.Email()),
	)
	return result, nil
}

// SignOut revokes the access token so it cannot be used again
func (s *UserService) SignOut(ctx context.Context, token string) error {
	claims, err := s.auth.ValidateToken(ctx, token, security.AccessToken)
	if err != nil {
		return apperrors.NewUnauthorizedError("Invalid or expired session").WithCause(err)
	}

	if err := s.auth.RevokeToken(ctx, claims); err != nil {
		return apperrors.Wrap(err, "failed to sign out")
	}

	s.logger.Info("User signed out", zap.String("user_id", claims.UserID))
	return nil
}

// Profile returns the public view of an account
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*inbound.UserDTO, error) {
	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperrors.NewUserNotFoundError(userID.String())
		}
		return nil, apperrors.NewDatabaseError("find user", err)
	}

	dto := toDTO(account)
	return &dto, nil
}

func (s *UserService) issue(u *user.User) (*inbound.AuthResult, error) {
	token, err := s.auth.GenerateAccessToken(u.ID(), u.Email())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate token")
	}

	return &inbound.AuthResult{
		User:        toDTO(u),
		AccessToken: token.Token,
		ExpiresAt:   token.ExpiresAt,
		ExpiresIn:   int64(time.Until(token.ExpiresAt).Seconds()),
	}, nil
}

func toDTO(u *user.User) inbound.UserDTO {
	return inbound.UserDTO{
		ID:        u.ID(),
		Email:     u.Email(),
		Name:      u.Name(),
		CreatedAt: u.CreatedAt(),
	}
}
