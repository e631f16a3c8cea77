package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appuser "github.com/medihort/medihort-ai/internal/application/user"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/memory"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/sqlite"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type UserServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	cache   *memory.CacheRepository
	auth    *security.AuthService
	service inbound.AccountService
	ctx     context.Context
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	db, err := sqlite.SetupDatabase(":memory:", logger.Silent)
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "user-service-test-secret-0123456789"
	cfg.Auth.JWTIssuer = "medihort-ai"
	cfg.Auth.JWTExpiration = time.Hour

	log := zaptest.NewLogger(s.T())
	s.cache = memory.NewCacheRepository(0)
	s.auth, err = security.NewAuthService(cfg, s.cache, log)
	s.Require().NoError(err)

	s.service = appuser.NewUserService(gormrepo.NewUserRepository(db), s.auth, security.NewValidator(), log)
}

func (s *UserServiceSuite) TearDownTest() {
	_ = s.cache.Close()
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())
}

func (s *UserServiceSuite) register(email string) *inbound.AuthResult {
	result, err := s.service.Register(s.ctx, inbound.RegisterCommand{
		Email:    email,
		Name:     "Herbalist",
		Password: "chamomile-tea",
	})
	s.Require().NoError(err)
	return result
}

func (s *UserServiceSuite) TestRegisterIssuesToken() {
	result := s.register("herbalist@example.com")

	s.Equal("herbalist@example.com", result.User.Email)
	s.NotEqual(uuid.Nil, result.User.ID)
	s.NotEmpty(result.AccessToken)
	s.InDelta(time.Hour.Seconds(), float64(result.ExpiresIn), 5)

	claims, err := s.auth.ValidateToken(s.ctx, result.AccessToken, security.AccessToken)
	s.Require().NoError(err)
	s.Equal(result.User.ID.String(), claims.UserID)
}

func (s *UserServiceSuite) TestRegisterDuplicateEmail() {
	s.register("herbalist@example.com")

	_, err := s.service.Register(s.ctx, inbound.RegisterCommand{
		Email:    "Herbalist@Example.com",
		Password: "another-password",
	})
	s.True(apperrors.Is(err, apperrors.CodeEmailAlreadyExists))
}

func (s *UserServiceSuite) TestRegisterValidation() {
	_, err := s.service.Register(s.ctx, inbound.RegisterCommand{Email: "not-an-email", Password: "short"})
	s.True(apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (s *UserServiceSuite) TestSignIn() {
	registered := s.register("herbalist@example.com")

	result, err := s.service.SignIn(s.ctx, inbound.SignInCommand{
		Email:    "herbalist@example.com",
		Password: "chamomile-tea",
	})
	s.Require().NoError(err)
	s.Equal(registered.User.ID, result.User.ID)
	s.NotEqual(registered.AccessToken, result.AccessToken)
}

func (s *UserServiceSuite) TestSignInInvalidCredentials() {
	s.register("herbalist@example.com")

	_, err := s.service.SignIn(s.ctx, inbound.SignInCommand{Email: "herbalist@example.com", Password: "wrong-password"})
	s.True(apperrors.Is(err, apperrors.CodeInvalidCredentials))

	_, err = s.service.SignIn(s.ctx, inbound.SignInCommand{Email: "nobody@example.com", Password: "chamomile-tea"})
	s.True(apperrors.Is(err, apperrors.CodeInvalidCredentials))

	appErr, _ := apperrors.As(err)
	s.Equal(401, appErr.StatusCode())
}

func (s *UserServiceSuite) TestSignOutRevokesToken() {
	result := s.register("herbalist@example.com")

	s.Require().NoError(s.service.SignOut(s.ctx, result.AccessToken))

	_, err := s.auth.ValidateToken(s.ctx, result.AccessToken, security.AccessToken)
	s.ErrorIs(err, security.ErrTokenRevoked)

	err = s.service.SignOut(s.ctx, result.AccessToken)
	s.True(apperrors.Is(err, apperrors.CodeUnauthorized))
}

func (s *UserServiceSuite) TestProfile() {
	result := s.register("herbalist@example.com")

	profile, err := s.service.Profile(s.ctx, result.User.ID)
	s.Require().NoError(err)
	s.Equal("Herbalist", profile.Name)

	_, err = s.service.Profile(s.ctx, uuid.New())
	s.True(apperrors.Is(err, apperrors.CodeUserNotFound))
}
