package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/internal/utils"
	"github.com/packwise/go-pack-sync/models"
)

// AuthService implements [Auth] with bcrypt password hashing and HMAC JWTs.
type AuthService struct {
	users  store.UserRepository
	cfg    config.App
	logger *logger.Logger
}

func NewAuthService(users store.UserRepository, cfg config.App, log *logger.Logger) *AuthService {
	return &AuthService{users: users, cfg: cfg, logger: log}
}

// Register creates a new account and returns a fresh access token.
func (s *AuthService) Register(ctx context.Context, user models.User) (models.Token, error) {
	log := s.logger.GetChildLogger("service")

	if user.Login == "" || user.Password == "" {
		return models.Token{}, fmt.Errorf("%w: login and password are required", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Err(err).Str("func", "Register").Msg("error hashing password")
		return models.Token{}, fmt.Errorf("error hashing password: %w", err)
	}
	user.Password = string(hash)

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrLoginAlreadyExists) {
			return models.Token{}, fmt.Errorf("%w: %w", ErrLoginAlreadyTaken, err)
		}
		log.Err(err).Str("func", "Register").Msg("error creating user")
		return models.Token{}, err
	}

	token, err := utils.GenerateJWTToken(s.cfg.TokenIssuer, created.UserID, s.cfg.TokenDuration, s.cfg.TokenSignKey)
	if err != nil {
		log.Err(err).Str("func", "Register").Msg("error generating token")
		return models.Token{}, err
	}

	log.Info().Str("func", "Register").Int64("user_id", created.UserID).Msg("user registered")

	return token, nil
}

// Login verifies the credentials and returns a fresh access token.
func (s *AuthService) Login(ctx context.Context, user models.User) (models.Token, error) {
	log := s.logger.GetChildLogger("service")

	found, err := s.users.FindUserByLogin(ctx, user.Login)
	if err != nil {
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.Token{}, ErrInvalidCredentials
		}
		log.Err(err).Str("func", "Login").Msg("error finding user")
		return models.Token{}, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(found.Password), []byte(user.Password)); err != nil {
		return models.Token{}, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWTToken(s.cfg.TokenIssuer, found.UserID, s.cfg.TokenDuration, s.cfg.TokenSignKey)
	if err != nil {
		log.Err(err).Str("func", "Login").Msg("error generating token")
		return models.Token{}, err
	}

	log.Info().Str("func", "Login").Int64("user_id", found.UserID).Msg("user logged in")

	return token, nil
}

// ParseToken verifies the signed token and extracts the user id.
func (s *AuthService) ParseToken(tokenString string) (models.Token, error) {
	return utils.ValidateAndParseJWTToken(tokenString, s.cfg.TokenSignKey, s.cfg.TokenIssuer)
}
