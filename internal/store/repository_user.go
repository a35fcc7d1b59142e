package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/packwise/go-pack-sync/models"
)

// UserPostgresRepository implements [UserRepository] on top of PostgreSQL.
type UserPostgresRepository struct {
	*DB
}

func NewUserRepository(db *DB) *UserPostgresRepository {
	return &UserPostgresRepository{DB: db}
}

// CreateUser inserts a new account and returns it with the generated id.
// The password is expected to be a bcrypt hash already.
func (r *UserPostgresRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildInsertUser(user)
	if err != nil {
		log.Err(err).Str("func", "CreateUser").Msg("error building insert user query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.QueryRowContext(ctx, query, args...).Scan(&user.UserID, &user.CreatedAt)
	if err != nil {
		if postgresErrorCode(err) == pgerrcode.UniqueViolation {
			log.Warn().Str("func", "CreateUser").Str("login", user.Login).Msg("login already taken")
			return models.User{}, fmt.Errorf("%w: %w", ErrLoginAlreadyExists, err)
		}
		log.Err(err).Str("func", "CreateUser").Msg("error inserting user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().Str("func", "CreateUser").Int64("user_id", user.UserID).Msg("user created")

	return user, nil
}

// FindUserByLogin returns the stored account for login, including the bcrypt
// password hash for verification by the caller.
func (r *UserPostgresRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	log := r.logger.GetChildLogger("store")

	query, args, err := buildSelectUserByLogin(login)
	if err != nil {
		log.Err(err).Str("func", "FindUserByLogin").Msg("error building select user query")
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var user models.User
	err = r.QueryRowContext(ctx, query, args...).
		Scan(&user.UserID, &user.Login, &user.Password, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		log.Err(err).Str("func", "FindUserByLogin").Msg("error selecting user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return user, nil
}
