package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hallpass/hallpass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, verified, token_hash, token_expires_at, token_used, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, email, name string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		uuid.NewString(), email, name)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET token_hash = $2, token_expires_at = $3, token_used = false, updated_at = now()
		 WHERE id = $1`,
		id, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ClaimActiveToken relies on the row-level atomicity of a single
// conditional UPDATE: of two racing claims on the same token, only one
// matches the WHERE clause.
func (r *UserRepository) ClaimActiveToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET verified = true, token_used = true,
		     token_hash = NULL, token_expires_at = NULL, updated_at = now()
		 WHERE token_hash = $1 AND NOT token_used AND token_expires_at > now()
		 RETURNING `+userColumns,
		tokenHash)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) ClearExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET token_hash = NULL, token_expires_at = NULL, token_used = false, updated_at = now()
		 WHERE token_hash IS NOT NULL AND token_expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("clear expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Verified,
		&u.TokenHash, &u.TokenExpiresAt, &u.TokenUsed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
