package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexarts74/payetavie/internal/model"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUser(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetOrCreate provisions the user on first sight. Later calls refresh the
// notification address when the identity provider reports a new one; an empty
// email never overwrites a stored one.
func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error) {
	query := `
		INSERT INTO users (cognito_sub, email)
		VALUES ($1, $2)
		ON CONFLICT (cognito_sub) DO UPDATE
		SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
		    updated_at = CASE
		        WHEN NULLIF(EXCLUDED.email, '') IS NOT NULL AND users.email <> EXCLUDED.email THEN now()
		        ELSE users.updated_at
		    END
		RETURNING id, cognito_sub, email, created_at, updated_at`

	return scanUser(r.db.QueryRowContext(ctx, query, cognitoSub, email))
}

func (r *PostgresUserRepository) GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error) {
	query := `
		SELECT id, cognito_sub, email, created_at, updated_at
		FROM users
		WHERE cognito_sub = $1`

	return scanUser(r.db.QueryRowContext(ctx, query, cognitoSub))
}

func scanUser(row scannable) (model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.CognitoSub, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
