package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/dbx"
	"github.com/avolkovs/linkup/internal/server/models"
)

// Postgres error codes we translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `
	u.id, u.display_name, u.email, u.password_hash, u.refresh_token,
	u.bio, u.avatar_url,
	(SELECT count(*) FROM followers f WHERE f.user_id = u.id),
	(SELECT count(*) FROM followers f WHERE f.follower_id = u.id),
	u.created_at, u.updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var refreshToken sql.NullString

	err := row.Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash,
		&refreshToken, &user.Bio, &user.AvatarURL,
		&user.Followers, &user.Following, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if refreshToken.Valid {
		user.RefreshToken = &refreshToken.String
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (display_name, email, password_hash, bio, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.DisplayName, user.Email, user.PasswordHash, user.Bio, user.AvatarURL).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users u WHERE u.email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users u WHERE u.id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users u ORDER BY u.created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user := &models.User{}
		var refreshToken sql.NullString

		err := rows.Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash,
			&refreshToken, &user.Bio, &user.AvatarURL,
			&user.Followers, &user.Following, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if refreshToken.Valid {
			user.RefreshToken = &refreshToken.String
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {

	query :=
		`UPDATE users SET
			display_name = COALESCE($2, display_name),
			bio          = COALESCE($3, bio),
			avatar_url   = COALESCE($4, avatar_url),
			updated_at   = now()
		 WHERE id = $1
		 RETURNING id`

	var updated string
	err := r.db.QueryRowContext(ctx, query, id, upd.DisplayName, upd.Bio, upd.AvatarURL).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {

	query := `UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) ReplaceRefreshToken(ctx context.Context, id, current, next string) (bool, error) {

	// Compare-and-swap: the update only lands if the slot still holds the
	// presented token, so concurrent rotations cannot both succeed.
	query :=
		`UPDATE users SET refresh_token = $3, updated_at = now()
		 WHERE id = $1 AND refresh_token = $2`

	res, err := r.db.ExecContext(ctx, query, id, current, next)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected == 1, nil
}

func (r *PostgresRepository) Follow(ctx context.Context, userID, followerID string) error {

	query :=
		`INSERT INTO followers (user_id, follower_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, userID, followerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrAlreadyFollowing
	}

	return nil
}

func (r *PostgresRepository) Unfollow(ctx context.Context, userID, followerID string) error {

	query := `DELETE FROM followers WHERE user_id = $1 AND follower_id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, followerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFollowing
	}

	return nil
}
