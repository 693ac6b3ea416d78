package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"cikyc/internal/user/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
)

// Postgres persists user profiles in PostgreSQL. A unique index on
// lower(email) backs the one-account-per-email invariant.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, email, name, role, is_active, created_at`

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.Name, string(user.Role), user.Active, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(userID))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return s.findOne(ctx, query, email)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *Postgres) SetActive(ctx context.Context, userID id.UserID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = $1 WHERE id = $2`, active, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return requireAffected(res)
}

func (s *Postgres) Delete(ctx context.Context, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user    models.User
		userID  uuid.UUID
		rawRole string
	)
	err := row.Scan(&userID, &user.Email, &user.Name, &rawRole, &user.Active, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	user.ID = id.UserID(userID)
	user.Role = models.Role(rawRole)
	return &user, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
