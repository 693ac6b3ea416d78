package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"cikyc/internal/identity/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
)

// Postgres persists identities in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const identityColumns = `id, user_id, email, password_hash, email_confirmed, suspended_until, created_at`

func (s *Postgres) Create(ctx context.Context, identity *models.Identity) error {
	query := `INSERT INTO identities (` + identityColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(identity.ID), uuid.UUID(identity.UserID), identity.Email,
		identity.PasswordHash, identity.EmailConfirmed, identity.SuspendedUntil, identity.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = lower($1)`

	var (
		identity   models.Identity
		identityID uuid.UUID
		userID     uuid.UUID
		suspended  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&identityID, &userID, &identity.Email, &identity.PasswordHash,
		&identity.EmailConfirmed, &suspended, &identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}

	identity.ID = id.IdentityID(identityID)
	identity.UserID = id.UserID(userID)
	if suspended.Valid {
		identity.SuspendedUntil = &suspended.Time
	}
	return &identity, nil
}

func (s *Postgres) SetSuspendedUntil(ctx context.Context, userID id.UserID, until *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET suspended_until = $1 WHERE user_id = $2`, until, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("set identity suspension: %w", err)
	}
	return requireAffected(res)
}

func (s *Postgres) DeleteByUserID(ctx context.Context, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM identities WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireAffected(res)
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
