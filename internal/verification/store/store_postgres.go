package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"cikyc/internal/verification/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
)

// Postgres persists verification records in PostgreSQL. A unique index on
// session_id backs the exactly-once assignment invariant.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `id, subject_name, subject_phone, subject_email, agent_email, agent_name,
	session_id, verification_url, status, downloaded, sent_at, created_at`

func (s *Postgres) Create(ctx context.Context, rec *models.VerificationRecord) error {
	query := `INSERT INTO verification_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ID), rec.SubjectName, rec.SubjectPhone, rec.SubjectEmail,
		rec.AgentEmail, rec.AgentName, rec.SessionID, rec.VerificationURL,
		string(rec.Status), rec.Downloaded, rec.SentAt, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create verification record: %w", err)
	}
	return nil
}

func (s *Postgres) ListByOwnerScope(ctx context.Context, ownerEmail string, includeAll bool) ([]*models.VerificationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM verification_records`
	args := []any{}
	if !includeAll {
		query += ` WHERE agent_email = $1`
		args = append(args, ownerEmail)
	}
	query += ` ORDER BY sent_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	return out, nil
}

func (s *Postgres) FindBySessionID(ctx context.Context, sessionID string) (*models.VerificationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM verification_records WHERE session_id = $1 ORDER BY id LIMIT 1`
	return s.findOne(ctx, query, sessionID)
}

func (s *Postgres) FindByID(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM verification_records WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(recordID))
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.VerificationRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	return rec, nil
}

// UpdateStatus targets the first matching row by primary key. The unique
// index on session_id makes more than one match impossible in this store,
// but the deterministic subquery keeps the behavior well-defined even
// against a hand-migrated database missing the index.
func (s *Postgres) UpdateStatus(ctx context.Context, sessionID string, status models.Status) error {
	query := `UPDATE verification_records SET status = $1
		WHERE id = (SELECT id FROM verification_records WHERE session_id = $2 ORDER BY id LIMIT 1)`
	res, err := s.db.ExecContext(ctx, query, string(status), sessionID)
	if err != nil {
		return fmt.Errorf("update verification status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetDownloaded(ctx context.Context, recordID id.RecordID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE verification_records SET downloaded = TRUE WHERE id = $1`, uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("mark record downloaded: %w", err)
	}
	return requireAffected(res)
}

func (s *Postgres) Delete(ctx context.Context, recordID id.RecordID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_records WHERE id = $1`, uuid.UUID(recordID))
	if err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.VerificationRecord, error) {
	var (
		rec       models.VerificationRecord
		recordID  uuid.UUID
		rawStatus string
	)
	err := row.Scan(&recordID, &rec.SubjectName, &rec.SubjectPhone, &rec.SubjectEmail,
		&rec.AgentEmail, &rec.AgentName, &rec.SessionID, &rec.VerificationURL,
		&rawStatus, &rec.Downloaded, &rec.SentAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.ID = id.RecordID(recordID)
	rec.Status = models.Status(rawStatus)
	return &rec, nil
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
