// Package sessions provides a PostgreSQL-backed repository for the login
// sessions used by the identity resolver.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

// PostgresRepository implements session storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ownerColumns splits the owner into the two nullable foreign keys.
func ownerColumns(kind models.OwnerKind, id int64) (prof, admin sql.NullInt64, err error) {
	switch kind {
	case models.OwnerProfessor:
		prof = sql.NullInt64{Int64: id, Valid: true}
	case models.OwnerAdmin:
		admin = sql.NullInt64{Int64: id, Valid: true}
	default:
		err = fmt.Errorf("unknown owner kind %q", kind)
	}
	return
}

// Create inserts a session row pointing at exactly one principal.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	prof, admin, err := ownerColumns(s.OwnerKind, s.OwnerID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (token, professor_id, admin_id, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, s.Token, prof, admin, s.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

// Find returns the session row for the given token.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, professor_id, admin_id, expires_at, created_at
		FROM sessions
		WHERE token = $1
	`
	var prof, admin sql.NullInt64
	s := &models.Session{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&s.Token, &prof, &admin, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch {
	case admin.Valid && !prof.Valid:
		s.OwnerKind, s.OwnerID = models.OwnerAdmin, admin.Int64
	case prof.Valid && !admin.Valid:
		s.OwnerKind, s.OwnerID = models.OwnerProfessor, prof.Int64
	default:
		return nil, fmt.Errorf("session %s has no single owner", s.Token[:min(8, len(s.Token))])
	}
	return s, nil
}

// Delete removes a session by its token string.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM sessions
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, kind models.OwnerKind, ownerID int64) error {
	var query string
	switch kind {
	case models.OwnerProfessor:
		query = `DELETE FROM sessions WHERE professor_id = $1`
	case models.OwnerAdmin:
		query = `DELETE FROM sessions WHERE admin_id = $1`
	default:
		return fmt.Errorf("unknown owner kind %q", kind)
	}
	if _, err := r.db.ExecContext(ctx, query, ownerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
