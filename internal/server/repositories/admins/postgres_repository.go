package admins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Admin) (*models.Admin, error) {
	query :=
		`INSERT INTO admins (name, password_digest)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET password_digest = EXCLUDED.password_digest
		 RETURNING id, created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, a.Name, a.PasswordDigest).Scan(&a.ID, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Admin, error) {
	return r.getOne(ctx, `SELECT id, name, password_digest, created_at FROM admins WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Admin, error) {
	return r.getOne(ctx, `SELECT id, name, password_digest, created_at FROM admins WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Admin, error) {
	a := &models.Admin{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Name, &a.PasswordDigest, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}
