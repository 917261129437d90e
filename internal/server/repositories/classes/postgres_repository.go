package classes

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

func (r *PostgresRepository) Create(ctx context.Context, c *models.Class) (*models.Class, error) {
	query :=
		`INSERT INTO classes (name, professor_id)
		 VALUES ($1, $2)
		 RETURNING id, created_at
		`

	if err := r.db.QueryRowContext(ctx, query, c.Name, c.ProfessorID).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	return r.getOne(ctx, `SELECT id, name, professor_id, created_at FROM classes WHERE id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id int64) (*models.Class, error) {
	return r.getOne(ctx, `SELECT id, name, professor_id, created_at FROM classes WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id int64) (*models.Class, error) {
	c := &models.Class{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.ProfessorID, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByProfessor(ctx context.Context, professorID int64) ([]*models.Class, error) {
	query :=
		`SELECT id, name, professor_id, created_at FROM classes
		 WHERE professor_id = $1
		 ORDER BY id ASC
		`
	return r.list(ctx, query, professorID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Class, error) {
	return r.list(ctx, `SELECT id, name, professor_id, created_at FROM classes ORDER BY professor_id ASC, name ASC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Class, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Class
	for rows.Next() {
		c := &models.Class{}
		if err := rows.Scan(&c.ID, &c.Name, &c.ProfessorID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountByProfessor(ctx context.Context, professorID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes WHERE professor_id = $1`, professorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE classes SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}
