package chapters

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

func (r *PostgresRepository) Create(ctx context.Context, c *models.Chapter) (*models.Chapter, error) {
	query :=
		`INSERT INTO chapters (class_id, number, title)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		`

	err := r.db.QueryRowContext(ctx, query, c.ClassID, c.Number, c.Title).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Chapter, error) {
	c := &models.Chapter{}
	err := r.db.QueryRowContext(ctx, `SELECT id, class_id, number, title, created_at FROM chapters WHERE id = $1`, id).
		Scan(&c.ID, &c.ClassID, &c.Number, &c.Title, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByClass(ctx context.Context, classID int64) ([]*models.Chapter, error) {
	query :=
		`SELECT id, class_id, number, title, created_at FROM chapters
		 WHERE class_id = $1
		 ORDER BY number ASC
		`

	rows, err := r.db.QueryContext(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Chapter
	for rows.Next() {
		c := &models.Chapter{}
		if err := rows.Scan(&c.ID, &c.ClassID, &c.Number, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MaxNumber(ctx context.Context, classID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(number), 0) FROM chapters WHERE class_id = $1`, classID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id int64, title string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chapters SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) DeleteByClass(ctx context.Context, classID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chapters WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
