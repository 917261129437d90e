package documents

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

func (r *PostgresRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO documents (chapter_id, type, title, blob_locator, is_protected, password_digest, size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		`

	digest := sql.NullString{String: d.PasswordDigest, Valid: d.IsProtected}
	err := r.db.QueryRowContext(ctx, query,
		d.ChapterID, string(d.Type), d.Title, d.BlobLocator, d.IsProtected, digest, d.SizeBytes,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

const selectDocument = `SELECT d.id, d.chapter_id, d.type, d.title, d.blob_locator, d.is_protected, d.password_digest, d.size_bytes, d.created_at`

func scanDocument(row interface{ Scan(...any) error }, extra ...any) (*models.Document, error) {
	d := &models.Document{}
	var typ string
	var digest sql.NullString
	dest := append([]any{&d.ID, &d.ChapterID, &typ, &d.Title, &d.BlobLocator, &d.IsProtected, &digest, &d.SizeBytes, &d.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	d.Type = models.DocumentType(typ)
	d.PasswordDigest = digest.String
	return d, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, selectDocument+` FROM documents d WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) GetContext(ctx context.Context, id int64) (*models.DocumentContext, error) {
	query := selectDocument + `, ch.number, ch.title, c.id, c.name, p.id, p.name
		FROM documents d
		JOIN chapters ch ON ch.id = d.chapter_id
		JOIN classes c ON c.id = ch.class_id
		JOIN professors p ON p.id = c.professor_id
		WHERE d.id = $1
	`

	dc := &models.DocumentContext{}
	d, err := scanDocument(r.db.QueryRowContext(ctx, query, id),
		&dc.ChapterNumber, &dc.ChapterTitle, &dc.ClassID, &dc.ClassName, &dc.ProfessorID, &dc.ProfessorName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	dc.Document = d
	return dc, nil
}

func (r *PostgresRepository) ListByClass(ctx context.Context, classID int64) ([]*models.DocumentSummary, error) {
	query :=
		`SELECT d.id, d.chapter_id, d.type, d.title, d.is_protected
		 FROM documents d
		 JOIN chapters ch ON ch.id = d.chapter_id
		 WHERE ch.class_id = $1
		 ORDER BY ch.number ASC, d.id ASC
		`

	rows, err := r.db.QueryContext(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.DocumentSummary
	for rows.Next() {
		s := &models.DocumentSummary{}
		var typ string
		if err := rows.Scan(&s.ID, &s.ChapterID, &typ, &s.Title, &s.IsProtected); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		s.Type = models.DocumentType(typ)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) LocatorsByChapter(ctx context.Context, chapterID int64) ([]string, error) {
	return r.locators(ctx, `SELECT blob_locator FROM documents WHERE chapter_id = $1`, chapterID)
}

func (r *PostgresRepository) LocatorsByClass(ctx context.Context, classID int64) ([]string, error) {
	query :=
		`SELECT d.blob_locator FROM documents d
		 JOIN chapters ch ON ch.id = d.chapter_id
		 WHERE ch.class_id = $1
		`
	return r.locators(ctx, query, classID)
}

func (r *PostgresRepository) locators(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res)
}

func (r *PostgresRepository) DeleteByChapter(ctx context.Context, chapterID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE chapter_id = $1`, chapterID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByClass(ctx context.Context, classID int64) error {
	query :=
		`DELETE FROM documents
		 WHERE chapter_id IN (SELECT id FROM chapters WHERE class_id = $1)
		`
	if _, err := r.db.ExecContext(ctx, query, classID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
