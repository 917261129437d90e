package settings

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

func (r *PostgresRepository) Get(ctx context.Context) (*models.Settings, error) {
	query :=
		`SELECT signup_passphrase_digest, max_professors, max_classes_per_professor, updated_at
		 FROM settings WHERE id = 1
		`

	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, query).Scan(&s.SignupPassphraseDigest, &s.MaxProfessors, &s.MaxClassesPerProfessor, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.Settings) error {
	query :=
		`INSERT INTO settings (id, signup_passphrase_digest, max_professors, max_classes_per_professor, updated_at)
		 VALUES (1, $1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE SET
		   signup_passphrase_digest = EXCLUDED.signup_passphrase_digest,
		   max_professors = EXCLUDED.max_professors,
		   max_classes_per_professor = EXCLUDED.max_classes_per_professor,
		   updated_at = EXCLUDED.updated_at
		 RETURNING updated_at
		`

	err := r.db.QueryRowContext(ctx, query, s.SignupPassphraseDigest, s.MaxProfessors, s.MaxClassesPerProfessor).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
