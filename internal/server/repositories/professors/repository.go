// Package professors declares and implements persistence of professor accounts.
package professors

import (
	"context"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

// Repository stores professor accounts. Names are unique and case-sensitive.
type Repository interface {
	// Create inserts p and fills its ID. A taken name yields common.ErrConflict.
	Create(ctx context.Context, p *models.Professor) (*models.Professor, error)
	GetByID(ctx context.Context, id int64) (*models.Professor, error)
	GetByName(ctx context.Context, name string) (*models.Professor, error)
	// List returns all professors ordered by name.
	List(ctx context.Context) ([]*models.Professor, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}
