// Package classes declares and implements persistence of classes.
package classes

import (
	"context"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

// Repository stores classes. Chapters are not loaded by this repository.
type Repository interface {
	Create(ctx context.Context, c *models.Class) (*models.Class, error)
	GetByID(ctx context.Context, id int64) (*models.Class, error)
	// LockByID is GetByID that also holds a row lock until the surrounding
	// transaction ends. Outside of a transaction it behaves like GetByID.
	LockByID(ctx context.Context, id int64) (*models.Class, error)
	// ListByProfessor returns the professor's classes in creation order.
	ListByProfessor(ctx context.Context, professorID int64) ([]*models.Class, error)
	// ListAll returns every class ordered by owner then name.
	ListAll(ctx context.Context) ([]*models.Class, error)
	CountByProfessor(ctx context.Context, professorID int64) (int, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}
