// Package chapters declares and implements persistence of class chapters.
package chapters

import (
	"context"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type Repository interface {
	// Create inserts c with the number it already carries. A number taken in
	// the same class yields common.ErrConflict.
	Create(ctx context.Context, c *models.Chapter) (*models.Chapter, error)
	GetByID(ctx context.Context, id int64) (*models.Chapter, error)
	// ListByClass returns chapters ordered by number.
	ListByClass(ctx context.Context, classID int64) ([]*models.Chapter, error)
	// MaxNumber returns the highest chapter number of the class, 0 if none.
	MaxNumber(ctx context.Context, classID int64) (int, error)
	Rename(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error
	DeleteByClass(ctx context.Context, classID int64) error
}
