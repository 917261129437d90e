// Package settings declares and implements persistence of the singleton
// settings row.
package settings

import (
	"context"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrNotFound when the row has never been written.
	Get(ctx context.Context) (*models.Settings, error)
	Upsert(ctx context.Context, s *models.Settings) error
}
