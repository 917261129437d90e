// Package admins declares and implements persistence of admin accounts.
package admins

import (
	"context"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type Repository interface {
	// Upsert creates the admin or resets the password of an existing one
	// with the same name.
	Upsert(ctx context.Context, a *models.Admin) (*models.Admin, error)
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
	GetByName(ctx context.Context, name string) (*models.Admin, error)
	Rename(ctx context.Context, id int64, name string) error
}
