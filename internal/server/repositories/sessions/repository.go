// Package sessions declares the server-side repository contract for
// login sessions in persistent storage.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

// Repository defines operations for issuing, resolving and revoking sessions.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, s *models.Session) error

	// Find looks up a session by its opaque token. Expired sessions are
	// returned as well; callers decide on validity.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Delete removes a session by its token. Deleting a non-existent token
	// is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every session whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteByOwner removes every session of one principal.
	DeleteByOwner(ctx context.Context, kind models.OwnerKind, ownerID int64) error
}
