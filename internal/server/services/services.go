// Package services contains server-side business logic: sessions and
// identity, accounts, the class hierarchy, documents and their delivery.
// Every service works through a dbx.Store and a repository manager so the
// same code runs on PostgreSQL and on the in-memory store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// loadSettings reads the singleton settings row. A missing row is a seeding
// defect, reported as common.ErrMissingSettings.
func loadSettings(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX) (*models.Settings, error) {
	s, err := rm.Settings(db).Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrMissingSettings
		}
		return nil, fmt.Errorf("error loading settings: %w", err)
	}
	return s, nil
}

// removeBlobs deletes blobs orphaned by a committed delete. Failures are
// logged and otherwise ignored.
func removeBlobs(ctx context.Context, blobs blobstore.Store, log logging.Logger, keys []string) {
	for _, k := range keys {
		if err := blobs.Delete(ctx, k); err != nil {
			log.Warn(ctx, "orphaned blob left behind", "key", k, "error", err)
		}
	}
}
