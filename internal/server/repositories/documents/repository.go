// Package documents declares and implements persistence of document
// metadata. The PDF bytes live in blob storage under BlobLocator.
package documents

import (
	"context"

	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	// GetContext loads the document with its chapter, class and professor.
	GetContext(ctx context.Context, id int64) (*models.DocumentContext, error)
	// ListByClass returns summaries of every document in the class ordered
	// by chapter number then id.
	ListByClass(ctx context.Context, classID int64) ([]*models.DocumentSummary, error)
	// LocatorsByChapter and LocatorsByClass return the blob locators that a
	// cascade delete would orphan.
	LocatorsByChapter(ctx context.Context, chapterID int64) ([]string, error)
	LocatorsByClass(ctx context.Context, classID int64) ([]string, error)
	Delete(ctx context.Context, id int64) error
	DeleteByChapter(ctx context.Context, chapterID int64) error
	DeleteByClass(ctx context.Context, classID int64) error
}
