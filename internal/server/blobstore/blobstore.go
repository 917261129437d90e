// Package blobstore keeps the PDF bytes of documents. Metadata stays in the
// relational store and refers to a blob by its key.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store reads and writes whole objects.
type Store interface {
	// Put stores body under key, replacing any previous object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Get returns common.ErrNotFound for a missing key and wraps
	// common.ErrUpstreamUnavailable for any other backend failure.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete succeeds for a missing key.
	Delete(ctx context.Context, key string) error
}

var newUUID = uuid.New

// NewKey returns a fresh, unguessable object key for a document uploaded at t.
func NewKey(t time.Time) string {
	return fmt.Sprintf("documents/%d/%02d/%s.pdf", t.Year(), t.Month(), newUUID())
}
