package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/pdfstamp"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/memory"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

var fastParams = cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

const (
	testPassphrase = "open sesame"
	testTicketKey  = "ticket-key"
)

// fakePDF counts pages as the number of "/Page " markers and stamps by
// appending the footer text after a marker.
type fakePDF struct {
	mu       sync.Mutex
	pageErr  error
	stampErr error
	footers  []pdfstamp.Footer
}

var stampMarker = []byte("\n%%FOOTER ")

func (f *fakePDF) PageCount(pdf []byte) (int, error) {
	if f.pageErr != nil {
		return 0, f.pageErr
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return 0, common.ErrMalformedDocument
	}
	return bytes.Count(pdf, []byte("/Page ")), nil
}

func (f *fakePDF) Stamp(pdf []byte, ft pdfstamp.Footer) ([]byte, error) {
	f.mu.Lock()
	f.footers = append(f.footers, ft)
	f.mu.Unlock()
	if f.stampErr != nil {
		return nil, f.stampErr
	}
	out := append([]byte{}, pdf...)
	out = append(out, stampMarker...)
	return append(out, ft.Text()...), nil
}

func fakePages(n int) []byte {
	b := []byte("%PDF-1.4\n")
	for i := 0; i < n; i++ {
		b = append(b, "/Type /Page \n"...)
	}
	return b
}

// failingBlobs fails every call.
type failingBlobs struct{ err error }

func (f failingBlobs) Put(context.Context, string, []byte, string) error { return f.err }
func (f failingBlobs) Get(context.Context, string) ([]byte, error)       { return nil, f.err }
func (f failingBlobs) Delete(context.Context, string) error              { return f.err }

type env struct {
	store     *memory.Store
	blobs     *blobstore.MemoryStore
	pdf       *fakePDF
	hashers   cryptox.Hashers
	sessions  *SessionService
	users     *UserService
	hierarchy *HierarchyService
	catalog   *CatalogService
	documents *DocumentService
	delivery  *DeliveryService
	settings  *SettingsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	var log logging.Logger = logging.Nop{}

	e := &env{
		store:   memory.New(),
		blobs:   blobstore.NewMemoryStore(),
		pdf:     &fakePDF{},
		hashers: cryptox.NewHashers(fastParams),
	}
	e.sessions = NewSessionService(e.store, e.store, e.hashers.Account, 7*24*time.Hour, log)
	e.users = NewUserService(e.store, e.store, e.hashers, e.sessions, e.blobs, log)
	e.hierarchy = NewHierarchyService(e.store, e.store, e.blobs, log)
	e.catalog = NewCatalogService(e.store, e.store)
	e.documents = NewDocumentService(e.store, e.store, e.blobs, e.pdf, e.hashers.Document,
		Limits{MaxBytes: 10 << 20, MaxPages: 10},
		TicketConfig{Secret: []byte(testTicketKey), Validity: 15 * time.Minute}, log)
	e.delivery = NewDeliveryService(e.store, e.store, e.blobs, e.pdf, e.hashers.Document, []byte(testTicketKey), log)
	e.settings = NewSettingsService(e.store, e.store, e.hashers, log)
	return e
}

// seed writes settings with the given ceilings and an admin "root"/"rootpw".
func (e *env) seed(t *testing.T, maxProfs, maxClasses int) access.Identity {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.settings.Seed(ctx, SeedRequest{
		Passphrase:             testPassphrase,
		AdminName:              "root",
		AdminPassword:          "rootpw",
		MaxProfessors:          maxProfs,
		MaxClassesPerProfessor: maxClasses,
	}))
	a, err := e.store.Admins(nil).GetByName(ctx, "root")
	require.NoError(t, err)
	return access.AdminIdentity(a.ID)
}

func (e *env) register(t *testing.T, name string) access.Identity {
	t.Helper()
	res, err := e.users.Register(context.Background(), name, name+"-pw", testPassphrase)
	require.NoError(t, err)
	return res.Identity
}

func (e *env) class(t *testing.T, id access.Identity, name string, titles ...string) *models.Class {
	t.Helper()
	c, err := e.hierarchy.CreateClass(context.Background(), id, name, titles)
	require.NoError(t, err)
	return c
}

func (e *env) upload(t *testing.T, id access.Identity, chapterID int64, title, password string) *models.DocumentSummary {
	t.Helper()
	res, err := e.documents.Upload(context.Background(), id, UploadRequest{
		ChapterID:   chapterID,
		Type:        string(models.TypeCours),
		Title:       title,
		ContentType: "application/pdf",
		Body:        fakePages(2),
		Protected:   password != "",
		Password:    password,
	})
	require.NoError(t, err)
	return res.Document
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
