package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/pdfstamp"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/auth"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

const pdfContentType = "application/pdf"

// PDFProcessor parses and stamps PDFs. *pdfstamp.Stamper implements it.
type PDFProcessor interface {
	PageCount(pdf []byte) (int, error)
	Stamp(pdf []byte, f pdfstamp.Footer) ([]byte, error)
}

// Limits are the upload ceilings.
type Limits struct {
	MaxBytes int64
	MaxPages int
}

// TicketConfig holds the unlock ticket signing key and lifetime.
type TicketConfig struct {
	Secret   []byte
	Validity time.Duration
}

// UploadRequest is a PDF submitted by a professor.
type UploadRequest struct {
	ChapterID   int64
	Type        string
	Title       string
	Filename    string
	ContentType string
	Body        []byte
	Protected   bool
	Password    string
}

// UploadResult describes a stored document.
type UploadResult struct {
	Document *models.DocumentSummary
	Pages    int
}

// DocumentMetadata describes a document and the chain that owns it.
// BlobLocator is only filled once the protection gate granted access.
type DocumentMetadata struct {
	Document      *models.DocumentSummary
	ChapterNumber int
	ChapterTitle  string
	ClassID       int64
	ClassName     string
	ProfessorName string
	BlobLocator   string
}

// DocumentService uploads, describes, unlocks and deletes documents.
type DocumentService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	pdf         PDFProcessor
	hasher      *cryptox.Hasher
	gate        *access.Gate
	limits      Limits
	tickets     TicketConfig
	log         logging.Logger
	now         func() time.Time
}

// NewDocumentService builds the service; hasher must be the document hasher.
func NewDocumentService(store dbx.Store, rm repomanager.RepositoryManager, blobs blobstore.Store, pdf PDFProcessor,
	hasher *cryptox.Hasher, limits Limits, tickets TicketConfig, log logging.Logger) *DocumentService {
	return &DocumentService{
		store:       store,
		repomanager: rm,
		blobs:       blobs,
		pdf:         pdf,
		hasher:      hasher,
		gate:        access.NewGate(hasher),
		limits:      limits,
		tickets:     tickets,
		log:         log,
		now:         time.Now,
	}
}

// Upload validates a PDF and stores it under the given chapter. Checks run
// in this order: ownership, content type, size, rubric, page count,
// password. The blob is written before the row and removed again if the
// row cannot be inserted.
func (s *DocumentService) Upload(ctx context.Context, id access.Identity, req UploadRequest) (*UploadResult, error) {
	if _, err := access.RequireProfessor(id); err != nil {
		return nil, err
	}

	db := s.store.DB()
	ch, err := s.repomanager.Chapters(db).GetByID(ctx, req.ChapterID)
	if err != nil {
		return nil, err
	}
	class, err := s.repomanager.Classes(db).GetByID(ctx, ch.ClassID)
	if err != nil {
		return nil, err
	}
	if err := access.AuthorizeManage(id, class.ProfessorID); err != nil {
		return nil, err
	}

	if req.ContentType != pdfContentType {
		return nil, fmt.Errorf("%w: only PDF files are accepted", common.ErrValidation)
	}
	if int64(len(req.Body)) > s.limits.MaxBytes {
		return nil, common.ErrDocumentTooLarge
	}
	docType := models.DocumentType(req.Type)
	if !docType.Valid() {
		return nil, common.ErrInvalidType
	}

	pages, err := s.pdf.PageCount(req.Body)
	if err != nil {
		return nil, err
	}
	if pages > s.limits.MaxPages {
		return nil, fmt.Errorf("%w: %d pages, at most %d allowed", common.ErrTooManyPages, pages, s.limits.MaxPages)
	}

	doc := &models.Document{
		ChapterID:   ch.ID,
		Type:        docType,
		Title:       documentTitle(req.Title, req.Filename),
		IsProtected: req.Protected,
		SizeBytes:   int64(len(req.Body)),
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if req.Protected {
		password := strings.TrimSpace(req.Password)
		if password == "" {
			return nil, fmt.Errorf("%w: a protected document needs a password", common.ErrValidation)
		}
		doc.PasswordDigest, err = s.hasher.Digest(password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
		}
	}

	key := blobstore.NewKey(s.now())
	if err := s.blobs.Put(ctx, key, req.Body, pdfContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}
	doc.BlobLocator = key

	doc, err = s.repomanager.Documents(db).Create(ctx, doc)
	if err != nil {
		removeBlobs(ctx, s.blobs, s.log, []string{key})
		return nil, err
	}

	s.log.Info(ctx, "document uploaded", "doc_id", doc.ID, "chapter_id", ch.ID, "pages", pages, "protected", doc.IsProtected)
	return &UploadResult{Document: doc.Summary(), Pages: pages}, nil
}

// documentTitle prefers an explicit title, then the file name without its
// .pdf extension.
func documentTitle(title, filename string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimSpace(base)
}

// Metadata describes a document once the protection gate grants.
// ErrPasswordRequired and ErrWrongPassword are returned as is so callers can
// tell a re-prompt from a wrong password.
func (s *DocumentService) Metadata(ctx context.Context, documentID int64, password *string) (*DocumentMetadata, error) {
	dc, err := s.repomanager.Documents(s.store.DB()).GetContext(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.AuthorizeRetrieval(dc.Document, password); err != nil {
		return nil, err
	}
	return &DocumentMetadata{
		Document:      dc.Document.Summary(),
		ChapterNumber: dc.ChapterNumber,
		ChapterTitle:  dc.ChapterTitle,
		ClassID:       dc.ClassID,
		ClassName:     dc.ClassName,
		ProfessorName: dc.ProfessorName,
		BlobLocator:   dc.Document.BlobLocator,
	}, nil
}

// CheckPassword runs the protection gate and returns an unlock ticket for
// the document on success.
func (s *DocumentService) CheckPassword(ctx context.Context, documentID int64, password string) (string, error) {
	doc, err := s.repomanager.Documents(s.store.DB()).GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if err := s.gate.AuthorizeRetrieval(doc, &password); err != nil {
		s.log.Info(ctx, "document unlock refused", "doc_id", documentID, "error", err)
		return "", err
	}

	ticket, err := auth.GenerateUnlockTicket(doc.ID, s.tickets.Secret, s.tickets.Validity)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return ticket, nil
}

// Delete removes a document of the calling professor. The blob goes after
// the row.
func (s *DocumentService) Delete(ctx context.Context, id access.Identity, documentID int64) error {
	db := s.store.DB()

	dc, err := s.repomanager.Documents(db).GetContext(ctx, documentID)
	if err != nil {
		return err
	}
	if err := access.AuthorizeManage(id, dc.ProfessorID); err != nil {
		return err
	}
	if err := s.repomanager.Documents(db).Delete(ctx, documentID); err != nil {
		return err
	}

	removeBlobs(ctx, s.blobs, s.log, []string{dc.Document.BlobLocator})
	s.log.Info(ctx, "document deleted", "doc_id", documentID, "chapter_id", dc.Document.ChapterID)
	return nil
}
