package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/pdfstamp"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/auth"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// Delivery is a stamped copy ready to be streamed.
type Delivery struct {
	Filename    string
	ContentType string
	Body        []byte
}

// DeliveryService runs the download path: protection gate, blob fetch and
// footer stamping. Stamping always starts from the stored bytes.
type DeliveryService struct {
	store        dbx.Store
	repomanager  repomanager.RepositoryManager
	blobs        blobstore.Store
	pdf          PDFProcessor
	gate         *access.Gate
	ticketSecret []byte
	log          logging.Logger
	now          func() time.Time
}

// NewDeliveryService builds the service; hasher must be the document hasher.
func NewDeliveryService(store dbx.Store, rm repomanager.RepositoryManager, blobs blobstore.Store, pdf PDFProcessor,
	hasher *cryptox.Hasher, ticketSecret []byte, log logging.Logger) *DeliveryService {
	return &DeliveryService{
		store:        store,
		repomanager:  rm,
		blobs:        blobs,
		pdf:          pdf,
		gate:         access.NewGate(hasher),
		ticketSecret: ticketSecret,
		log:          log,
		now:          time.Now,
	}
}

// Deliver returns the stamped PDF of a document. A protected document is
// released for a matching password or for an unlock ticket minted for it.
// Identity plays no part: owners go through the gate like everyone else.
func (s *DeliveryService) Deliver(ctx context.Context, documentID int64, password *string, ticket string) (*Delivery, error) {
	dc, err := s.repomanager.Documents(s.store.DB()).GetContext(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc := dc.Document

	if ticket == "" || !auth.TicketUnlocks(ticket, s.ticketSecret, doc.ID) {
		if err := s.gate.AuthorizeRetrieval(doc, password); err != nil {
			return nil, err
		}
	}

	raw, err := s.blobs.Get(ctx, doc.BlobLocator)
	if err != nil {
		s.log.Error(ctx, "blob fetch failed", "doc_id", doc.ID, "error", err)
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}

	stamped, err := s.pdf.Stamp(raw, pdfstamp.Footer{
		ProfessorName: dc.ProfessorName,
		ClassName:     dc.ClassName,
		ChapterNumber: dc.ChapterNumber,
		ChapterTitle:  dc.ChapterTitle,
		DocumentTitle: doc.Title,
		RetrievedAt:   s.now(),
	})
	if err != nil {
		s.log.Error(ctx, "stamping failed", "doc_id", doc.ID, "error", err)
		if errors.Is(err, common.ErrMalformedDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}

	s.log.Info(ctx, "document delivered", "doc_id", doc.ID, "bytes", len(stamped))
	return &Delivery{
		Filename:    DeliveryFilename(doc.Title),
		ContentType: pdfContentType,
		Body:        stamped,
	}, nil
}

// DeliveryFilename is the name suggested for a stamped download.
func DeliveryFilename(title string) string {
	return title + "_avec_pied_de_page.pdf"
}
