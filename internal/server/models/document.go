package models

import "time"

// DocumentType is one of the five fixed rubrics.
type DocumentType string

const (
	TypeCours        DocumentType = "cours"
	TypeExos         DocumentType = "exos"
	TypeCorrExos     DocumentType = "corr_exos"
	TypeControle     DocumentType = "controle"
	TypeCorrControle DocumentType = "corr_controle"
)

// DocumentTypes lists the rubrics in display order.
var DocumentTypes = []DocumentType{TypeCours, TypeExos, TypeCorrExos, TypeControle, TypeCorrControle}

// Valid reports whether t is one of the rubrics.
func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Document is a PDF stored in blob storage. PasswordDigest is set iff
// IsProtected is true.
type Document struct {
	ID             int64
	ChapterID      int64
	Type           DocumentType
	Title          string
	BlobLocator    string
	IsProtected    bool
	PasswordDigest string
	SizeBytes      int64
	CreatedAt      time.Time
}

// DocumentSummary is the public projection of a document. It never carries
// the blob locator.
type DocumentSummary struct {
	ID          int64
	ChapterID   int64
	Type        DocumentType
	Title       string
	IsProtected bool
}

// Summary projects d without its secrets.
func (d *Document) Summary() *DocumentSummary {
	return &DocumentSummary{ID: d.ID, ChapterID: d.ChapterID, Type: d.Type, Title: d.Title, IsProtected: d.IsProtected}
}

// DocumentContext is a document together with the chain of entities that
// own it, as needed for authorization and for the delivery footer.
type DocumentContext struct {
	Document      *Document
	ChapterNumber int
	ChapterTitle  string
	ClassID       int64
	ClassName     string
	ProfessorID   int64
	ProfessorName string
}
