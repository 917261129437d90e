package services

import (
	"cmp"
	"context"
	"slices"

	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// ProfessorEntry is the public projection of a professor.
type ProfessorEntry struct {
	ID   int64
	Name string
}

// Progression is a class with its chapters in order and the summaries of
// their documents. Blob locators are never part of it.
type Progression struct {
	Class         *models.Class
	ProfessorName string
}

// CatalogService serves the read side of the hierarchy. Public reads need
// no identity.
type CatalogService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(store dbx.Store, rm repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{store: store, repomanager: rm}
}

// ListProfessors returns every professor ordered by name.
func (s *CatalogService) ListProfessors(ctx context.Context) ([]*ProfessorEntry, error) {
	profs, err := s.repomanager.Professors(s.store.DB()).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ProfessorEntry, 0, len(profs))
	for _, p := range profs {
		out = append(out, &ProfessorEntry{ID: p.ID, Name: p.Name})
	}
	return out, nil
}

// ListClasses returns the classes of a professor ordered by name, each with
// its chapters ordered by number.
func (s *CatalogService) ListClasses(ctx context.Context, professorID int64) ([]*models.Class, error) {
	db := s.store.DB()
	if _, err := s.repomanager.Professors(db).GetByID(ctx, professorID); err != nil {
		return nil, err
	}
	return s.classesWithChapters(ctx, db, professorID)
}

// MyClasses is ListClasses for the signed-in professor. Admins may list the
// classes of any professor.
func (s *CatalogService) MyClasses(ctx context.Context, id access.Identity, professorID int64) ([]*models.Class, error) {
	if err := access.AuthorizeList(id, professorID); err != nil {
		return nil, err
	}
	return s.classesWithChapters(ctx, s.store.DB(), professorID)
}

func (s *CatalogService) classesWithChapters(ctx context.Context, db dbx.DBTX, professorID int64) ([]*models.Class, error) {
	classes, err := s.repomanager.Classes(db).ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(classes, func(a, b *models.Class) int {
		return cmp.Compare(a.Name, b.Name)
	})

	for _, c := range classes {
		c.Chapters, err = s.repomanager.Chapters(db).ListByClass(ctx, c.ID)
		if err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// Progression returns a class with chapters by number and, per chapter,
// the summaries of its documents.
func (s *CatalogService) Progression(ctx context.Context, classID int64) (*Progression, error) {
	db := s.store.DB()

	class, err := s.repomanager.Classes(db).GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	prof, err := s.repomanager.Professors(db).GetByID(ctx, class.ProfessorID)
	if err != nil {
		return nil, err
	}
	class.Chapters, err = s.repomanager.Chapters(db).ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repomanager.Documents(db).ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	byChapter := make(map[int64][]*models.DocumentSummary, len(class.Chapters))
	for _, d := range docs {
		byChapter[d.ChapterID] = append(byChapter[d.ChapterID], d)
	}
	for _, ch := range class.Chapters {
		ch.Documents = byChapter[ch.ID]
	}

	return &Progression{Class: class, ProfessorName: prof.Name}, nil
}

// ChapterDocuments returns the summaries of the documents of one chapter.
func (s *CatalogService) ChapterDocuments(ctx context.Context, chapterID int64) ([]*models.DocumentSummary, error) {
	db := s.store.DB()

	ch, err := s.repomanager.Chapters(db).GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repomanager.Documents(db).ListByClass(ctx, ch.ClassID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		if d.ChapterID == chapterID {
			out = append(out, d)
		}
	}
	return out, nil
}
