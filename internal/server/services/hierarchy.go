package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// initialChapters is how many chapters every new class starts with.
const initialChapters = 2

// HierarchyService creates, renames and deletes classes and chapters while
// keeping chapter numbering consistent.
type HierarchyService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	log         logging.Logger
}

func NewHierarchyService(store dbx.Store, rm repomanager.RepositoryManager, blobs blobstore.Store, log logging.Logger) *HierarchyService {
	return &HierarchyService{store: store, repomanager: rm, blobs: blobs, log: log}
}

func defaultChapterTitle(n int) string {
	return fmt.Sprintf("Chapitre %d", n)
}

func chapterTitle(title string, n int) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return defaultChapterTitle(n)
}

// CreateClass creates a class for the calling professor together with its
// chapters, numbered from 1. At least two chapters are always created;
// titles[i] names chapter i+1 and blank titles get a default.
func (s *HierarchyService) CreateClass(ctx context.Context, id access.Identity, name string, titles []string) (*models.Class, error) {
	profID, err := access.RequireProfessor(id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: class name is required", common.ErrValidation)
	}

	n := max(initialChapters, len(titles))

	var class *models.Class
	err = dbx.WithSerializableTx(ctx, s.store, func(ctx context.Context, tx dbx.DBTX) error {
		settings, err := loadSettings(ctx, s.repomanager, tx)
		if err != nil {
			return err
		}
		count, err := s.repomanager.Classes(tx).CountByProfessor(ctx, profID)
		if err != nil {
			return err
		}
		if err := access.AuthorizeClassCreation(id, count, settings); err != nil {
			return err
		}

		class, err = s.repomanager.Classes(tx).Create(ctx, &models.Class{Name: name, ProfessorID: profID})
		if err != nil {
			return err
		}

		class.Chapters = make([]*models.Chapter, 0, n)
		for i := 1; i <= n; i++ {
			var title string
			if i <= len(titles) {
				title = titles[i-1]
			}
			ch, err := s.repomanager.Chapters(tx).Create(ctx, &models.Chapter{
				ClassID: class.ID,
				Number:  i,
				Title:   chapterTitle(title, i),
			})
			if err != nil {
				return err
			}
			class.Chapters = append(class.Chapters, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "class created", "class_id", class.ID, "prof_id", profID, "chapters", n)
	return class, nil
}

// AddChapter appends a chapter numbered one past the highest existing
// number of the class. The class row is locked for the duration so two
// concurrent calls cannot pick the same number.
func (s *HierarchyService) AddChapter(ctx context.Context, id access.Identity, classID int64, title string) (*models.Chapter, error) {
	var ch *models.Chapter
	err := s.store.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		class, err := s.repomanager.Classes(tx).LockByID(ctx, classID)
		if err != nil {
			return err
		}
		if err := access.AuthorizeManage(id, class.ProfessorID); err != nil {
			return err
		}

		last, err := s.repomanager.Chapters(tx).MaxNumber(ctx, classID)
		if err != nil {
			return err
		}
		next := last + 1

		ch, err = s.repomanager.Chapters(tx).Create(ctx, &models.Chapter{
			ClassID: classID,
			Number:  next,
			Title:   chapterTitle(title, next),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "chapter added", "class_id", classID, "chapter_id", ch.ID, "number", ch.Number)
	return ch, nil
}

// RenameClass is allowed to the owning professor and to admins.
func (s *HierarchyService) RenameClass(ctx context.Context, id access.Identity, classID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: class name is required", common.ErrValidation)
	}

	db := s.store.DB()
	if err := s.authorizeClass(ctx, db, id, classID); err != nil {
		return err
	}
	if err := s.repomanager.Classes(db).Rename(ctx, classID, name); err != nil {
		return err
	}
	s.log.Info(ctx, "class renamed", "class_id", classID, "by", id.String())
	return nil
}

// RenameChapter changes a chapter title. Chapters 1 and 2 may be renamed.
func (s *HierarchyService) RenameChapter(ctx context.Context, id access.Identity, chapterID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: chapter title is required", common.ErrValidation)
	}

	db := s.store.DB()
	ch, err := s.repomanager.Chapters(db).GetByID(ctx, chapterID)
	if err != nil {
		return err
	}
	class, err := s.repomanager.Classes(db).GetByID(ctx, ch.ClassID)
	if err != nil {
		return err
	}
	if err := access.AuthorizeManage(id, class.ProfessorID); err != nil {
		return err
	}
	return s.repomanager.Chapters(db).Rename(ctx, chapterID, title)
}

// DeleteChapter removes a chapter numbered 3 or more with its documents.
// Chapters 1 and 2 are rejected with common.ErrProtectedChapter.
func (s *HierarchyService) DeleteChapter(ctx context.Context, id access.Identity, chapterID int64) error {
	var orphans []string
	err := s.store.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ch, err := s.repomanager.Chapters(tx).GetByID(ctx, chapterID)
		if err != nil {
			return err
		}
		class, err := s.repomanager.Classes(tx).GetByID(ctx, ch.ClassID)
		if err != nil {
			return err
		}
		if err := access.AuthorizeManage(id, class.ProfessorID); err != nil {
			return err
		}
		if !ch.Deletable() {
			return common.ErrProtectedChapter
		}

		orphans, err = deleteChapterTree(ctx, s.repomanager, tx, chapterID)
		return err
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, s.blobs, s.log, orphans)
	s.log.Info(ctx, "chapter deleted", "chapter_id", chapterID, "documents", len(orphans))
	return nil
}

// DeleteClass removes a class with its chapters and documents. It is
// allowed to the owning professor and to admins.
func (s *HierarchyService) DeleteClass(ctx context.Context, id access.Identity, classID int64) error {
	var orphans []string
	err := s.store.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.authorizeClass(ctx, tx, id, classID); err != nil {
			return err
		}
		var err error
		orphans, err = deleteClassTree(ctx, s.repomanager, tx, classID)
		return err
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, s.blobs, s.log, orphans)
	s.log.Info(ctx, "class deleted", "class_id", classID, "by", id.String(), "documents", len(orphans))
	return nil
}

// authorizeClass lets admins through and otherwise requires ownership.
func (s *HierarchyService) authorizeClass(ctx context.Context, db dbx.DBTX, id access.Identity, classID int64) error {
	class, err := s.repomanager.Classes(db).GetByID(ctx, classID)
	if err != nil {
		return err
	}
	if id.Kind == access.Admin {
		return nil
	}
	return access.AuthorizeManage(id, class.ProfessorID)
}

// deleteChapterTree deletes a chapter and its documents through tx and
// returns the blob keys the documents pointed to.
func deleteChapterTree(ctx context.Context, rm repomanager.RepositoryManager, tx dbx.DBTX, chapterID int64) ([]string, error) {
	keys, err := rm.Documents(tx).LocatorsByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if err := rm.Documents(tx).DeleteByChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	if err := rm.Chapters(tx).Delete(ctx, chapterID); err != nil {
		return nil, err
	}
	return keys, nil
}

// deleteClassTree deletes a class, its chapters and their documents through
// tx and returns the orphaned blob keys.
func deleteClassTree(ctx context.Context, rm repomanager.RepositoryManager, tx dbx.DBTX, classID int64) ([]string, error) {
	keys, err := rm.Documents(tx).LocatorsByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := rm.Documents(tx).DeleteByClass(ctx, classID); err != nil {
		return nil, err
	}
	if err := rm.Chapters(tx).DeleteByClass(ctx, classID); err != nil {
		return nil, err
	}
	if err := rm.Classes(tx).Delete(ctx, classID); err != nil {
		return nil, err
	}
	return keys, nil
}
