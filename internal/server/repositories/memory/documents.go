package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type documentRepo struct{ s view }

func (r *documentRepo) Create(_ context.Context, d *models.Document) (*models.Document, error) {
	err := r.s.with(func(st *state) error {
		if _, ok := st.chapters[d.ChapterID]; !ok {
			return fmt.Errorf("chapter %d: %w", d.ChapterID, common.ErrNotFound)
		}
		if !d.Type.Valid() {
			return common.ErrInvalidType
		}
		if d.IsProtected != (d.PasswordDigest != "") {
			return fmt.Errorf("protection flag and digest disagree: %w", common.ErrInvariantViolation)
		}
		d.ID = st.id()
		d.CreatedAt = r.s.now()
		st.documents[d.ID] = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *documentRepo) GetByID(_ context.Context, id int64) (*models.Document, error) {
	var out *models.Document
	err := r.s.with(func(st *state) error {
		d, ok := st.documents[id]
		if !ok {
			return common.ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *documentRepo) GetContext(_ context.Context, id int64) (*models.DocumentContext, error) {
	var out *models.DocumentContext
	err := r.s.with(func(st *state) error {
		d, ok := st.documents[id]
		if !ok {
			return common.ErrNotFound
		}
		ch, ok := st.chapters[d.ChapterID]
		if !ok {
			return common.ErrNotFound
		}
		c, ok := st.classes[ch.ClassID]
		if !ok {
			return common.ErrNotFound
		}
		p, ok := st.professors[c.ProfessorID]
		if !ok {
			return common.ErrNotFound
		}
		out = &models.DocumentContext{
			Document:      &d,
			ChapterNumber: ch.Number,
			ChapterTitle:  ch.Title,
			ClassID:       c.ID,
			ClassName:     c.Name,
			ProfessorID:   p.ID,
			ProfessorName: p.Name,
		}
		return nil
	})
	return out, err
}

func (r *documentRepo) ListByClass(_ context.Context, classID int64) ([]*models.DocumentSummary, error) {
	type row struct {
		number int
		sum    *models.DocumentSummary
	}
	var rows []row
	_ = r.s.with(func(st *state) error {
		for _, d := range st.documents {
			ch, ok := st.chapters[d.ChapterID]
			if ok && ch.ClassID == classID {
				rows = append(rows, row{ch.Number, d.Summary()})
			}
		}
		return nil
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].number != rows[j].number {
			return rows[i].number < rows[j].number
		}
		return rows[i].sum.ID < rows[j].sum.ID
	})

	out := make([]*models.DocumentSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.sum)
	}
	return out, nil
}

func (r *documentRepo) LocatorsByChapter(_ context.Context, chapterID int64) ([]string, error) {
	return r.locators(func(st *state, d models.Document) bool { return d.ChapterID == chapterID }), nil
}

func (r *documentRepo) LocatorsByClass(_ context.Context, classID int64) ([]string, error) {
	return r.locators(func(st *state, d models.Document) bool {
		return st.chapters[d.ChapterID].ClassID == classID
	}), nil
}

func (r *documentRepo) locators(keep func(*state, models.Document) bool) []string {
	var out []string
	_ = r.s.with(func(st *state) error {
		for _, d := range st.documents {
			if keep(st, d) {
				out = append(out, d.BlobLocator)
			}
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func (r *documentRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.documents[id]; !ok {
			return common.ErrNotFound
		}
		delete(st.documents, id)
		return nil
	})
}

func (r *documentRepo) DeleteByChapter(_ context.Context, chapterID int64) error {
	return r.s.with(func(st *state) error {
		for id, d := range st.documents {
			if d.ChapterID == chapterID {
				delete(st.documents, id)
			}
		}
		return nil
	})
}

func (r *documentRepo) DeleteByClass(_ context.Context, classID int64) error {
	return r.s.with(func(st *state) error {
		for id, d := range st.documents {
			if st.chapters[d.ChapterID].ClassID == classID {
				delete(st.documents, id)
			}
		}
		return nil
	})
}

type settingsRepo struct{ s view }

func (r *settingsRepo) Get(_ context.Context) (*models.Settings, error) {
	var out *models.Settings
	err := r.s.with(func(st *state) error {
		if st.settings == nil {
			return common.ErrNotFound
		}
		cp := *st.settings
		out = &cp
		return nil
	})
	return out, err
}

func (r *settingsRepo) Upsert(_ context.Context, s *models.Settings) error {
	return r.s.with(func(st *state) error {
		s.UpdatedAt = r.s.now()
		cp := *s
		st.settings = &cp
		return nil
	})
}
