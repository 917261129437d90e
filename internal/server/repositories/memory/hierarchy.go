package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type classRepo struct{ s view }

func (r *classRepo) Create(_ context.Context, c *models.Class) (*models.Class, error) {
	err := r.s.with(func(st *state) error {
		if _, ok := st.professors[c.ProfessorID]; !ok {
			return fmt.Errorf("professor %d: %w", c.ProfessorID, common.ErrNotFound)
		}
		c.ID = st.id()
		c.CreatedAt = r.s.now()
		stored := *c
		stored.Chapters = nil
		st.classes[c.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *classRepo) GetByID(_ context.Context, id int64) (*models.Class, error) {
	var out *models.Class
	err := r.s.with(func(st *state) error {
		c, ok := st.classes[id]
		if !ok {
			return common.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

// LockByID needs no lock of its own: units of work are already serialized.
func (r *classRepo) LockByID(ctx context.Context, id int64) (*models.Class, error) {
	return r.GetByID(ctx, id)
}

func (r *classRepo) ListByProfessor(_ context.Context, professorID int64) ([]*models.Class, error) {
	out := r.filter(func(c models.Class) bool { return c.ProfessorID == professorID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *classRepo) ListAll(_ context.Context) ([]*models.Class, error) {
	out := r.filter(func(models.Class) bool { return true })
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProfessorID != out[j].ProfessorID {
			return out[i].ProfessorID < out[j].ProfessorID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *classRepo) filter(keep func(models.Class) bool) []*models.Class {
	var out []*models.Class
	_ = r.s.with(func(st *state) error {
		for _, c := range st.classes {
			if keep(c) {
				out = append(out, &c)
			}
		}
		return nil
	})
	return out
}

func (r *classRepo) CountByProfessor(ctx context.Context, professorID int64) (int, error) {
	l, _ := r.ListByProfessor(ctx, professorID)
	return len(l), nil
}

func (r *classRepo) Rename(_ context.Context, id int64, name string) error {
	return r.s.with(func(st *state) error {
		c, ok := st.classes[id]
		if !ok {
			return common.ErrNotFound
		}
		c.Name = name
		st.classes[id] = c
		return nil
	})
}

func (r *classRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.classes[id]; !ok {
			return common.ErrNotFound
		}
		st.dropClass(id)
		return nil
	})
}

type chapterRepo struct{ s view }

func (r *chapterRepo) Create(_ context.Context, c *models.Chapter) (*models.Chapter, error) {
	err := r.s.with(func(st *state) error {
		if _, ok := st.classes[c.ClassID]; !ok {
			return fmt.Errorf("class %d: %w", c.ClassID, common.ErrNotFound)
		}
		if c.Number <= 0 {
			return fmt.Errorf("chapter number %d: %w", c.Number, common.ErrInvariantViolation)
		}
		for _, o := range st.chapters {
			if o.ClassID == c.ClassID && o.Number == c.Number {
				return common.ErrConflict
			}
		}
		c.ID = st.id()
		c.CreatedAt = r.s.now()
		stored := *c
		stored.Documents = nil
		st.chapters[c.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *chapterRepo) GetByID(_ context.Context, id int64) (*models.Chapter, error) {
	var out *models.Chapter
	err := r.s.with(func(st *state) error {
		c, ok := st.chapters[id]
		if !ok {
			return common.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *chapterRepo) ListByClass(_ context.Context, classID int64) ([]*models.Chapter, error) {
	var out []*models.Chapter
	_ = r.s.with(func(st *state) error {
		for _, c := range st.chapters {
			if c.ClassID == classID {
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *chapterRepo) MaxNumber(ctx context.Context, classID int64) (int, error) {
	l, _ := r.ListByClass(ctx, classID)
	if len(l) == 0 {
		return 0, nil
	}
	return l[len(l)-1].Number, nil
}

func (r *chapterRepo) Rename(_ context.Context, id int64, title string) error {
	return r.s.with(func(st *state) error {
		c, ok := st.chapters[id]
		if !ok {
			return common.ErrNotFound
		}
		c.Title = title
		st.chapters[id] = c
		return nil
	})
}

func (r *chapterRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.chapters[id]; !ok {
			return common.ErrNotFound
		}
		st.dropChapter(id)
		return nil
	})
}

func (r *chapterRepo) DeleteByClass(_ context.Context, classID int64) error {
	return r.s.with(func(st *state) error {
		for id, c := range st.chapters {
			if c.ClassID == classID {
				st.dropChapter(id)
			}
		}
		return nil
	})
}
