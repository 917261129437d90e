package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type professorRepo struct{ s view }

func (r *professorRepo) Create(_ context.Context, p *models.Professor) (*models.Professor, error) {
	err := r.s.with(func(st *state) error {
		for _, o := range st.professors {
			if o.Name == p.Name {
				return common.ErrConflict
			}
		}
		p.ID = st.id()
		p.CreatedAt = r.s.now()
		st.professors[p.ID] = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *professorRepo) GetByID(_ context.Context, id int64) (*models.Professor, error) {
	var out *models.Professor
	err := r.s.with(func(st *state) error {
		p, ok := st.professors[id]
		if !ok {
			return common.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *professorRepo) GetByName(_ context.Context, name string) (*models.Professor, error) {
	var out *models.Professor
	err := r.s.with(func(st *state) error {
		for _, p := range st.professors {
			if p.Name == name {
				out = &p
				return nil
			}
		}
		return common.ErrNotFound
	})
	return out, err
}

func (r *professorRepo) List(_ context.Context) ([]*models.Professor, error) {
	var out []*models.Professor
	_ = r.s.with(func(st *state) error {
		for _, p := range st.professors {
			p.PasswordDigest = ""
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *professorRepo) Count(_ context.Context) (int, error) {
	var n int
	_ = r.s.with(func(st *state) error {
		n = len(st.professors)
		return nil
	})
	return n, nil
}

func (r *professorRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.professors[id]; !ok {
			return common.ErrNotFound
		}
		st.dropProfessor(id)
		return nil
	})
}

type adminRepo struct{ s view }

func (r *adminRepo) Upsert(_ context.Context, a *models.Admin) (*models.Admin, error) {
	_ = r.s.with(func(st *state) error {
		for id, o := range st.admins {
			if o.Name == a.Name {
				o.PasswordDigest = a.PasswordDigest
				st.admins[id] = o
				a.ID, a.CreatedAt = o.ID, o.CreatedAt
				return nil
			}
		}
		a.ID = st.id()
		a.CreatedAt = r.s.now()
		st.admins[a.ID] = *a
		return nil
	})
	return a, nil
}

func (r *adminRepo) GetByID(_ context.Context, id int64) (*models.Admin, error) {
	var out *models.Admin
	err := r.s.with(func(st *state) error {
		a, ok := st.admins[id]
		if !ok {
			return common.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *adminRepo) GetByName(_ context.Context, name string) (*models.Admin, error) {
	var out *models.Admin
	err := r.s.with(func(st *state) error {
		for _, a := range st.admins {
			if a.Name == name {
				out = &a
				return nil
			}
		}
		return common.ErrNotFound
	})
	return out, err
}

func (r *adminRepo) Rename(_ context.Context, id int64, name string) error {
	return r.s.with(func(st *state) error {
		a, ok := st.admins[id]
		if !ok {
			return common.ErrNotFound
		}
		for oid, o := range st.admins {
			if oid != id && o.Name == name {
				return common.ErrConflict
			}
		}
		a.Name = name
		st.admins[id] = a
		return nil
	})
}
