package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

type sessionRepo struct{ s view }

func (r *sessionRepo) Create(_ context.Context, sess *models.Session) error {
	return r.s.with(func(st *state) error {
		switch sess.OwnerKind {
		case models.OwnerProfessor:
			if _, ok := st.professors[sess.OwnerID]; !ok {
				return fmt.Errorf("professor %d: %w", sess.OwnerID, common.ErrNotFound)
			}
		case models.OwnerAdmin:
			if _, ok := st.admins[sess.OwnerID]; !ok {
				return fmt.Errorf("admin %d: %w", sess.OwnerID, common.ErrNotFound)
			}
		default:
			return fmt.Errorf("unknown owner kind %q", sess.OwnerKind)
		}
		if _, ok := st.sessions[sess.Token]; ok {
			return common.ErrConflict
		}
		sess.CreatedAt = r.s.now()
		st.sessions[sess.Token] = *sess
		return nil
	})
}

func (r *sessionRepo) Find(_ context.Context, token string) (*models.Session, error) {
	var out *models.Session
	err := r.s.with(func(st *state) error {
		sess, ok := st.sessions[token]
		if !ok {
			return common.ErrNotFound
		}
		out = &sess
		return nil
	})
	return out, err
}

func (r *sessionRepo) Delete(_ context.Context, token string) error {
	return r.s.with(func(st *state) error {
		delete(st.sessions, token)
		return nil
	})
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	_ = r.s.with(func(st *state) error {
		for tok, sess := range st.sessions {
			if sess.Expired(now) {
				delete(st.sessions, tok)
				n++
			}
		}
		return nil
	})
	return n, nil
}

func (r *sessionRepo) DeleteByOwner(_ context.Context, kind models.OwnerKind, ownerID int64) error {
	return r.s.with(func(st *state) error {
		for tok, sess := range st.sessions {
			if sess.OwnerKind == kind && sess.OwnerID == ownerID {
				delete(st.sessions, tok)
			}
		}
		return nil
	})
}
