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
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  access.Identity
}

// SessionService issues, resolves and revokes login sessions.
type SessionService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.Hasher
	validity    time.Duration
	log         logging.Logger
	now         func() time.Time
}

// NewSessionService builds the service; hasher must be the account hasher.
func NewSessionService(store dbx.Store, rm repomanager.RepositoryManager, hasher *cryptox.Hasher, validity time.Duration, log logging.Logger) *SessionService {
	return &SessionService{
		store:       store,
		repomanager: rm,
		hasher:      hasher,
		validity:    validity,
		log:         log,
		now:         time.Now,
	}
}

// Resolve maps a bearer token to an identity. It never fails: a missing,
// unknown or expired token resolves to Anonymous. Expired rows are left for
// Logout or the reaper.
func (s *SessionService) Resolve(ctx context.Context, token string) access.Identity {
	if token == "" {
		return access.AnonymousIdentity
	}

	sess, err := s.repomanager.Sessions(s.store.DB()).Find(ctx, token)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "session lookup failed", "error", err)
		}
		return access.AnonymousIdentity
	}
	if sess.Expired(s.now()) {
		return access.AnonymousIdentity
	}

	switch sess.OwnerKind {
	case models.OwnerAdmin:
		return access.AdminIdentity(sess.OwnerID)
	case models.OwnerProfessor:
		return access.ProfessorIdentity(sess.OwnerID)
	default:
		return access.AnonymousIdentity
	}
}

// Login checks name and password, admins first, then professors.
func (s *SessionService) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	db := s.store.DB()

	admin, err := s.repomanager.Admins(db).GetByName(ctx, name)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error looking up admin: %w", err)
	}
	if admin != nil && s.verify(password, admin.PasswordDigest) {
		return s.issue(ctx, db, models.OwnerAdmin, admin.ID)
	}

	prof, err := s.repomanager.Professors(db).GetByName(ctx, name)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error looking up professor: %w", err)
	}
	if prof != nil && s.verify(password, prof.PasswordDigest) {
		return s.issue(ctx, db, models.OwnerProfessor, prof.ID)
	}

	s.log.Info(ctx, "login rejected", "name", name)
	return nil, common.ErrInvalidCredentials
}

func (s *SessionService) verify(password, digest string) bool {
	ok, err := s.hasher.Verify(password, digest)
	return err == nil && ok
}

// issue creates a session row through db, which may be a transaction.
func (s *SessionService) issue(ctx context.Context, db dbx.DBTX, kind models.OwnerKind, ownerID int64) (*LoginResult, error) {
	token, err := common.MakeRandHexString(common.SessionTokenSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	sess := &models.Session{
		Token:     token,
		OwnerKind: kind,
		OwnerID:   ownerID,
		ExpiresAt: s.now().Add(s.validity),
	}
	if err := s.repomanager.Sessions(db).Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	id := access.ProfessorIdentity(ownerID)
	if kind == models.OwnerAdmin {
		id = access.AdminIdentity(ownerID)
	}
	s.log.Info(ctx, "session opened", "principal", id.String())
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, Identity: id}, nil
}

// Logout deletes the session behind token. Unknown tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repomanager.Sessions(s.store.DB()).Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// Reap deletes every expired session and returns how many were removed.
func (s *SessionService) Reap(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.store.DB()).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error reaping sessions: %w", err)
	}
	return n, nil
}

// RunReaper calls Reap every interval until ctx is done.
func (s *SessionService) RunReaper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Reap(ctx)
			if err != nil {
				s.log.Error(ctx, "session reaper failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info(ctx, "expired sessions reaped", "count", n)
			}
		}
	}
}
