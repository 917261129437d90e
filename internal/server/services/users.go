package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// Profile is the signed-in principal as shown to itself.
type Profile struct {
	Kind access.Kind
	ID   int64
	Name string
}

// UserService manages professor and admin accounts.
type UserService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	hashers     cryptox.Hashers
	sessions    *SessionService
	blobs       blobstore.Store
	log         logging.Logger
}

func NewUserService(store dbx.Store, rm repomanager.RepositoryManager, hashers cryptox.Hashers, sessions *SessionService, blobs blobstore.Store, log logging.Logger) *UserService {
	return &UserService{
		store:       store,
		repomanager: rm,
		hashers:     hashers,
		sessions:    sessions,
		blobs:       blobs,
		log:         log,
	}
}

// Register creates a professor account and signs it in. The passphrase must
// match the configured signup passphrase, the professor ceiling must not be
// reached and the name must be free.
func (s *UserService) Register(ctx context.Context, name, password, passphrase string) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, fmt.Errorf("%w: name and password are required", common.ErrValidation)
	}

	settings, err := loadSettings(ctx, s.repomanager, s.store.DB())
	if err != nil {
		return nil, err
	}
	passphraseOK, err := s.hashers.Passphrase.Verify(strings.TrimSpace(passphrase), settings.SignupPassphraseDigest)
	if err != nil {
		return nil, fmt.Errorf("%w: stored passphrase digest: %v", common.ErrInternal, err)
	}

	digest, err := s.hashers.Account.Digest(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	var result *LoginResult
	err = dbx.WithSerializableTx(ctx, s.store, func(ctx context.Context, tx dbx.DBTX) error {
		profs := s.repomanager.Professors(tx)

		count, err := profs.Count(ctx)
		if err != nil {
			return err
		}
		if err := access.AuthorizeRegistration(passphraseOK, count, settings); err != nil {
			return err
		}

		if _, err := profs.GetByName(ctx, name); err == nil {
			return common.ErrConflict
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		p, err := profs.Create(ctx, &models.Professor{Name: name, PasswordDigest: digest})
		if err != nil {
			return err
		}

		result, err = s.sessions.issue(ctx, tx, models.OwnerProfessor, p.ID)
		return err
	})
	if err != nil {
		s.log.Info(ctx, "registration rejected", "name", name, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "professor registered", "name", name, "prof_id", result.Identity.ID)
	return result, nil
}

// Profile returns the principal behind id.
func (s *UserService) Profile(ctx context.Context, id access.Identity) (*Profile, error) {
	db := s.store.DB()
	switch id.Kind {
	case access.Professor:
		p, err := s.repomanager.Professors(db).GetByID(ctx, id.ID)
		if err != nil {
			return nil, err
		}
		return &Profile{Kind: id.Kind, ID: p.ID, Name: p.Name}, nil
	case access.Admin:
		a, err := s.repomanager.Admins(db).GetByID(ctx, id.ID)
		if err != nil {
			return nil, err
		}
		return &Profile{Kind: id.Kind, ID: a.ID, Name: a.Name}, nil
	default:
		return nil, common.ErrUnauthenticated
	}
}

// RenameAdmin changes the signed-in admin's own name.
func (s *UserService) RenameAdmin(ctx context.Context, id access.Identity, name string) error {
	if err := access.RequireAdmin(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if err := s.repomanager.Admins(s.store.DB()).Rename(ctx, id.ID, name); err != nil {
		return err
	}
	s.log.Info(ctx, "admin renamed", "admin_id", id.ID, "name", name)
	return nil
}

// DeleteProfessor removes a professor account with its classes, chapters,
// documents and sessions in one unit of work. Blobs are removed afterwards.
func (s *UserService) DeleteProfessor(ctx context.Context, id access.Identity, professorID int64) error {
	if err := access.RequireAdmin(id); err != nil {
		return err
	}

	var orphans []string
	err := s.store.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Professors(tx).GetByID(ctx, professorID); err != nil {
			return err
		}

		classes, err := s.repomanager.Classes(tx).ListByProfessor(ctx, professorID)
		if err != nil {
			return err
		}
		for _, c := range classes {
			keys, err := deleteClassTree(ctx, s.repomanager, tx, c.ID)
			if err != nil {
				return err
			}
			orphans = append(orphans, keys...)
		}

		if err := s.repomanager.Sessions(tx).DeleteByOwner(ctx, models.OwnerProfessor, professorID); err != nil {
			return err
		}
		return s.repomanager.Professors(tx).Delete(ctx, professorID)
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, s.blobs, s.log, orphans)
	s.log.Info(ctx, "professor deleted", "prof_id", professorID, "blobs", len(orphans))
	return nil
}
