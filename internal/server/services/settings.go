package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
)

// Seed defaults.
const (
	DefaultMaxProfessors          = 10
	DefaultMaxClassesPerProfessor = 10
)

// SettingsView is what admins see of the settings row. The passphrase
// digest is never shown.
type SettingsView struct {
	MaxProfessors          int
	MaxClassesPerProfessor int
	UpdatedAt              time.Time
}

// SettingsUpdate changes the fields that are set.
type SettingsUpdate struct {
	Passphrase             *string
	MaxProfessors          *int
	MaxClassesPerProfessor *int
}

// ProfessorOverview is one professor with its classes.
type ProfessorOverview struct {
	ID      int64
	Name    string
	Classes []*models.Class
}

// Overview is the admin dashboard.
type Overview struct {
	Professors []*ProfessorOverview
	Settings   SettingsView
}

// SeedRequest bootstraps an empty database.
type SeedRequest struct {
	Passphrase             string
	AdminName              string
	AdminPassword          string
	MaxProfessors          int
	MaxClassesPerProfessor int
}

// SettingsService manages the singleton settings row and the admin
// overview.
type SettingsService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	hashers     cryptox.Hashers
	log         logging.Logger
}

func NewSettingsService(store dbx.Store, rm repomanager.RepositoryManager, hashers cryptox.Hashers, log logging.Logger) *SettingsService {
	return &SettingsService{store: store, repomanager: rm, hashers: hashers, log: log}
}

func view(s *models.Settings) SettingsView {
	return SettingsView{
		MaxProfessors:          s.MaxProfessors,
		MaxClassesPerProfessor: s.MaxClassesPerProfessor,
		UpdatedAt:              s.UpdatedAt,
	}
}

func (s *SettingsService) Get(ctx context.Context, id access.Identity) (*SettingsView, error) {
	if err := access.RequireAdmin(id); err != nil {
		return nil, err
	}
	st, err := loadSettings(ctx, s.repomanager, s.store.DB())
	if err != nil {
		return nil, err
	}
	v := view(st)
	return &v, nil
}

// Update applies u. A new passphrase is hashed before it is stored.
func (s *SettingsService) Update(ctx context.Context, id access.Identity, u SettingsUpdate) (*SettingsView, error) {
	if err := access.RequireAdmin(id); err != nil {
		return nil, err
	}
	if u.MaxProfessors != nil && *u.MaxProfessors < 0 {
		return nil, fmt.Errorf("%w: max professors must not be negative", common.ErrValidation)
	}
	if u.MaxClassesPerProfessor != nil && *u.MaxClassesPerProfessor < 0 {
		return nil, fmt.Errorf("%w: max classes must not be negative", common.ErrValidation)
	}

	var digest string
	if u.Passphrase != nil {
		p := strings.TrimSpace(*u.Passphrase)
		if p == "" {
			return nil, fmt.Errorf("%w: passphrase must not be empty", common.ErrValidation)
		}
		var err error
		if digest, err = s.hashers.Passphrase.Digest(p); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
		}
	}

	var out SettingsView
	err := s.store.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st, err := loadSettings(ctx, s.repomanager, tx)
		if err != nil {
			return err
		}
		if digest != "" {
			st.SignupPassphraseDigest = digest
		}
		if u.MaxProfessors != nil {
			st.MaxProfessors = *u.MaxProfessors
		}
		if u.MaxClassesPerProfessor != nil {
			st.MaxClassesPerProfessor = *u.MaxClassesPerProfessor
		}
		if err := s.repomanager.Settings(tx).Upsert(ctx, st); err != nil {
			return err
		}
		out = view(st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "settings updated", "by", id.String(), "passphrase_changed", digest != "")
	return &out, nil
}

// Overview lists every professor with its classes, plus the settings.
func (s *SettingsService) Overview(ctx context.Context, id access.Identity) (*Overview, error) {
	if err := access.RequireAdmin(id); err != nil {
		return nil, err
	}
	db := s.store.DB()

	st, err := loadSettings(ctx, s.repomanager, db)
	if err != nil {
		return nil, err
	}
	profs, err := s.repomanager.Professors(db).List(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := s.repomanager.Classes(db).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[int64][]*models.Class, len(profs))
	for _, c := range classes {
		byOwner[c.ProfessorID] = append(byOwner[c.ProfessorID], c)
	}

	out := &Overview{Settings: view(st), Professors: make([]*ProfessorOverview, 0, len(profs))}
	for _, p := range profs {
		out.Professors = append(out.Professors, &ProfessorOverview{ID: p.ID, Name: p.Name, Classes: byOwner[p.ID]})
	}
	return out, nil
}

// Seed writes the settings row and creates or resets the admin account.
func (s *SettingsService) Seed(ctx context.Context, req SeedRequest) error {
	req.AdminName = strings.TrimSpace(req.AdminName)
	req.Passphrase = strings.TrimSpace(req.Passphrase)
	if req.AdminName == "" || req.AdminPassword == "" || req.Passphrase == "" {
		return fmt.Errorf("%w: admin name, admin password and passphrase are required", common.ErrValidation)
	}
	if req.MaxProfessors <= 0 {
		req.MaxProfessors = DefaultMaxProfessors
	}
	if req.MaxClassesPerProfessor <= 0 {
		req.MaxClassesPerProfessor = DefaultMaxClassesPerProfessor
	}

	passphrase, err := s.hashers.Passphrase.Digest(req.Passphrase)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	password, err := s.hashers.Account.Digest(req.AdminPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	err = s.store.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Settings(tx).Upsert(ctx, &models.Settings{
			SignupPassphraseDigest: passphrase,
			MaxProfessors:          req.MaxProfessors,
			MaxClassesPerProfessor: req.MaxClassesPerProfessor,
		}); err != nil {
			return err
		}
		_, err := s.repomanager.Admins(tx).Upsert(ctx, &models.Admin{Name: req.AdminName, PasswordDigest: password})
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "database seeded", "admin", req.AdminName, "max_professors", req.MaxProfessors, "max_classes", req.MaxClassesPerProfessor)
	return nil
}
