package access

import (
	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

// RequireProfessor returns the professor id of id, or the error a caller
// with another identity gets.
func RequireProfessor(id Identity) (int64, error) {
	switch id.Kind {
	case Professor:
		return id.ID, nil
	case Admin:
		return 0, common.ErrForbidden
	default:
		return 0, common.ErrUnauthenticated
	}
}

// RequireAdmin allows administrative operations.
func RequireAdmin(id Identity) error {
	switch id.Kind {
	case Admin:
		return nil
	case Professor:
		return common.ErrForbidden
	default:
		return common.ErrUnauthenticated
	}
}

// AuthorizeManage allows the owning professor to manage a resource whose
// transitive owner is ownerID. A different professor gets ErrNotFound so
// the resource's existence does not leak.
func AuthorizeManage(id Identity, ownerID int64) error {
	profID, err := RequireProfessor(id)
	if err != nil {
		return err
	}
	if profID != ownerID {
		return common.ErrNotFound
	}
	return nil
}

// AuthorizeList allows the owner and any admin to list a professor's content.
func AuthorizeList(id Identity, ownerID int64) error {
	if id.Kind == Admin {
		return nil
	}
	return AuthorizeManage(id, ownerID)
}

// AuthorizeRegistration checks the signup gates that do not depend on the
// requested name.
func AuthorizeRegistration(passphraseMatches bool, professorCount int, s *models.Settings) error {
	if !passphraseMatches {
		return common.ErrInvalidPassphrase
	}
	if professorCount >= s.MaxProfessors {
		return common.ErrLimitExceeded
	}
	return nil
}

// AuthorizeClassCreation checks the per-professor class ceiling.
func AuthorizeClassCreation(id Identity, classCount int, s *models.Settings) error {
	if _, err := RequireProfessor(id); err != nil {
		return err
	}
	if classCount >= s.MaxClassesPerProfessor {
		return common.ErrLimitExceeded
	}
	return nil
}
