package access

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
)

// Gate is the document protection gate. It ignores the caller identity:
// owners of a protected document must present its password too.
type Gate struct {
	hasher *cryptox.Hasher
}

func NewGate(h *cryptox.Hasher) *Gate {
	return &Gate{hasher: h}
}

// AuthorizeRetrieval returns nil when doc may be disclosed. A protected
// document without a candidate yields ErrPasswordRequired; a candidate
// that does not match after trimming yields ErrWrongPassword.
func (g *Gate) AuthorizeRetrieval(doc *models.Document, candidate *string) error {
	if !doc.IsProtected {
		return nil
	}
	if candidate == nil {
		return common.ErrPasswordRequired
	}

	ok, err := g.hasher.Verify(strings.TrimSpace(*candidate), doc.PasswordDigest)
	if err != nil {
		return fmt.Errorf("%w: document %d: %v", common.ErrInternal, doc.ID, err)
	}
	if !ok {
		return common.ErrWrongPassword
	}
	return nil
}
