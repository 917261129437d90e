package dbx

import (
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/profdocs/internal/common"
)

// ExpectOneRow turns a result that touched no row into common.ErrNotFound.
func ExpectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
