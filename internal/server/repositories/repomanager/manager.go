package repomanager

import (
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/admins"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/chapters"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/classes"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/documents"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/professors"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/settings"
)

// RepositoryManager vends repositories bound to a handle, either the plain
// database or a transaction opened by dbx.Store.WithTx.
type RepositoryManager interface {
	Professors(db dbx.DBTX) professors.Repository
	Admins(db dbx.DBTX) admins.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Classes(db dbx.DBTX) classes.Repository
	Chapters(db dbx.DBTX) chapters.Repository
	Documents(db dbx.DBTX) documents.Repository
	Settings(db dbx.DBTX) settings.Repository
}
