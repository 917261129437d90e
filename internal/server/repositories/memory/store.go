// Package memory keeps every repository in process memory. It backs the
// memory:// DSN used for local runs and for end-to-end tests of the services.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/admins"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/chapters"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/classes"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/documents"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/professors"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/settings"
)

type state struct {
	nextID     int64
	professors map[int64]models.Professor
	admins     map[int64]models.Admin
	sessions   map[string]models.Session
	classes    map[int64]models.Class
	chapters   map[int64]models.Chapter
	documents  map[int64]models.Document
	settings   *models.Settings
}

func newState() *state {
	return &state{
		professors: map[int64]models.Professor{},
		admins:     map[int64]models.Admin{},
		sessions:   map[string]models.Session{},
		classes:    map[int64]models.Class{},
		chapters:   map[int64]models.Chapter{},
		documents:  map[int64]models.Document{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	c := &state{
		nextID:     s.nextID,
		professors: cloneMap(s.professors),
		admins:     cloneMap(s.admins),
		sessions:   cloneMap(s.sessions),
		classes:    cloneMap(s.classes),
		chapters:   cloneMap(s.chapters),
		documents:  cloneMap(s.documents),
	}
	if s.settings != nil {
		st := *s.settings
		c.settings = &st
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store implements both dbx.Store and repomanager.RepositoryManager.
// Units of work run one at a time and are undone from a snapshot when fn
// fails. Repositories bound to any other handle wait for the open unit of
// work to finish, so a rollback never discards their writes.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	tx   dbx.DBTX
	now  func() time.Time
}

// txHandle marks repositories created inside WithTx. It is never queried.
type txHandle struct{ dbx.DBTX }

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), tx: &txHandle{}, now: time.Now}
}

// DB returns nil: repositories of this package do not use a SQL handle.
func (s *Store) DB() dbx.DBTX { return nil }

func (s *Store) WithTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(ctx, s.tx)
}

func (s *Store) restore(snap *state) {
	s.mu.Lock()
	s.st = snap
	s.mu.Unlock()
}

// with runs f on the current state under the data lock.
func (s *Store) with(f func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.st)
}

// view is the store as seen through one handle.
type view struct {
	*Store
	inTx bool
}

func (s *Store) view(db dbx.DBTX) view {
	return view{Store: s, inTx: db != nil && db == s.tx}
}

// with serialises calls made outside a unit of work with the open one.
func (v view) with(f func(st *state) error) error {
	if !v.inTx {
		v.txMu.Lock()
		defer v.txMu.Unlock()
	}
	return v.Store.with(f)
}

func (s *Store) Professors(db dbx.DBTX) professors.Repository { return &professorRepo{s.view(db)} }
func (s *Store) Admins(db dbx.DBTX) admins.Repository         { return &adminRepo{s.view(db)} }
func (s *Store) Sessions(db dbx.DBTX) sessions.Repository     { return &sessionRepo{s.view(db)} }
func (s *Store) Classes(db dbx.DBTX) classes.Repository       { return &classRepo{s.view(db)} }
func (s *Store) Chapters(db dbx.DBTX) chapters.Repository     { return &chapterRepo{s.view(db)} }
func (s *Store) Documents(db dbx.DBTX) documents.Repository   { return &documentRepo{s.view(db)} }
func (s *Store) Settings(db dbx.DBTX) settings.Repository     { return &settingsRepo{s.view(db)} }

// Cascades mirror the ON DELETE CASCADE foreign keys of the SQL schema.

func (st *state) dropChapter(id int64) {
	for did, d := range st.documents {
		if d.ChapterID == id {
			delete(st.documents, did)
		}
	}
	delete(st.chapters, id)
}

func (st *state) dropClass(id int64) {
	for cid, ch := range st.chapters {
		if ch.ClassID == id {
			st.dropChapter(cid)
		}
	}
	delete(st.classes, id)
}

func (st *state) dropProfessor(id int64) {
	for cid, c := range st.classes {
		if c.ProfessorID == id {
			st.dropClass(cid)
		}
	}
	for tok, sess := range st.sessions {
		if sess.OwnerKind == models.OwnerProfessor && sess.OwnerID == id {
			delete(st.sessions, tok)
		}
	}
	delete(st.professors, id)
}
