package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/server/access"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/models"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chapterNumbers(t *testing.T, e *env, classID int64) []int {
	t.Helper()
	chs, err := e.store.Chapters(nil).ListByClass(context.Background(), classID)
	require.NoError(t, err)
	out := make([]int, 0, len(chs))
	for _, c := range chs {
		out = append(out, c.Number)
	}
	return out
}

// Scenario A.
func TestHierarchy_ClassLifecycle(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	ctx := context.Background()

	class := e.class(t, alice, "TermA")
	require.Len(t, class.Chapters, 2)
	assert.Equal(t, 1, class.Chapters[0].Number)
	assert.Equal(t, 2, class.Chapters[1].Number)
	assert.Equal(t, "Chapitre 1", class.Chapters[0].Title)

	limits, err := e.hierarchy.AddChapter(ctx, alice, class.ID, "Limits")
	require.NoError(t, err)
	assert.Equal(t, 3, limits.Number)
	assert.Equal(t, "Limits", limits.Title)

	for _, ch := range class.Chapters {
		err := e.hierarchy.DeleteChapter(ctx, alice, ch.ID)
		assert.ErrorIs(t, err, common.ErrProtectedChapter)
		assert.ErrorIs(t, err, common.ErrInvariantViolation)
	}
	assert.Equal(t, []int{1, 2, 3}, chapterNumbers(t, e, class.ID))
}

func TestCreateClass_Titles(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")

	class := e.class(t, alice, " Algebra ", "Sets", " ", "Groups")
	assert.Equal(t, "Algebra", class.Name)

	got := make([]string, 0, len(class.Chapters))
	for _, ch := range class.Chapters {
		got = append(got, ch.Title)
	}
	if diff := cmp.Diff([]string{"Sets", "Chapitre 2", "Groups"}, got); diff != "" {
		t.Errorf("chapter titles mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1, 2, 3}, chapterNumbers(t, e, class.ID))
}

func TestCreateClass_Rejections(t *testing.T) {
	e := newEnv(t)
	admin := e.seed(t, 10, 1)
	alice := e.register(t, "Alice")
	ctx := context.Background()

	_, err := e.hierarchy.CreateClass(ctx, access.AnonymousIdentity, "x", nil)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	_, err = e.hierarchy.CreateClass(ctx, admin, "x", nil)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = e.hierarchy.CreateClass(ctx, alice, "  ", nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	e.class(t, alice, "First")
	_, err = e.hierarchy.CreateClass(ctx, alice, "Second", nil)
	assert.ErrorIs(t, err, common.ErrLimitExceeded)

	n, err := e.store.Classes(nil).CountByProfessor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddChapter_NumbersPastTheHighest(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	ctx := context.Background()

	class := e.class(t, alice, "TermA", "a", "b", "c", "d", "e", "f")
	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, class.Chapters[2].ID))
	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, class.Chapters[3].ID))
	require.Equal(t, []int{1, 2, 5, 6}, chapterNumbers(t, e, class.ID))

	ch, err := e.hierarchy.AddChapter(ctx, alice, class.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 7, ch.Number)
	assert.Equal(t, "Chapitre 7", ch.Title)

	// Retiring the top chapters lowers the max, so their numbers come back.
	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, ch.ID))
	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, class.Chapters[5].ID))
	ch, err = e.hierarchy.AddChapter(ctx, alice, class.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 6, ch.Number)
}

func TestAddChapter_ReusesRetiredTopNumber(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	ctx := context.Background()

	class := e.class(t, alice, "TermA", "a", "b", "c")
	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, class.Chapters[2].ID))

	ch, err := e.hierarchy.AddChapter(ctx, alice, class.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 3, ch.Number)
	assert.NotEqual(t, class.Chapters[2].ID, ch.ID)

	// A gap below the max stays open.
	_, err = e.hierarchy.AddChapter(ctx, alice, class.ID, "")
	require.NoError(t, err)
	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, ch.ID))
	ch, err = e.hierarchy.AddChapter(ctx, alice, class.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 5, ch.Number)
	assert.Equal(t, []int{1, 2, 4, 5}, chapterNumbers(t, e, class.ID))
}

func TestAddChapter_Concurrent(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	class := e.class(t, alice, "TermA")

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := e.hierarchy.AddChapter(context.Background(), alice, class.ID, "")
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, chapterNumbers(t, e, class.ID))
}

func TestHierarchy_OwnershipIsMasked(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	bob := e.register(t, "Bob")
	ctx := context.Background()

	class := e.class(t, alice, "TermA", "a", "b", "c")

	_, err := e.hierarchy.AddChapter(ctx, bob, class.ID, "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, e.hierarchy.RenameClass(ctx, bob, class.ID, "x"), common.ErrNotFound)
	assert.ErrorIs(t, e.hierarchy.RenameChapter(ctx, bob, class.Chapters[0].ID, "x"), common.ErrNotFound)
	assert.ErrorIs(t, e.hierarchy.DeleteChapter(ctx, bob, class.Chapters[2].ID), common.ErrNotFound)
	assert.ErrorIs(t, e.hierarchy.DeleteClass(ctx, bob, class.ID), common.ErrNotFound)

	_, err = e.hierarchy.AddChapter(ctx, access.AnonymousIdentity, class.ID, "x")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	assert.Equal(t, []int{1, 2, 3}, chapterNumbers(t, e, class.ID))
}

func TestRename(t *testing.T) {
	e := newEnv(t)
	admin := e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	ctx := context.Background()
	class := e.class(t, alice, "TermA")

	require.NoError(t, e.hierarchy.RenameClass(ctx, alice, class.ID, "TermB"))
	require.NoError(t, e.hierarchy.RenameClass(ctx, admin, class.ID, "TermC"))
	assert.ErrorIs(t, e.hierarchy.RenameClass(ctx, alice, class.ID, " "), common.ErrValidation)

	got, err := e.store.Classes(nil).GetByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, "TermC", got.Name)

	// Protected chapters keep an editable title.
	require.NoError(t, e.hierarchy.RenameChapter(ctx, alice, class.Chapters[0].ID, "Intro"))
	ch, err := e.store.Chapters(nil).GetByID(ctx, class.Chapters[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", ch.Title)

	assert.ErrorIs(t, e.hierarchy.RenameChapter(ctx, admin, class.Chapters[0].ID, "x"), common.ErrForbidden)
	assert.ErrorIs(t, e.hierarchy.RenameChapter(ctx, alice, 9999, "x"), common.ErrNotFound)
}

func TestDeleteChapter_RemovesDocumentsAndBlobs(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	ctx := context.Background()

	class := e.class(t, alice, "TermA", "a", "b", "c")
	doc := e.upload(t, alice, class.Chapters[2].ID, "gone", "")
	kept := e.upload(t, alice, class.Chapters[0].ID, "kept", "")
	require.Equal(t, 2, e.blobs.Len())

	require.NoError(t, e.hierarchy.DeleteChapter(ctx, alice, class.Chapters[2].ID))

	_, err := e.store.Documents(nil).GetByID(ctx, doc.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = e.store.Documents(nil).GetByID(ctx, kept.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, e.blobs.Len())
}

func TestDeleteClass(t *testing.T) {
	e := newEnv(t)
	admin := e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	ctx := context.Background()

	mine := e.class(t, alice, "Mine")
	e.upload(t, alice, mine.Chapters[1].ID, "d", "")
	other := e.class(t, alice, "Other")
	e.upload(t, alice, other.Chapters[0].ID, "d", "pw")

	require.NoError(t, e.hierarchy.DeleteClass(ctx, alice, mine.ID))
	require.NoError(t, e.hierarchy.DeleteClass(ctx, admin, other.ID))
	assert.Equal(t, 0, e.blobs.Len())

	classes, err := e.store.Classes(nil).ListByProfessor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, classes)
	assert.ErrorIs(t, e.hierarchy.DeleteClass(ctx, admin, mine.ID), common.ErrNotFound)
}

func TestDeleteClass_BlobFailureDoesNotFail(t *testing.T) {
	e := newEnv(t)
	e.seed(t, 10, 10)
	alice := e.register(t, "Alice")
	class := e.class(t, alice, "Mine")
	e.upload(t, alice, class.Chapters[0].ID, "d", "")

	h := NewHierarchyService(e.store, e.store, failingBlobs{err: errBoom}, logging.Nop{})
	require.NoError(t, h.DeleteClass(context.Background(), alice, class.ID))

	_, err := e.store.Classes(nil).GetByID(context.Background(), class.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAddChapter_LocksClassRow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	h := NewHierarchyService(dbx.NewSQLStore(db), repomanager.NewPostgresRepositoryManager(), blobstore.NewMemoryStore(), logging.Nop{})
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM classes WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "professor_id", "created_at"}).AddRow(4, "TermA", 7, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(number), 0) FROM chapters WHERE class_id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(6))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO chapters`)).
		WithArgs(int64(4), 7, "Limits").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(30, now))
	mock.ExpectCommit()

	ch, err := h.AddChapter(context.Background(), access.ProfessorIdentity(7), 4, "Limits")
	require.NoError(t, err)
	assert.Equal(t, &models.Chapter{ID: 30, ClassID: 4, Number: 7, Title: "Limits", CreatedAt: now}, ch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteChapter_ProtectedRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	h := NewHierarchyService(dbx.NewSQLStore(db), repomanager.NewPostgresRepositoryManager(), blobstore.NewMemoryStore(), logging.Nop{})
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM chapters WHERE id = $1`)).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "number", "title", "created_at"}).AddRow(11, 4, 2, "Chapitre 2", now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM classes WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "professor_id", "created_at"}).AddRow(4, "TermA", 7, now))
	mock.ExpectRollback()

	err = h.DeleteChapter(context.Background(), access.ProfessorIdentity(7), 11)
	assert.ErrorIs(t, err, common.ErrProtectedChapter)
	assert.NoError(t, mock.ExpectationsWereMet())
}
