package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/common"
	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/pdfstamp"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/memory"
	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- helpers ---

const (
	cookieName = "mu_session"
	passphrase = "open sesame"
)

type pagesPDF struct{}

func (pagesPDF) PageCount(pdf []byte) (int, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return 0, common.ErrMalformedDocument
	}
	return bytes.Count(pdf, []byte("/Page ")), nil
}

func (pagesPDF) Stamp(pdf []byte, f pdfstamp.Footer) ([]byte, error) {
	return append(append([]byte{}, pdf...), f.Text()...), nil
}

func pdfBody(pages int) []byte {
	return []byte("%PDF-1.4\n" + strings.Repeat("/Type /Page \n", pages))
}

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	log := logging.Nop{}
	store := memory.New()
	blobs := blobstore.NewMemoryStore()
	hashers := cryptox.NewHashers(cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32})
	ticketKey := []byte("ticket-key")

	sessions := services.NewSessionService(store, store, hashers.Account, time.Hour, log)
	svc := Services{
		Sessions:  sessions,
		Users:     services.NewUserService(store, store, hashers, sessions, blobs, log),
		Hierarchy: services.NewHierarchyService(store, store, blobs, log),
		Catalog:   services.NewCatalogService(store, store),
		Documents: services.NewDocumentService(store, store, blobs, pagesPDF{}, hashers.Document,
			services.Limits{MaxBytes: 1 << 16, MaxPages: 10},
			services.TicketConfig{Secret: ticketKey, Validity: time.Minute}, log),
		Delivery: services.NewDeliveryService(store, store, blobs, pagesPDF{}, hashers.Document, ticketKey, log),
		Settings: services.NewSettingsService(store, store, hashers, log),
	}
	require.NoError(t, svc.Settings.Seed(context.Background(), services.SeedRequest{
		Passphrase: passphrase, AdminName: "root", AdminPassword: "rootpw",
	}))

	s, err := NewHTTPServer(Options{
		CookieName:      cookieName,
		CookieHashKey:   []byte("0123456789abcdef0123456789abcdef"),
		SessionValidity: time.Hour,
		MaxUploadBytes:  1 << 16,
	}, svc, log)
	require.NoError(t, err)
	return s
}

type client struct {
	t      *testing.T
	s      *HTTPServer
	cookie *http.Cookie
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	cl.t.Helper()
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	w := httptest.NewRecorder()
	cl.s.Handler().ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			cl.cookie = c
		}
	}
	return w
}

func (cl *client) send(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(cl.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return cl.do(req)
}

func (cl *client) upload(fields map[string]string, filename, contentType string, body []byte) *httptest.ResponseRecorder {
	cl.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(cl.t, mw.WriteField(k, v))
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(cl.t, err)
	_, err = part.Write(body)
	require.NoError(cl.t, err)
	require.NoError(cl.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return cl.do(req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func registered(t *testing.T, s *HTTPServer, name string) *client {
	t.Helper()
	cl := &client{t: t, s: s}
	w := cl.send(http.MethodPost, "/api/auth/register", registerRequest{Name: name, Password: name + "-pw", Passphrase: passphrase})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, cl.cookie)
	return cl
}

// --- tests ---

func TestNewHTTPServer_RequiresHashKey(t *testing.T) {
	_, err := NewHTTPServer(Options{CookieName: cookieName}, Services{}, logging.Nop{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	cl := &client{t: t, s: newTestServer(t)}
	w := cl.send(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestLoginMeLogout(t *testing.T) {
	s := newTestServer(t)
	cl := &client{t: t, s: s}

	w := cl.send(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = cl.send(http.MethodPost, "/api/auth/login", loginRequest{Name: "root", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode[errorResponse](t, w).Error)

	w = cl.send(http.MethodPost, "/api/auth/login", loginRequest{Name: "root", Password: "rootpw"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, cl.cookie)
	assert.True(t, cl.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cl.cookie.SameSite)

	w = cl.send(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[principalResponse](t, w)
	assert.Equal(t, "admin", me.Kind)
	assert.Equal(t, "root", me.Name)

	session := cl.cookie
	w = cl.send(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The old cookie no longer resolves.
	cl.cookie = session
	w = cl.send(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	s := newTestServer(t)
	cl := &client{t: t, s: s, cookie: &http.Cookie{Name: cookieName, Value: "forged"}}

	w := cl.send(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	alice := registered(t, s, "Alice")

	w := alice.send(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, "professor", decode[principalResponse](t, w).Kind)

	cl := &client{t: t, s: s}
	w = cl.send(http.MethodPost, "/api/auth/register", registerRequest{Name: "Bob", Password: "x", Passphrase: "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = cl.send(http.MethodPost, "/api/auth/register", registerRequest{Name: "Alice", Password: "x", Passphrase: passphrase})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = cl.send(http.MethodPost, "/api/auth/register", map[string]string{"name": "Bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHierarchyFlow(t *testing.T) {
	s := newTestServer(t)
	alice := registered(t, s, "Alice")
	bob := registered(t, s, "Bob")

	w := alice.send(http.MethodPost, "/api/classes", createClassRequest{Name: "TermA"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	class := decode[classResponse](t, w)
	require.Len(t, class.Chapters, 2)
	assert.False(t, class.Chapters[0].Deletable)

	w = alice.send(http.MethodPost, fmt.Sprintf("/api/classes/%d/chapters", class.ID), chapterRequest{Title: "Limits"})
	require.Equal(t, http.StatusCreated, w.Code)
	ch := decode[chapterResponse](t, w)
	assert.Equal(t, 3, ch.Number)
	assert.True(t, ch.Deletable)

	w = alice.send(http.MethodDelete, fmt.Sprintf("/api/chapters/%d", class.Chapters[0].ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "protected_chapter", decode[errorResponse](t, w).Error)

	w = bob.send(http.MethodDelete, fmt.Sprintf("/api/chapters/%d", ch.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = alice.send(http.MethodPatch, fmt.Sprintf("/api/classes/%d", class.ID), renameRequest{Name: "TermB"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	anon := &client{t: t, s: s}
	w = anon.send(http.MethodGet, fmt.Sprintf("/api/classes/%d/progression", class.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[progressionResponse](t, w)
	assert.Equal(t, "Alice", p.Professor)
	assert.Equal(t, "TermB", p.Class.Name)
	assert.Len(t, p.Class.Chapters, 3)

	w = anon.send(http.MethodPost, "/api/classes", createClassRequest{Name: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = alice.send(http.MethodGet, "/api/me/classes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]classResponse](t, w), 1)

	w = anon.send(http.MethodGet, "/api/classes/abc/progression", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentFlow(t *testing.T) {
	s := newTestServer(t)
	alice := registered(t, s, "Alice")
	anon := &client{t: t, s: s}

	w := alice.send(http.MethodPost, "/api/classes", createClassRequest{Name: "TermA"})
	require.Equal(t, http.StatusCreated, w.Code)
	class := decode[classResponse](t, w)
	chapterID := fmt.Sprint(class.Chapters[0].ID)

	w = alice.upload(map[string]string{"chapterId": chapterID, "type": "homework"}, "a.pdf", "application/pdf", pdfBody(1))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = alice.upload(map[string]string{"chapterId": chapterID, "type": "cours"}, "a.png", "image/png", pdfBody(1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = alice.upload(map[string]string{"chapterId": chapterID, "type": "cours"}, "a.pdf", "application/pdf", pdfBody(11))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = alice.upload(map[string]string{"chapterId": chapterID, "type": "cours"}, "big.pdf", "application/pdf", append(pdfBody(1), make([]byte, 1<<16)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	w = anon.upload(map[string]string{"chapterId": chapterID, "type": "cours"}, "a.pdf", "application/pdf", pdfBody(1))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = alice.upload(map[string]string{
		"chapterId": chapterID, "type": "cours", "isProtected": "true", "password": "secret",
	}, "Cours 1.pdf", "application/pdf", pdfBody(2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	up := decode[uploadResponse](t, w)
	assert.Equal(t, 2, up.Pages)
	assert.Equal(t, "Cours 1", up.Document.Title)
	docPath := fmt.Sprintf("/api/documents/%d", up.DocumentID)

	w = anon.send(http.MethodGet, docPath, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e := decode[errorResponse](t, w)
	assert.Equal(t, "password_required", e.Error)
	assert.True(t, e.RequiresPassword)
	w = anon.send(http.MethodGet, docPath+"?password=wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e = decode[errorResponse](t, w)
	assert.Equal(t, "wrong_password", e.Error)
	assert.False(t, e.RequiresPassword)
	w = anon.send(http.MethodGet, docPath+"?password=secret", nil)
	require.Equal(t, http.StatusOK, w.Code)
	md := decode[metadataResponse](t, w)
	assert.NotEmpty(t, md.BlobLocator)
	assert.Equal(t, "Alice", md.Chapter.Class.Prof.Name)

	// The owner goes through the gate too.
	w = alice.send(http.MethodGet, docPath+"/download", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e = decode[errorResponse](t, w)
	assert.Equal(t, "password_required", e.Error)
	assert.True(t, e.RequiresPassword)

	// A blank password counts as absent.
	w = anon.send(http.MethodGet, docPath+"/download?password=", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "password_required", decode[errorResponse](t, w).Error)
	w = anon.send(http.MethodGet, docPath+"/download?password=%20%20", nil)
	assert.Equal(t, "password_required", decode[errorResponse](t, w).Error)

	w = anon.send(http.MethodGet, docPath+"/download?password=wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "wrong_password", decode[errorResponse](t, w).Error)

	w = anon.send(http.MethodGet, docPath+"/download?password=secret", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Alice - TermA - Chapitre 1: Chapitre 1 - Cours 1")

	w = anon.send(http.MethodPost, "/api/documents/check-password", checkPasswordRequest{DocumentID: up.DocumentID, Password: "wrong"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[checkPasswordResponse](t, w).OK)

	w = anon.send(http.MethodPost, "/api/documents/check-password", checkPasswordRequest{DocumentID: up.DocumentID, Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	cp := decode[checkPasswordResponse](t, w)
	require.True(t, cp.OK)
	require.NotEmpty(t, cp.Ticket)

	req := httptest.NewRequest(http.MethodGet, docPath+"/download", nil)
	req.Header.Set(ticketHeader, cp.Ticket)
	w = anon.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = anon.send(http.MethodDelete, docPath, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = alice.send(http.MethodDelete, docPath, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = anon.send(http.MethodGet, docPath+"/download?password=secret", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := registered(t, s, "Alice")
	admin := &client{t: t, s: s}
	w := admin.send(http.MethodPost, "/api/auth/login", loginRequest{Name: "root", Password: "rootpw"})
	require.Equal(t, http.StatusOK, w.Code)

	w = alice.send(http.MethodGet, "/api/admin/overview", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = admin.send(http.MethodGet, "/api/admin/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	o := decode[overviewResponse](t, w)
	require.Len(t, o.Professors, 1)
	assert.Equal(t, services.DefaultMaxProfessors, o.Settings.MaxProfessors)

	limit := 1
	w = admin.send(http.MethodPut, "/api/admin/settings", settingsRequest{MaxProfessors: &limit})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[settingsResponse](t, w).MaxProfessors)

	cl := &client{t: t, s: s}
	w = cl.send(http.MethodPost, "/api/auth/register", registerRequest{Name: "Bob", Password: "x", Passphrase: passphrase})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "limit_exceeded", decode[errorResponse](t, w).Error)

	w = admin.send(http.MethodDelete, fmt.Sprintf("/api/admin/professors/%d", o.Professors[0].ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = alice.send(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = admin.send(http.MethodPatch, "/api/admin/profile", renameRequest{Name: "boss"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{common.ErrInvalidPassphrase, http.StatusForbidden, "invalid_passphrase"},
		{common.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("chapter 3: %w", common.ErrNotFound), http.StatusNotFound, "not_found"},
		{common.ErrConflict, http.StatusConflict, "conflict"},
		{common.ErrProtectedChapter, http.StatusUnprocessableEntity, "protected_chapter"},
		{common.ErrInvariantViolation, http.StatusUnprocessableEntity, "invariant_violation"},
		{common.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, "document_too_large"},
		{fmt.Errorf("%w: x", common.ErrUpstreamUnavailable), http.StatusBadGateway, "upstream_unavailable"},
		{common.ErrMissingSettings, http.StatusInternalServerError, "missing_settings"},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := statusOf(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
