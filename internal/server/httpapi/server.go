// Package httpapi exposes the services over HTTP with gin. Sessions travel
// in a signed cookie; the token inside it is resolved to an identity by a
// middleware before any handler runs.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
)

const shutdownTimeout = 10 * time.Second

// multipartSlack is what a multipart envelope may add on top of the file.
const multipartSlack = 1 << 20

// Services are the use cases served by the API.
type Services struct {
	Sessions  *services.SessionService
	Users     *services.UserService
	Hierarchy *services.HierarchyService
	Catalog   *services.CatalogService
	Documents *services.DocumentService
	Delivery  *services.DeliveryService
	Settings  *services.SettingsService
}

// Options tune the transport.
type Options struct {
	Address         string
	CookieName      string
	CookieHashKey   []byte
	CookieSecure    bool
	SessionValidity time.Duration
	MaxUploadBytes  int64
}

type HTTPServer struct {
	opts    Options
	svc     Services
	cookies *securecookie.SecureCookie
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(opts Options, svc Services, l logging.Logger) (*HTTPServer, error) {
	if len(opts.CookieHashKey) == 0 {
		return nil, errors.New("cookie hash key is empty")
	}

	cookies := securecookie.New(opts.CookieHashKey, nil)
	cookies.MaxAge(int(opts.SessionValidity / time.Second))

	s := &HTTPServer{
		opts:    opts,
		svc:     svc,
		cookies: cookies,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the router, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog(), s.sessionMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/logout", s.logout)
	auth.POST("/register", s.register)
	auth.GET("/me", s.me)

	api.GET("/professors", s.listProfessors)
	api.GET("/professors/:id/classes", s.listClasses)
	api.GET("/me/classes", s.myClasses)

	api.POST("/classes", s.createClass)
	api.GET("/classes/:id/progression", s.progression)
	api.PATCH("/classes/:id", s.renameClass)
	api.DELETE("/classes/:id", s.deleteClass)
	api.POST("/classes/:id/chapters", s.addChapter)

	api.GET("/chapters/:id/documents", s.chapterDocuments)
	api.PATCH("/chapters/:id", s.renameChapter)
	api.DELETE("/chapters/:id", s.deleteChapter)

	api.POST("/upload", s.upload)
	api.POST("/documents/check-password", s.checkPassword)
	api.GET("/documents/:id", s.documentMetadata)
	api.GET("/documents/:id/download", s.download)
	api.DELETE("/documents/:id", s.deleteDocument)

	admin := api.Group("/admin")
	admin.GET("/overview", s.overview)
	admin.GET("/settings", s.getSettings)
	admin.PUT("/settings", s.updateSettings)
	admin.PATCH("/profile", s.renameAdmin)
	admin.DELETE("/professors/:id", s.deleteProfessor)

	return r
}
