// Package server wires configuration, storage backends and services into
// the profdocs HTTP application and runs it until a termination signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/profdocs/internal/cryptox"
	"github.com/dmitrijs2005/profdocs/internal/dbx"
	"github.com/dmitrijs2005/profdocs/internal/logging"
	"github.com/dmitrijs2005/profdocs/internal/pdfstamp"
	"github.com/dmitrijs2005/profdocs/internal/server/blobstore"
	"github.com/dmitrijs2005/profdocs/internal/server/config"
	"github.com/dmitrijs2005/profdocs/internal/server/httpapi"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/memory"
	"github.com/dmitrijs2005/profdocs/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/profdocs/internal/server/services"
	"golang.org/x/sync/errgroup"
)

const memoryDSN = "memory://"

// Storage bundles the transaction runner and the repositories bound to it.
type Storage struct {
	Store      dbx.Store
	Repos      repomanager.RepositoryManager
	BlobStore  blobstore.Store
	closeDB    func() error
	inMemoryDB bool
}

// Close releases the database connection, if any.
func (s *Storage) Close() error {
	if s.closeDB == nil {
		return nil
	}
	return s.closeDB()
}

// OpenStorage selects the metadata and blob backends from cfg. A memory DSN
// keeps everything in process; otherwise PostgreSQL is opened through pgx and
// migrated. Blobs go to S3 unless no endpoint is configured.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	st := &Storage{}

	if strings.HasPrefix(cfg.DatabaseDSN, memoryDSN) {
		m := memory.New()
		st.Store, st.Repos, st.inMemoryDB = m, m, true
	} else {
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("db ping error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		st.Store, st.Repos, st.closeDB = dbx.NewSQLStore(db), rm, db.Close
	}

	if cfg.S3BaseEndpoint == "" {
		st.BlobStore = blobstore.NewMemoryStore()
		return st, nil
	}
	bs, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}
	st.BlobStore = bs
	return st, nil
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	storage  *Storage
	sessions *services.SessionService
	http     *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	st, err := OpenStorage(ctx, c)
	if err != nil {
		return nil, err
	}
	if st.inMemoryDB {
		logger.Warn(ctx, "using in-memory metadata store, data is lost on exit")
	}

	hashers := cryptox.DefaultHashers()
	pdf := pdfstamp.New()
	ticketSecret := []byte(c.TicketSecretKey)

	sessions := services.NewSessionService(st.Store, st.Repos, hashers.Account, c.SessionValidityDuration, logger)
	svc := httpapi.Services{
		Sessions:  sessions,
		Users:     services.NewUserService(st.Store, st.Repos, hashers, sessions, st.BlobStore, logger),
		Hierarchy: services.NewHierarchyService(st.Store, st.Repos, st.BlobStore, logger),
		Catalog:   services.NewCatalogService(st.Store, st.Repos),
		Documents: services.NewDocumentService(st.Store, st.Repos, st.BlobStore, pdf, hashers.Document,
			services.Limits{MaxBytes: c.MaxUploadBytes, MaxPages: c.MaxPages},
			services.TicketConfig{Secret: ticketSecret, Validity: c.UnlockTicketValidityDuration},
			logger),
		Delivery: services.NewDeliveryService(st.Store, st.Repos, st.BlobStore, pdf, hashers.Document, ticketSecret, logger),
		Settings: services.NewSettingsService(st.Store, st.Repos, hashers, logger),
	}

	hs, err := httpapi.NewHTTPServer(httpapi.Options{
		Address:         c.EndpointAddrHTTP,
		CookieName:      c.SessionCookieName,
		CookieHashKey:   []byte(c.CookieHashKey),
		CookieSecure:    c.CookieSecure,
		SessionValidity: c.SessionValidityDuration,
		MaxUploadBytes:  c.MaxUploadBytes,
	}, svc, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, storage: st, sessions: sessions, http: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and, when enabled, reaps expired sessions until ctx is
// cancelled or a signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP)
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.http.Run(gctx)
	})
	if app.config.SessionReapInterval > 0 {
		g.Go(func() error {
			return app.sessions.RunReaper(gctx, app.config.SessionReapInterval)
		})
	}

	err := g.Wait()
	if cerr := app.storage.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}
	if err != nil {
		app.logger.Error(ctx, "app stopped", "error", err)
		return err
	}
	app.logger.Info(ctx, "app stopped")
	return nil
}
