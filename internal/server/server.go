// ABOUTME: HTTP server wiring the icon asset store, folder store, and cleanup engine
// ABOUTME: Owns route registration, auth middleware selection, and lifecycle

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/2389/folder-icons/internal/assetstore"
	"github.com/2389/folder-icons/internal/auth"
	"github.com/2389/folder-icons/internal/cleanup"
	"github.com/2389/folder-icons/internal/config"
	"github.com/2389/folder-icons/internal/digestcache"
	"github.com/2389/folder-icons/internal/refindex"
	"github.com/2389/folder-icons/internal/store"
	"github.com/2389/folder-icons/internal/symbols"
	"github.com/2389/folder-icons/internal/upload"
)

// multipartOverhead is the request body allowance on top of the upload limit
// for multipart boundaries and part headers.
const multipartOverhead = 64 << 10

// Server serves the folder-icons HTTP API.
type Server struct {
	config   *config.Config
	store    store.Store
	assets   *assetstore.Store
	gate     *upload.Gate
	index    *refindex.Index
	cleanup  *cleanup.Engine
	catalog  *symbols.Catalog
	digests  *digestcache.Cache
	verifier auth.TokenVerifier
	uploads  *rate.Limiter

	httpServer *http.Server
	logger     *slog.Logger
}

// New opens the configured SQLite store and builds a Server around it.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	srv, err := NewWithStore(cfg, s, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	return srv, nil
}

// NewWithStore builds a Server over an existing store. The Server takes
// ownership of the store and closes it on Shutdown.
func NewWithStore(cfg *config.Config, s store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var verifier auth.TokenVerifier
	if cfg.AuthEnabled() {
		v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("creating JWT verifier: %w", err)
		}
		verifier = v
		logger.Info("JWT auth enabled")
	} else {
		logger.Warn("auth disabled - no jwt_secret configured")
	}

	assets := assetstore.New(cfg.Icons.Dir, logger)
	index := refindex.New(s)

	srv := &Server{
		config:   cfg,
		store:    s,
		assets:   assets,
		gate:     upload.NewGate(assets, cfg.Icons.MaxUploadSize, logger),
		index:    index,
		cleanup:  cleanup.New(assets, index, logger),
		catalog:  symbols.Load(cfg.Icons.SymbolsFile, logger),
		digests:  digestcache.New(digestcache.DefaultTTL, digestcache.DefaultMaxSize),
		verifier: verifier,
		uploads:  rate.NewLimiter(rate.Limit(cfg.Uploads.RatePerSecond), cfg.Uploads.Burst),
		logger:   logger.With("component", "server"),
	}

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// Cleanup returns the cleanup engine, for administrative commands.
func (s *Server) Cleanup() *cleanup.Engine {
	return s.cleanup
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	authn := auth.HTTPAuthMiddleware(s.verifier)
	authed := func(h http.HandlerFunc) http.Handler { return authn(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authn(auth.RequireAdminHTTP()(h)) }
	configure := func(h http.HandlerFunc) http.Handler { return authn(auth.RequireConfigureHTTP()(h)) }

	// Health and image serving - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /icons/{file}", s.handleServeIcon)

	// Assets
	mux.Handle("POST /api/icons", admin(s.handleUpload))
	mux.Handle("GET /api/icons", authed(s.handleListIcons))
	mux.Handle("GET /api/icons/usage", admin(s.handleUsage))
	mux.Handle("POST /api/icons/cleanup", admin(s.handleSweep))
	mux.Handle("GET /api/icons/{identity}", authed(s.handleIconInfo))
	mux.Handle("GET /api/symbols", authed(s.handleListSymbols))

	// Folders
	mux.Handle("POST /api/folders", admin(s.handleCreateFolder))
	mux.Handle("GET /api/folders", authed(s.handleListFolders))
	mux.Handle("GET /api/folders/{id}", authed(s.handleGetFolder))
	mux.Handle("DELETE /api/folders/{id}", configure(s.handleDeleteFolder))
	mux.Handle("PUT /api/folders/{id}/icon", configure(s.handleSetIcon))
	mux.Handle("POST /api/folders/{id}/icon/upload", configure(s.handleFolderUpload))
	mux.Handle("GET /api/folders/{id}/status", authed(s.handleStatus))

	// CI engine feed
	mux.Handle("PUT /api/folders/{id}/jobs/{name}", admin(s.handleUpsertJob))
	mux.Handle("POST /api/folders/{id}/jobs/{name}/runs", admin(s.handleRecordRun))

	return mux
}

// Run serves HTTP until ctx is canceled or the server fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Server.HTTPAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// The original context is already canceled, so shut down on a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "store close", s.store.Close())
	s.digests.Close()

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// appendCloseError appends a labeled error if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
