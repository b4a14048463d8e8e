package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"littlebird/internal/domain"
	"littlebird/internal/service"
)

type Syncer interface {
	Run(ctx context.Context, action domain.SyncAction, q domain.SyncQuery) (any, error)
}

type SyncStateLister interface {
	List(ctx context.Context) ([]domain.SyncState, error)
}

type BillReader interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.Bill, error)
	Get(ctx context.Context, id int64) (*domain.Bill, error)
}

type LegislatorReader interface {
	List(ctx context.Context, f domain.ListFilter) ([]domain.Legislator, error)
	Get(ctx context.Context, id int64) (*domain.Legislator, error)
}

// UpstreamSearcher queries the legislative-data API without persisting.
type UpstreamSearcher interface {
	FetchBills(ctx context.Context, q domain.SyncQuery) ([]domain.Bill, error)
	FetchLegislators(ctx context.Context, q domain.SyncQuery) ([]domain.Legislator, error)
}

type Tracker interface {
	TrackBill(ctx context.Context, userID uuid.UUID, billID int64, in service.TrackBillInput) (*domain.TrackedBill, error)
	UntrackBill(ctx context.Context, userID uuid.UUID, billID int64) error
	ListBills(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedBill, error)
	TrackLegislator(ctx context.Context, userID uuid.UUID, legislatorID int64, in service.TrackLegislatorInput) (*domain.TrackedLegislator, error)
	UntrackLegislator(ctx context.Context, userID uuid.UUID, legislatorID int64) error
	ListLegislators(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedLegislator, error)
}

type ClientManager interface {
	Create(ctx context.Context, userID uuid.UUID, in service.ClientInput) (*domain.Client, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Client, error)
	Update(ctx context.Context, userID, id uuid.UUID, in service.ClientInput) (*domain.Client, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	LinkBill(ctx context.Context, userID, clientID uuid.UUID, billID int64) error
	UnlinkBill(ctx context.Context, userID, clientID uuid.UUID, billID int64) error
}

type NoteManager interface {
	Create(ctx context.Context, userID uuid.UUID, in service.NoteInput) (*domain.Note, error)
	List(ctx context.Context, userID uuid.UUID, billID, legislatorID *int64) ([]domain.Note, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	JWTSecret      string
}

// Deps are the services behind the routes. DB may be nil, in which case
// /ready always succeeds.
type Deps struct {
	Syncer      Syncer
	SyncState   SyncStateLister
	Bills       BillReader
	Legislators LegislatorReader
	Upstream    UpstreamSearcher
	Tracking    Tracker
	Clients     ClientManager
	Notes       NoteManager
	DB          Pinger
}

type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	deps       Deps
	auth       *AuthMiddleware
	logger     *slog.Logger
}

func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	logger = logger.With("component", "http")

	s := &Server{
		router: http.NewServeMux(),
		deps:   deps,
		auth:   NewAuthMiddleware(cfg.JWTSecret, logger),
		logger: logger,
	}
	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // full syncs run inside the request
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)

	authed := func(pattern string, h http.HandlerFunc) {
		s.router.Handle(pattern, s.auth.Authenticate(h))
	}

	authed("POST /api/v1/sync", s.handleSync)
	authed("GET /api/v1/sync/state", s.handleSyncState)

	authed("GET /api/v1/bills", s.handleListBills)
	authed("GET /api/v1/bills/{id}", s.handleGetBill)
	authed("GET /api/v1/legislators", s.handleListLegislators)
	authed("GET /api/v1/legislators/{id}", s.handleGetLegislator)

	authed("GET /api/v1/upstream/bills", s.handleUpstreamBills)
	authed("GET /api/v1/upstream/legislators", s.handleUpstreamLegislators)

	authed("GET /api/v1/me/bills", s.handleListTrackedBills)
	authed("PUT /api/v1/me/bills/{id}", s.handleTrackBill)
	authed("DELETE /api/v1/me/bills/{id}", s.handleUntrackBill)
	authed("GET /api/v1/me/legislators", s.handleListTrackedLegislators)
	authed("PUT /api/v1/me/legislators/{id}", s.handleTrackLegislator)
	authed("DELETE /api/v1/me/legislators/{id}", s.handleUntrackLegislator)

	authed("GET /api/v1/clients", s.handleListClients)
	authed("POST /api/v1/clients", s.handleCreateClient)
	authed("GET /api/v1/clients/{id}", s.handleGetClient)
	authed("PUT /api/v1/clients/{id}", s.handleUpdateClient)
	authed("DELETE /api/v1/clients/{id}", s.handleDeleteClient)
	authed("PUT /api/v1/clients/{id}/bills/{billID}", s.handleLinkClientBill)
	authed("DELETE /api/v1/clients/{id}/bills/{billID}", s.handleUnlinkClientBill)

	authed("GET /api/v1/notes", s.handleListNotes)
	authed("POST /api/v1/notes", s.handleCreateNote)
	authed("DELETE /api/v1/notes/{id}", s.handleDeleteNote)
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
