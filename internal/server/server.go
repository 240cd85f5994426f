package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/securenotes/apiserver/config"
	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/auth"
	"github.com/securenotes/apiserver/internal/db"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/handlers"
	"github.com/securenotes/apiserver/internal/mq"
	"github.com/securenotes/apiserver/internal/services"
	"github.com/securenotes/apiserver/internal/storage"
	"github.com/securenotes/apiserver/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	events     *audit.Dispatcher
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Users    *services.UserService
	Notes    *services.NoteService
	Exports  *services.ExportService
	Verifier *auth.CredentialVerifier
	Resolver *auth.IdentityResolver
	Codec    *auth.TokenCodec
	Policy   *auth.Policy
	Events   audit.Emitter
	DB       handlers.Pinger
}

// New wires storage, the security pipeline and the HTTP routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	codec, err := auth.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Expiration)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		closeBroker(broker)
		_ = dbConn.Close()
		return nil, err
	}

	sinks := audit.MultiSink{audit.LogSink{Logger: slog.Default()}}
	if broker != nil {
		sinks = append(sinks, audit.PublisherSink{Publisher: broker, Channel: cfg.Audit.Channel})
	}
	events := audit.NewDispatcher(audit.Config{BufferSize: cfg.Audit.BufferSize, DropIfFull: true}, sinks)

	userRepo := store.NewUserRepository(dbConn)
	roleRepo := store.NewRoleRepository(dbConn)
	noteRepo := store.NewNoteRepository(dbConn)

	encoder := auth.NewPasswordEncoder(bcrypt.DefaultCost)
	noteService := services.NewNoteService(noteRepo)

	var exportStore services.ExportStore
	if objects != nil {
		exportStore = objects
	}

	router := NewRouter(Dependencies{
		Users:    services.NewUserService(userRepo, roleRepo, encoder),
		Notes:    noteService,
		Exports:  services.NewExportService(noteService, exportStore),
		Verifier: auth.NewCredentialVerifier(userRepo, encoder),
		Resolver: auth.NewIdentityResolver(userRepo),
		Codec:    codec,
		Policy:   auth.DefaultPolicy(),
		Events:   events,
		DB:       dbConn,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server configured",
		"port", port,
		"jwt_alg", codec.Algorithm(),
		"jwt_ttl", codec.TTL(),
		"audit_backend", cfg.Audit.Backend,
		"export_backend", cfg.Export.Backend,
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		events:     events,
	}, nil
}

// NewRouter builds the middleware chain and routes. Authentication runs
// before the access policy, and both run before any handler.
func NewRouter(deps Dependencies) *chi.Mux {
	policy := deps.Policy
	if policy == nil {
		policy = auth.DefaultPolicy()
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.CleanPath,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		auth.Authenticate(deps.Codec, deps.Resolver, deps.Events),
		policy.Enforce(deps.Events),
	)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		failure.RespondStatus(w, r, http.StatusNotFound, "no handler for "+r.Method+" "+r.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		failure.RespondStatus(w, r, http.StatusMethodNotAllowed, "method "+r.Method+" is not supported")
	})

	router.Get("/healthz", handlers.Healthz(deps.DB))
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, handlers.NewAuthHandler(deps.Users, deps.Verifier, deps.Codec, deps.Events))
	})
	router.Route("/api/notes", func(r chi.Router) {
		handlers.NoteRouter(r, handlers.NewNoteHandler(deps.Notes, deps.Exports, deps.Events))
	})
	router.Route("/api/admin", func(r chi.Router) {
		handlers.AdminRouter(r, handlers.NewAdminHandler(deps.Users, deps.Events))
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, flushes pending audit events and
// releases the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.events.Close()
	closeBroker(s.broker)
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}

func closeBroker(broker *mq.MQ) {
	if broker == nil {
		return
	}
	if err := broker.Close(); err != nil {
		slog.Warn("close audit broker", "error", err)
	}
}
