package api

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpupo63/our-little-infinity/auth"
	"github.com/rpupo63/our-little-infinity/config"
	"github.com/rpupo63/our-little-infinity/database"
	"github.com/rpupo63/our-little-infinity/journal"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg *config.Config, db database.Database, repo *journal.Repository) (Server, error) {
	startupTime := time.Now()

	sessions := NewSessionManager(cfg.SessionLifetime, cfg.IsDevelopment())
	store, err := auth.NewStore(auth.DefaultCredentials(), NewSessionStore(sessions))
	if err != nil {
		return Server{}, fmt.Errorf("creating auth store: %w", err)
	}

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return Server{}, fmt.Errorf("parsing trusted proxies: %w", err)
	}

	router := newRouter(db, repo, store, sessions,
		withAcceptedOrigins(cfg.AcceptedOrigins),
		withTrustedProxies(proxies),
		withLoginRateLimit(cfg.LoginRateLimit, cfg.LoginBurst),
		withStartupTime(startupTime),
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	acceptedOrigins []string
	trustedProxies  []netip.Prefix
	loginRate       float64
	loginBurst      int
	startupTime     time.Time
}

func withAcceptedOrigins(origins []string) func(*router) {
	return func(r *router) {
		r.acceptedOrigins = origins
	}
}

func withTrustedProxies(proxies []netip.Prefix) func(*router) {
	return func(r *router) {
		r.trustedProxies = proxies
	}
}

func withLoginRateLimit(rps float64, burst int) func(*router) {
	return func(r *router) {
		r.loginRate = rps
		r.loginBurst = burst
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(db database.Database, repo *journal.Repository, store *auth.Store, sessions *scs.SessionManager, opts ...func(*router)) *chi.Mux {
	router := router{
		loginRate:   0.5,
		loginBurst:  5,
		startupTime: time.Now(),
	}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(trustedRealIP(router.trustedProxies))
	chiRouter.Use(middleware.RequestID)

	chiRouter.Use(CORSCheckMiddleware(router.acceptedOrigins))
	chiRouter.Use(corsMiddleware(router.acceptedOrigins))

	chiRouter.Use(ColoredHTTPLoggingMiddleware)
	chiRouter.Use(sessions.LoadAndSave)

	handlers := initializeHandlers(db, repo, store, router.startupTime)
	setupRoutes(chiRouter, handlers, newAuthMiddleware(store), loginRateLimit(router.loginRate, router.loginBurst))

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefulCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefulCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msgf("HttpServer gracefully shut down after %s uptime", time.Since(s.startupTime).Round(time.Second))
	}
}
