// Package api provides the HTTP API server for econoscale.
//
// It exposes the ranked comparison list, per-domain snapshot status, and
// a WebSocket stream of refresh reports. Rendering is the consumer's
// problem; this surface only serves the aggregation core's output.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/internal/infra"
	"github.com/econoscale/econoscale/internal/refresh"
	"github.com/econoscale/econoscale/internal/snapshot"
	"github.com/econoscale/econoscale/pkg/models"
)

const rankCacheKey = "rank"

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	refresher *refresh.Refresher
	store     *snapshot.Store
	cache     *infra.Cache
	wsHub     *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	refresher, err := refresh.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("refresh setup failed: %w", err)
	}
	return NewServerWithDeps(cfg, refresher, snapshot.New(&cfg.Snapshot)), nil
}

// NewServerWithDeps wires a server from explicit dependencies.
func NewServerWithDeps(cfg *config.Config, refresher *refresh.Refresher, store *snapshot.Store) *Server {
	ttl := time.Duration(cfg.Rank.CacheTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	srv := &Server{
		cfg:       cfg,
		refresher: refresher,
		store:     store,
		cache:     infra.NewCache(ttl),
		wsHub:     NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rank", s.handleRank)
		r.Get("/status", s.handleStatus)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRank serves the latest ranked list. Reports are cached for the
// configured TTL; ?refresh=true forces a fresh cycle.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "true"

	if !force {
		if cached, ok := s.cache.Get(rankCacheKey); ok {
			writeJSON(w, http.StatusOK, cached.(*refresh.Report))
			return
		}
	}

	report, err := s.refresher.Refresh(r.Context())
	if err != nil {
		// Total failure: no live data and no snapshot. The caller gets an
		// explicit error state, never synthetic placeholder data.
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.cache.Set(rankCacheKey, report)
	s.wsHub.Broadcast(report)
	writeJSON(w, http.StatusOK, report)
}

// domainStatus is one domain's snapshot state for the status endpoint.
type domainStatus struct {
	Domain   models.Domain `json:"domain"`
	Present  bool          `json:"present"`
	Period   string        `json:"period,omitempty"`
	AgeSec   int64         `json:"age_sec,omitempty"`
	Stale    bool          `json:"stale,omitempty"`
	Captured string        `json:"captured,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	statuses := make([]domainStatus, 0, 2)
	for _, domain := range []models.Domain{models.DomainPrice, models.DomainGdp} {
		st := domainStatus{Domain: domain}
		if snap, ok := s.store.Read(domain); ok {
			st.Present = true
			st.Period = snap.Period
			st.AgeSec = int64(snap.Age(now).Seconds())
			st.Stale = s.store.Stale(snap, now)
			st.Captured = time.UnixMilli(snap.Timestamp).UTC().Format(time.RFC3339)
		}
		statuses = append(statuses, st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": statuses})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
