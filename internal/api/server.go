// Package api provides the HTTP API for observing and steering the region.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mkessler/gridtown/internal/engine"
	"github.com/mkessler/gridtown/internal/persistence"
	"github.com/mkessler/gridtown/internal/region"
)

// Server serves the region state over HTTP.
type Server struct {
	Sim        *engine.Simulation
	Eng        *engine.Engine
	DB         *persistence.DB
	Port       int
	AdminKey   string // Bearer token for POST endpoints. Empty = POST disabled.
	ArchiveDir string
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	intentLimiter := NewIntentLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the region).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/region", s.handleRegion)
	mux.HandleFunc("/api/v1/cities", s.handleCities)
	mux.HandleFunc("/api/v1/city/", s.handleCityRoutes)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/trade", s.handleTrade)
	mux.HandleFunc("/api/v1/projects", s.handleProjects)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// WebSocket event stream.
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	intent := func(h http.HandlerFunc) http.HandlerFunc {
		return intentLimiter.Middleware(s.adminOnly(h))
	}
	mux.HandleFunc("/api/v1/city", intent(s.handleCreateCity))
	mux.HandleFunc("/api/v1/activate", intent(s.handleActivate))
	mux.HandleFunc("/api/v1/place", intent(s.handlePlace))
	mux.HandleFunc("/api/v1/remove", intent(s.handleRemove))
	mux.HandleFunc("/api/v1/erase", intent(s.handleErase))
	mux.HandleFunc("/api/v1/tax", intent(s.handleTax))
	mux.HandleFunc("/api/v1/loan", intent(s.handleLoan))
	mux.HandleFunc("/api/v1/trade/offer", intent(s.handleTradeOffer))
	mux.HandleFunc("/api/v1/trade/accept", intent(s.handleTradeAccept))
	mux.HandleFunc("/api/v1/trade/withdraw", intent(s.handleTradeWithdraw))
	mux.HandleFunc("/api/v1/trade/cancel", intent(s.handleTradeCancel))
	mux.HandleFunc("/api/v1/project/propose", intent(s.handleProjectPropose))
	mux.HandleFunc("/api/v1/project/contribute", intent(s.handleProjectContribute))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/archive", s.adminOnly(s.handleArchive))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no GRIDTOWN_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// writeError maps region and budget sentinels to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, region.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, region.ErrSlotOccupied),
		errors.Is(err, region.ErrRegionFull),
		errors.Is(err, region.ErrAlreadyProposed),
		errors.Is(err, region.ErrSameCity):
		status = http.StatusConflict
	case errors.Is(err, region.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	}
	http.Error(w, err.Error(), status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}
