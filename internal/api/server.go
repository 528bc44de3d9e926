// Package api provides the HTTP API for hosting games.
// Anyone can create a game and receives an opaque token; the token is the
// only handle on that game. POST /admin endpoints require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/regime-world/internal/engine"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/persistence"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/world"
)

// DefaultMinRegimes is the live regime count a hosted world is topped up to
// after every turn.
const DefaultMinRegimes = 4

// Server hosts games over HTTP.
type Server struct {
	DB       *persistence.DB
	Rules    rules.Rules
	Port     int
	AdminKey string // Bearer token for admin endpoints. Empty = admin disabled.

	// MinRegimes is topped up after every turn. Zero disables spawning.
	MinRegimes int

	// NewSource returns the random source for one create or step request.
	// Defaults to a crypto-seeded source.
	NewSource func() *entropy.Source

	// Limiter throttles game creation and stepping per client. Nil = unlimited.
	Limiter *RateLimiter

	locks *turnLocks
	hub   *progressHub
}

// NewServer creates a server with its lock table and progress hub.
func NewServer(db *persistence.DB, rs rules.Rules) *Server {
	return &Server{
		DB:         db,
		Rules:      rs,
		MinRegimes: DefaultMinRegimes,
		NewSource:  entropy.NewRandom,
		locks:      newTurnLocks(),
		hub:        newProgressHub(),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if s.Limiter == nil {
			return h
		}
		return RateLimitMiddleware(s.Limiter, h)
	}

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/games", s.handleListGames)
	mux.HandleFunc("POST /api/v1/games", limited(s.handleCreateGame))
	mux.HandleFunc("GET /api/v1/games/{token}", s.handleGetGame)
	mux.HandleFunc("POST /api/v1/games/{token}/step", limited(s.handleStep))
	mux.HandleFunc("GET /api/v1/games/{token}/progress", s.handleProgress)

	mux.HandleFunc("POST /api/v1/admin/purge", s.adminOnly(s.handlePurge))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "min_regimes", s.MinRegimes)

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
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

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no REGIMESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// maxBody caps request bodies.
const maxBody = 64 << 10

type createRequest struct {
	Regimes    int    `json:"regimes"`
	Seat       string `json:"seat"`       // rand, largest, wealthiest, techiest
	Difficulty string `json:"difficulty"` // min or max; empty keeps the rules' globals
}

type stepRequest struct {
	Acts []engine.Action `json:"acts"`
}

type gameResponse struct {
	Token string               `json:"token"`
	World *world.World         `json:"world"`
	Stats *engine.TurnStats    `json:"stats,omitempty"`
	Acts  *engine.ActionReport `json:"acts,omitempty"`
	Done  bool                 `json:"done"`
}

// decodeBody reads an optional JSON body into v. An empty body leaves v as is.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	req := createRequest{Regimes: 4}
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rule, err := world.ParseSeatRule(req.Seat)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	diff, err := rules.LookupDifficulty(req.Difficulty)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	src := s.NewSource()
	wld := engine.CreateWorld(req.Regimes, s.Rules, src)
	if req.Difficulty != "" {
		world.ApplyDifficulty(wld, diff)
	}
	if _, err := world.SeatPlayer(wld, rule, src); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	token := uuid.NewString()
	if err := s.DB.SaveGame(token, wld); err != nil {
		slog.Error("create game failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	slog.Info("game created", "token", token, "world", wld.ID, "regimes", len(wld.Regimes),
		"seat", rule, "difficulty", wld.Globals.Difficulty, "seed", src.Seed())

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, gameResponse{Token: token, World: wld})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	wld, err := s.DB.LoadGame(token)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.DB.TouchGame(token); err != nil {
		slog.Warn("touch game failed", "token", token, "error", err)
	}
	writeJSON(w, gameResponse{Token: token, World: wld, Done: wld.Done})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	var req stepRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !s.locks.TryLock(token) {
		http.Error(w, "turn already in progress", http.StatusConflict)
		return
	}
	defer s.locks.Unlock(token)

	wld, err := s.DB.LoadGame(token)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if wld.Done {
		http.Error(w, "game over", http.StatusConflict)
		return
	}

	src := s.NewSource()
	sim := engine.New(wld, s.Rules, src)

	// Meters refill before the player spends them on this turn's actions.
	engine.RegenMeters(wld)
	var acts *engine.ActionReport
	if len(req.Acts) > 0 {
		rep := sim.ApplyActions(req.Acts)
		acts = &rep
	}

	turn := wld.Step + 1
	sim.Step(func(pct float64, phase string) error {
		return s.hub.Publish(token, Progress{Step: turn, Pct: pct, Phase: phase})
	})
	done := engine.MarkGameOverIfNeeded(wld)
	if !done && s.MinRegimes > 0 {
		world.TopUp(wld, s.MinRegimes, s.Rules, src)
	}

	if err := s.DB.SaveGame(token, wld); err != nil {
		slog.Error("save after step failed", "token", token, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	if done {
		slog.Info("game over", "token", token, "step", wld.EndedAt)
	}

	stats := sim.Stats
	writeJSON(w, gameResponse{Token: token, World: wld, Stats: &stats, Acts: acts, Done: done})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	games, err := s.DB.ListGames(limit)
	if err != nil {
		slog.Error("list games failed", "error", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, games)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	size, err := s.DB.StorageSize()
	if err != nil {
		slog.Error("storage size failed", "error", err)
	}
	writeJSON(w, map[string]any{
		"name":         "regime-world",
		"time":         time.Now().UTC().Format(time.RFC3339),
		"storage":      humanize.Bytes(size),
		"storage_size": size,
		"turns_active": s.locks.Held(),
		"watchers":     s.hub.Watchers(),
		"min_regimes":  s.MinRegimes,
	})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	n, err := s.DB.PurgeExpired()
	if err != nil {
		slog.Error("purge failed", "error", err)
		http.Error(w, "purge failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"purged": n})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
	case errors.Is(err, persistence.ErrExpired):
		http.Error(w, "game expired", http.StatusGone)
	default:
		slog.Error("load game failed", "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
