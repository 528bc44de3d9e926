// Command regimesim hosts regime games over HTTP.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/talgya/regime-world/internal/api"
	"github.com/talgya/regime-world/internal/persistence"
	"github.com/talgya/regime-world/internal/rules"
)

func main() {
	logFile := os.Getenv("REGIMESIM_LOG_FILE")
	setupLogging(logFile, os.Getenv("REGIMESIM_LOG_LEVEL"))

	dbPath := envOr("REGIMESIM_DB", "data/regimes.db")
	apiPort := envInt("REGIMESIM_PORT", 8080)
	minRegimes := envInt("REGIMESIM_MIN_REGIMES", api.DefaultMinRegimes)
	ratePerMinute := envInt("REGIMESIM_RATE", 60)
	gameTTL := envDuration("REGIMESIM_GAME_TTL", 24*time.Hour)

	slog.Info("regime world server",
		"db", dbPath,
		"port", apiPort,
		"min_regimes", minRegimes,
		"rate_per_minute", ratePerMinute,
		"game_ttl", gameTTL,
		"log_file", logFile,
	)

	// ── Rules ─────────────────────────────────────────────────────────
	rs := rules.Default()
	if path := os.Getenv("REGIMESIM_RULES"); path != "" {
		var err error
		rs, err = rules.Load(path)
		if err != nil {
			slog.Error("failed to load rules", "path", path, "error", err)
			os.Exit(1)
		}
		slog.Info("rules loaded", "path", path)
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		slog.Error("failed to create data dir", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(dbPath, gameTTL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	if _, err := db.PurgeExpired(); err != nil {
		slog.Warn("startup purge failed", "error", err)
	}
	if err := db.SaveMeta("last_start", time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("failed to record start time", "error", err)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("REGIMESIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("REGIMESIM_ADMIN_KEY not set, admin endpoints will be disabled")
	}

	apiServer := api.NewServer(db, rs)
	apiServer.Port = apiPort
	apiServer.AdminKey = adminKey
	apiServer.MinRegimes = minRegimes
	if ratePerMinute > 0 {
		apiServer.Limiter = api.NewRateLimiter(ratePerMinute, time.Minute)
		if proxies := os.Getenv("REGIMESIM_TRUSTED_PROXIES"); proxies != "" {
			if err := apiServer.Limiter.TrustProxies(strings.Split(proxies, ",")...); err != nil {
				slog.Error("bad REGIMESIM_TRUSTED_PROXIES", "error", err)
				os.Exit(1)
			}
			slog.Info("trusting forwarded client addresses", "proxies", proxies)
		}
	}
	apiServer.Start()

	// ── Maintenance ───────────────────────────────────────────────────
	stop := make(chan struct{})
	go maintain(db, apiServer.Limiter, time.Hour, stop)

	fmt.Printf("\nRegime world is hosting games.\n")
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
	close(stop)
}

// maintain purges expired games and forgets idle rate-limit clients.
func maintain(db *persistence.DB, rl *api.RateLimiter, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := db.PurgeExpired(); err != nil {
				slog.Error("purge failed", "error", err)
			}
			if rl != nil {
				if n := rl.Sweep(); n > 0 {
					slog.Debug("rate limiter swept", "clients", n)
				}
			}
		}
	}
}

// setupLogging installs a text handler on stdout, teeing into a rotating
// file when path is set.
func setupLogging(path, level string) {
	var out io.Writer = os.Stdout
	if path != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	lvl := slog.LevelInfo
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
			lvl = slog.LevelInfo
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring bad integer setting", "key", key, "value", v)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring bad duration setting", "key", key, "value", v)
		return def
	}
	return d
}
