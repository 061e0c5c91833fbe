// Command hs-devserver serves the in-memory marketplace backend for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/fakeapi"
	"github.com/and161185/homeservices/internal/limiter"
	"github.com/and161185/homeservices/internal/logging"
	"github.com/and161185/homeservices/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// seedCatalog is loaded with --seed.
var seedCatalog = []struct {
	name    string
	price   float64
	minutes int
}{
	{"Plumbing", 499, 60},
	{"Electrical", 599, 90},
	{"Home Cleaning", 999, 180},
	{"AC Repair", 799, 120},
}

func main() {
	// Flags
	addr := flag.String("addr", ":5000", "listen address")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (random when empty)")
	accessTTL := flag.Duration("access-ttl", 15*time.Minute, "access token TTL")
	refreshTTL := flag.Duration("refresh-ttl", 30*24*time.Hour, "refresh token TTL")
	refreshDelay := flag.Duration("refresh-delay", 0, "hold every /refresh call this long")
	adminEmail := flag.String("admin-email", fakeapi.DefaultAdminEmail, "seeded admin account")
	adminPassword := flag.String("admin-password", fakeapi.DefaultAdminPassword, "seeded admin password")
	maxFails := flag.Int("login-max-fails", 5, "failed logins before a lockout")
	lockout := flag.Duration("login-lockout", 15*time.Minute, "lockout length")
	limiterRedis := flag.String("limiter-redis", "", "Redis address shared by several devservers; in-memory when empty")
	seed := flag.Bool("seed", false, "preload a small service catalog")
	certFile := flag.String("tls-cert", "", "TLS certificate (PEM); plain HTTP when empty")
	keyFile := flag.String("tls-key", "", "TLS private key (PEM)")
	tracing := flag.Bool("tracing", false, "wrap the API handler with otelhttp")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	dev := flag.Bool("dev", false, "human-readable logs")
	flag.Parse()

	logger, err := logging.New(*logLevel, *dev)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limCfg := limiter.Config{MaxFails: *maxFails, BlockFor: *lockout}
	var lim limiter.Limiter = limiter.NewMemory(limCfg)
	if *limiterRedis != "" {
		rc, err := session.Connect(ctx, session.RedisConfig{Addr: *limiterRedis})
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rc.Close() }()
		lim = limiter.NewRedis(rc, "", limCfg)
	}

	backend, err := fakeapi.New(fakeapi.Options{
		SignKey:       []byte(*jwtKey),
		AccessTTL:     *accessTTL,
		RefreshTTL:    *refreshTTL,
		RefreshDelay:  *refreshDelay,
		AdminEmail:    *adminEmail,
		AdminPassword: *adminPassword,
		Limiter:       lim,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("backend", zap.Error(err))
	}
	if *seed {
		for _, s := range seedCatalog {
			backend.SeedService(s.name, s.price, s.minutes)
		}
	}

	var api http.Handler = backend.Handler()
	if *tracing {
		api = otelhttp.NewHandler(api, "fakeapi")
	}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Mount("/", api)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if *certFile != "" {
			logger.Info("listening (TLS)", zap.String("addr", *addr))
			errCh <- srv.ListenAndServeTLS(*certFile, *keyFile)
			return
		}
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
