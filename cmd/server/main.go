package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/sdfghub/property-sub001/internal/allocation"
	"github.com/sdfghub/property-sub001/internal/auth"
	"github.com/sdfghub/property-sub001/internal/billing"
	"github.com/sdfghub/property-sub001/internal/config"
	"github.com/sdfghub/property-sub001/internal/metrics"
	"github.com/sdfghub/property-sub001/internal/middleware"
	"github.com/sdfghub/property-sub001/internal/service"
	"github.com/sdfghub/property-sub001/internal/storage/sqlstore"
	"github.com/sdfghub/property-sub001/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	store, err := sqlstore.New(sqlstore.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DSN(),
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Billing routes are open unless a JWT secret is configured
	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
		slog.Info("Bearer token auth enabled")
	}

	svc := service.NewBillingService(
		allocation.NewAllocator(store, m),
		billing.NewAggregator(store, m),
		store,
	)

	mux := http.NewServeMux()
	svc.Register(mux, middleware.RequireAuth(jwtManager, auth.RoleAdmin))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			slog.Error("Health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	handler := middleware.Logging(corsMiddleware(mux))

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Billing server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
