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

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/yieldcircles/internal/auth"
	"github.com/mmynk/yieldcircles/internal/config"
	"github.com/mmynk/yieldcircles/internal/engine"
	"github.com/mmynk/yieldcircles/internal/identity"
	"github.com/mmynk/yieldcircles/internal/metrics"
	"github.com/mmynk/yieldcircles/internal/middleware"
	"github.com/mmynk/yieldcircles/internal/service"
	"github.com/mmynk/yieldcircles/internal/settlement"
	"github.com/mmynk/yieldcircles/internal/storage/sqlite"
	"github.com/mmynk/yieldcircles/pkg/api"
	"github.com/mmynk/yieldcircles/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("invalid configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	e, err := engine.New(store, newVerifier(cfg), newSettler(cfg), engine.Config{
		Ledger: cfg.Ledger(),
		Action: cfg.WorldIDAction,
	})
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	path, handler := api.NewCircleServiceHandler(service.NewCircleService(e),
		connect.WithInterceptors(
			middleware.RequireAuth(jwtManager, api.PublicProcedures...),
			middleware.LoggingInterceptor(),
		),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", apiServer.Addr, "url", fmt.Sprintf("http://localhost%s", apiServer.Addr))
		return serve(apiServer)
	})
	g.Go(func() error {
		slog.Info("Metrics server starting", "address", metricsServer.Addr)
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	return nil
}

func newVerifier(cfg config.Config) identity.Verifier {
	if cfg.WorldIDAppID == "" {
		slog.Warn("WORLD_ID_APP_ID not set, every proof is accepted")
		return identity.StaticVerifier{}
	}
	slog.Info("World ID verification enabled", "app_id", cfg.WorldIDAppID, "action", cfg.WorldIDAction)
	return identity.NewWorldIDVerifier(cfg.WorldIDAppID, cfg.WorldIDEndpoint, nil)
}

func newSettler(cfg config.Config) settlement.Settler {
	if cfg.SettlementWebhookURL == "" {
		slog.Warn("SETTLEMENT_WEBHOOK_URL not set, settlements are simulated")
		return settlement.Simulated{}
	}
	slog.Info("Settlement webhook enabled", "url", cfg.SettlementWebhookURL, "timeout", cfg.SettlementTimeout)
	return settlement.NewWebhook(cfg.SettlementWebhookURL, cfg.SettlementTimeout)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
