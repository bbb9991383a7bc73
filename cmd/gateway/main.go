package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	gwhttp "github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/adapter/http"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/adapter/jobber"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/adapter/otel"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/config"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/credentials"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/logger"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/middleware"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/resilience"
	"github.com/Habiburrehman10/DialogflowCX-Jobber-GraphQL/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"graphql_url", cfg.Jobber.GraphQLURL,
	)

	ctx := context.Background()

	// --- Telemetry ---
	var metrics *otel.Metrics
	if cfg.Telemetry.Enabled {
		shutdown, err := otel.Init(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()

		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		slog.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	// --- CRM client ---
	store := credentials.NewStore(
		cfg.Jobber.ClientID,
		cfg.Jobber.ClientSecret,
		cfg.Jobber.AccessToken,
		cfg.Jobber.RefreshToken,
	)
	crmClient := jobber.NewClient(cfg.Jobber, store)
	crmClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
	crmClient.SetMetrics(metrics)

	// --- Services ---
	crmSvc := service.NewCRMService(crmClient)

	handlers := &gwhttp.Handlers{
		CRM:     crmSvc,
		Metrics: metrics,
	}

	// --- HTTP ---
	r := chi.NewRouter()

	if cfg.Server.CORSOrigin != "" {
		r.Use(gwhttp.CORS(cfg.Server.CORSOrigin))
	}
	r.Use(gwhttp.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(gwhttp.Logger)
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.WebhookToken(cfg.Webhook.Token, cfg.Webhook.Header))
		gwhttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports liveness and the configured CRM endpoint.
func healthHandler(cfg *config.Config) http.HandlerFunc {
	type healthStatus struct {
		Status  string `json:"status"`
		CRM     string `json:"crm"`
		Version string `json:"api_version"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:  "ok",
			CRM:     cfg.Jobber.GraphQLURL,
			Version: cfg.Jobber.APIVersion,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
