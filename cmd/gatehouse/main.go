package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/meridianhq/gatehouse/pkg/api"
	"github.com/meridianhq/gatehouse/pkg/auth"
	"github.com/meridianhq/gatehouse/pkg/config"
	"github.com/meridianhq/gatehouse/pkg/middleware"
	"github.com/meridianhq/gatehouse/pkg/observability"
	"github.com/meridianhq/gatehouse/pkg/policy"
	"github.com/meridianhq/gatehouse/pkg/session"
	"github.com/meridianhq/gatehouse/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatehouse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := store.Open(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return err
	}
	principals := store.NewPrincipalStore(db)

	sessions, err := session.NewRegistry(cfg.Session)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	var registry *prometheus.Registry
	var metrics *observability.AuthMetrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewAuthMetrics(registry)
	} else {
		metrics = observability.NewAuthMetrics(nil)
	}

	handlers := api.NewHandlers(principals, tokens, sessions, logger)
	evaluator := policy.NewEvaluator(cfg.Auth.SuperadminID)
	boundary := middleware.NewFaultBoundary(handlers, logger, metrics)
	authn := middleware.NewAuthenticator(tokens, sessions, logger, metrics)

	// guard builds the full stage chain for one route's requirement.
	guard := func(req policy.Requirement) middleware.Middleware {
		authz := middleware.NewAuthorizer(evaluator, req, logger, metrics)
		return middleware.Chain(boundary.Handler, authn.Handler, authz.Handler)
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	handlers.RegisterRoutes(router, guard)

	appServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	opsMux := http.NewServeMux()
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := sessions.Ping(r.Context()); err != nil {
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if registry != nil {
		opsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	opsServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.MetricsPort,
		Handler: opsMux,
	}

	shutdown := observability.NewShutdownManager(logger, appServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return opsServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return sessions.Close()
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return db.Close()
	})

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", appServer.Addr).Info("auth gateway listening")
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", opsServer.Addr).Info("ops endpoints listening")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(shutdown.WaitForShutdown)

	return group.Wait()
}
