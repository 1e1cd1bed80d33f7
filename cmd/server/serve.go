package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"brigade_tracker/internal/config"
	"brigade_tracker/internal/events"
	"brigade_tracker/internal/middleware"
	"brigade_tracker/internal/notify"
	"brigade_tracker/internal/routes"
	"brigade_tracker/internal/services"
	"brigade_tracker/internal/validation"
)

const (
	eventBuffer     = 100
	shutdownTimeout = 15 * time.Second
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			return serve(cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply schema migrations before serving")
	return cmd
}

func serve(cfg *config.Config, migrate bool) error {
	if err := validation.Register(); err != nil {
		return err
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := config.Migrate(db); err != nil {
			return err
		}
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.NotifyURL != "" {
		notifier = notify.NewHTTPNotifier(cfg.NotifyURL, cfg.NotifyKey)
	}

	hub := events.NewHub(eventBuffer)
	svc := services.New(db,
		services.WithPublisher(hub),
		services.WithNotifier(notifier),
		services.WithStrictTransitions(cfg.StrictBrigadeTransitions),
		services.WithInviteTTL(cfg.InviteTTL),
		services.WithRegisterURL(cfg.FrontendURL+"/register"),
	)

	router := routes.SetupRouter(routes.Deps{
		DB:          db,
		Services:    svc,
		Identity:    middleware.NewJWTProvider(cfg.JWTSecret),
		Hub:         hub,
		FrontendURL: cfg.FrontendURL,
		AccessLog:   cfg.AccessLog,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.EnableCORS(cfg.FrontendURL, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server running at %s", cfg.HTTPAddr)
		logrus.WithField("addr", cfg.HTTPAddr).Info("serve: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logrus.Info("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("serve: graceful shutdown failed")
		}
	}

	hub.Close()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
