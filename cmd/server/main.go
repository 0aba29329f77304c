// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Command server exposes the prediction API over HTTP.
//
// The server never trains. It serves the latest artifacts the trainer
// persisted, loading them lazily on first use, and exposes:
//
//	POST /api/v1/predict                                performance forecast
//	GET  /api/v1/students/{id}/recommendations          ranked course suggestions
//	GET  /api/v1/students/{id}/similar                  ranked peer students
//	GET  /healthz                                       liveness and database state
//	GET  /metrics                                       Prometheus metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/edupredict/edupredict/internal/api"
	"github.com/edupredict/edupredict/internal/config"
	"github.com/edupredict/edupredict/internal/logging"
	"github.com/edupredict/edupredict/internal/ml/mlstore"
	"github.com/edupredict/edupredict/internal/predict"
	"github.com/edupredict/edupredict/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}).With().Str("service", "server").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := postgres.NewGateway(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer gateway.Close()

	store, err := mlstore.NewStore(cfg.Artifacts.ModelDir)
	if err != nil {
		return err
	}

	service, err := predict.NewService(store, gateway, cfg.TrainerConfig(), logger)
	if err != nil {
		return err
	}

	handlers := api.NewHandlers(service, gateway, logger)
	router := api.NewRouter(handlers, api.DefaultRouterConfig(), logger)

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
