// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/typegraph/services/typegraph/api"
)

const (
	shutdownTimeout = 10 * time.Second
	gcInterval      = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored runs over HTTP",
	Long: `Start the HTTP API on api.address.

Examples:
  typegraph serve
  curl http://localhost:8089/v1/typegraph/snapshots/latest/order`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cache, err := api.NewSnapshotCache(a.store, a.analyzer(), cfg.API.CacheSize)
	if err != nil {
		return err
	}
	router := api.NewRouter(api.NewHandlers(a.store, cache, a.logger), api.RouterConfig{
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Logger:    a.logger,
	})
	srv := &http.Server{
		Addr:              cfg.API.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return collectGarbage(ctx, a, gcInterval)
	})
	return g.Wait()
}

// collectGarbage rewrites the store's value log every interval until ctx
// ends. Failures are logged, not fatal.
func collectGarbage(ctx context.Context, a *app, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rewrote, err := a.db.RunGC()
			if err != nil {
				a.logger.Warn("value log gc failed", slog.String("error", err.Error()))
				continue
			}
			a.logger.Debug("value log gc", slog.Bool("rewrote", rewrote))
		}
	}
}
