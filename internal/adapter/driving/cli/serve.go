package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/badge"
	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/coverage"
	"github.com/ericfisherdev/ciannotate/internal/adapter/driven/junit"
	httphandler "github.com/ericfisherdev/ciannotate/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/ciannotate/internal/adapter/driving/web"
	"github.com/ericfisherdev/ciannotate/internal/application"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve run history, coverage badges and run pages over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "listen", "", "listen address (default: CIANNOTATE_LISTEN_ADDR or 127.0.0.1:8080)")

	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	cfg := a.cfg
	if cfg.DBPath == "" {
		return errors.New("serve needs a run history: set CIANNOTATE_DB_PATH or db_path")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := a.store(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	// Uploaded reports are recorded but not published from the server.
	var publisher driven.CheckPublisher

	registry := junit.NewRegistry(junit.Options{
		RootDir:    cfg.Workspace,
		VendorDirs: cfg.VendorDirs,
		CheckName:  cfg.CheckName,
	})
	reportSvc := application.NewReportService(registry, publisher, store)
	coverageSvc := application.NewCoverageService(coverage.NewExtractor, badge.NewRenderer(), publisher, store)

	logger := slog.Default()
	apiHandler := httphandler.NewHandler(reportSvc, coverageSvc, logger)
	webHandler := webhandler.NewHandler(reportSvc, logger)
	handler := httphandler.NewServeMux(apiHandler, logger, func(mux *http.ServeMux) {
		webhandler.RegisterRoutes(mux, webHandler)
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr, "db_path", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
