package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Jaylorddeguzman/importer/internal/config"
	"github.com/Jaylorddeguzman/importer/internal/engine/catalog"
	"github.com/Jaylorddeguzman/importer/internal/engine/importer"
	"github.com/Jaylorddeguzman/importer/internal/engine/keepalive"
	"github.com/Jaylorddeguzman/importer/internal/engine/source"
	"github.com/Jaylorddeguzman/importer/internal/engine/storage"
	"github.com/Jaylorddeguzman/importer/internal/logger"
	"github.com/Jaylorddeguzman/importer/internal/web"
)

const (
	shutdownGrace    = 10 * time.Second
	progressInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the import loop and the monitoring HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := logger.New(config.LoggingConfig{Level: "info", Format: "console"})
		boot.Error().Err(err).Msg("invalid configuration")
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogFile); err != nil {
			log.Error().Err(err).Str("file", cfg.CatalogFile).Msg("loading catalog")
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
	if err != nil {
		log.Error().Err(err).Msg("connecting to store")
		return err
	}
	defer store.Close()

	src := source.NewClient(source.Options{
		Endpoint:       cfg.Overpass.URL,
		Timeout:        cfg.Overpass.Timeout,
		Cooldown:       cfg.Overpass.Cooldown,
		MinInterval:    cfg.Overpass.MinInterval,
		TLSFingerprint: cfg.Overpass.TLSFingerprint,
		ProxyURL:       cfg.Overpass.ProxyURL,
	}, log)

	orch, err := importer.New(cat, src, store, importer.Options{
		Delay:            cfg.Delay,
		ErrorDelay:       cfg.ErrorDelay,
		MaxUnitRetries:   cfg.UnitRetries,
		Mode:             cfg.Mode,
		ProgressInterval: progressInterval,
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("creating importer")
		return err
	}

	pinger := keepalive.Disabled()
	if cfg.KeepAliveEnabled() {
		pinger = keepalive.New(cfg.ExternalURL, cfg.KeepAliveInterval, log)
	} else {
		log.Warn().Str("reason", cfg.KeepAliveDisabledReason()).Msg("keep-alive disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := web.NewHandler(importer.NewReporter(orch), store, pinger, web.Info{Name: "poi-importer", Version: version})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewRouter(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", srv.Addr).
		Str("env", cfg.Env).
		Int("work_units", cat.Len()).
		Msg("starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(gctx) })
	g.Go(func() error { return pinger.Run(gctx) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdownServer(srv, log)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("stopped with error")
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func shutdownServer(srv *http.Server, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	log.Info().Dur("grace", shutdownGrace).Msg("shutting down http server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
