package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"imgrab/internal/api"
	"imgrab/internal/app"
	"imgrab/internal/fetch"
	"imgrab/internal/infra/config"
	"imgrab/internal/infra/logger"
	"imgrab/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	cfgFile string
	outDir  string
	workers int
	verbose bool
	history string
	listen  string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:          "imgrab FILE",
		Short:        "Concurrently download images listed in a URL file",
		Long:         "imgrab reads image URLs from FILE (one per line, blank lines ignored) and downloads them to the output directory. Responses that are not images are skipped and counted as failures.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "download folder (default: current directory)")
	cmd.Flags().IntVarP(&f.workers, "workers", "n", 0, "maximum number of concurrent downloads")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVar(&f.cfgFile, "config", "", "optional YAML config file")
	cmd.Flags().StringVar(&f.history, "history", "", "sqlite file recording per-download outcomes")
	cmd.Flags().StringVar(&f.listen, "listen", "", "serve live run stats on this address (e.g. :8080)")

	return cmd
}

func run(ctx context.Context, f flags, urlFile string) error {
	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return err
	}

	// Flags take precedence over config and environment.
	if f.outDir != "" {
		cfg.OutDir = f.outDir
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.verbose {
		cfg.Log.Verbose = true
	}
	if f.history != "" {
		cfg.History = f.history
	}
	if f.listen != "" {
		cfg.Listen = f.listen
	}

	runID := ksuid.New().String()
	log := logger.New(os.Stdout, cfg.Log.Verbose)
	log = log.With().Str("run", runID).Logger()

	// The output directory is the one fatal precondition: created here,
	// validated again by the pool before scheduling.
	if _, err := os.Stat(cfg.OutDir); os.IsNotExist(err) {
		log.Info().Str("dir", filepath.Clean(cfg.OutDir)).Msg("creating output directory")
		if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
			log.Error().Str("dir", filepath.Clean(cfg.OutDir)).Err(err).Msg("invalid output directory")
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	urls, err := os.Open(urlFile)
	if err != nil {
		log.Error().Str("file", urlFile).Err(err).Msg("cannot open url file")
		return fmt.Errorf("open url file: %w", err)
	}
	defer urls.Close()

	appCtx := app.NewContext(cfg, log)

	if cfg.History != "" {
		hist, err := store.Open(cfg.History, runID)
		if err != nil {
			log.Error().Str("path", cfg.History).Err(err).Msg("cannot open history store")
			return fmt.Errorf("open history store: %w", err)
		}
		defer hist.Close()
		appCtx.History = hist
	}

	// Setup Signal Handling for Graceful Shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := startStatsServer(appCtx)

	var recorder fetch.HistoryRecorder
	if appCtx.History != nil {
		recorder = appCtx.History
	}

	pool := fetch.NewPool(fetch.Options{
		Workers: cfg.Workers,
		Client: fetch.ClientOptions{
			Timeout:             cfg.HTTP.Timeout(),
			MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnsPerHost,
		},
		Logger:  log,
		Tracker: appCtx.Tracker,
		History: recorder,
	})

	stats, err := pool.Run(ctx, urls, cfg.OutDir)
	if err != nil {
		log.Error().Err(err).Msg("run aborted")
		return err
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	log.Info().Msgf("Downloaded %d files, %d failed (%d entries in file)", stats.Success, stats.Failed, stats.Total)
	return nil
}

// startStatsServer exposes live counters while the run is in flight.
// Returns nil when no listen address is configured.
func startStatsServer(appCtx *app.Context) *http.Server {
	if appCtx.Config.Listen == "" {
		return nil
	}

	e := echo.New()
	api.RegisterRoutes(e, appCtx)

	srv := &http.Server{Addr: appCtx.Config.Listen, Handler: e}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appCtx.Logger.Warn().Err(err).Msg("stats server stopped")
		}
	}()

	return srv
}
