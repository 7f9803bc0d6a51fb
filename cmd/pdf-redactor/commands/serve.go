package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-redactor/cmd/pdf-redactor/ui"
	"github.com/spherical/pdf-redactor/internal/server"
	"github.com/spherical/pdf-redactor/internal/watch"
)

var (
	serveWatchDir string
	serveEffect   string
	servePort     int
)

var serveCmd = &cobra.Command{
	Use:   "serve [file.pdf]",
	Short: "Start the interactive viewer",
	Long: `Start a local web viewer for selecting and obscuring page regions.
An optional PDF argument is loaded before the server starts. With --watch,
PDFs written into the directory are opened automatically.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveWatchDir, "watch", "w", "", "directory to watch for new PDFs")
	serveCmd.Flags().StringVarP(&serveEffect, "effect", "e", "", "initial effect: blur or mosaic")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveWatchDir != "" {
		cfg.Watch.Dir = serveWatchDir
	}

	effect, err := effectFromConfig(cfg, serveEffect)
	if err != nil {
		return err
	}

	sess, writer := newSession(cfg, effect, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) == 1 {
		spinner := ui.NewSpinner(fmt.Sprintf("Loading %s...", args[0]))
		spinner.Start()
		loaded, err := sess.Open(ctx, args[0])
		spinner.Stop()
		if err != nil {
			return err
		}
		if !loaded {
			ui.Warning("Ignoring %s: not a PDF", args[0])
		} else {
			st := sess.Status()
			ui.Success("Loaded %s (%d pages)", args[0], st.PageCount)
		}
	}

	if cfg.Watch.Dir != "" {
		open := func(ctx context.Context, path string) error {
			_, err := sess.Open(ctx, path)
			return err
		}
		w := watch.New(cfg.Watch.Dir, cfg.Watch.Settle, func(ctx context.Context, path string) {
			if err := watch.OpenWithRetry(ctx, watch.DefaultRetryConfig(), logger, path, open); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("Watched PDF could not be loaded")
			}
		}, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("Watcher failed")
			}
		}()
	}

	router := server.NewRouter(logger, sess, server.Options{
		Streamer:       writer,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		BlurRadius:     cfg.Effects.BlurRadius,
		MosaicBlock:    cfg.Effects.MosaicBlock,
		AllowedHosts:   allowedHosts(cfg.Server.Host),
	})

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	ui.Info("Viewer running at http://%s", addr)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// allowedHosts lists the host names the viewer answers to. IP literals are
// always accepted.
func allowedHosts(bind string) []string {
	hosts := []string{"localhost"}
	if bind != "" && net.ParseIP(bind) == nil && bind != "localhost" {
		hosts = append(hosts, bind)
	}
	return hosts
}
