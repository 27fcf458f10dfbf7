// goportal-server hosts the SISBIM portal guard over HTTP. Every browser tab
// gets its own browsing context carried in a signed cookie; sidebar
// preferences are kept per browser in the configured store.
//
// Configuration is read from defaults, a TOML file (--config or
// $GOPORTAL_CONFIG), GOPORTAL_* environment variables and flags, in that
// order.
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

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args, os.Getenv)
	if err != nil {
		return err
	}
	level, _ := cfg.logLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prefs, err := openPreferences(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logger.Warn("close preference store", "error", err)
		}
	}()

	server, err := NewServer(cfg, prefs, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go server.Sweep(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("goportal listening", "addr", cfg.HTTPAddr, "store", cfg.Store, "locale", cfg.Locale)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			server.Close(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}
	server.Close(shutdownCtx)
	return nil
}
