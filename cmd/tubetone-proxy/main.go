// Command tubetone-proxy serves YouTube search and trending results over HTTP
// so clients do not need their own Data API key.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/config"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/proxy"
	"github.com/haryoiro/tubetone/internal/version"
)

func main() {
	var (
		addr        = flag.String("addr", "", "Listen address (defaults to the config listen_addr)")
		envFile     = flag.String("env", ".env", "Environment file with YOUTUBE_API_KEY")
		configPath  = flag.String("config", "", "Config file (optional)")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level := logger.INFO
	if *debugMode {
		level = logger.DEBUG
	}
	// the proxy runs under a supervisor, so logs go to stderr only
	logger.SetGlobal(logger.NewWithWriter(os.Stderr, level, *debugMode))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if err := config.LoadEnv(cfg, *envFile); err != nil {
		logger.Warn("Failed to load environment: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := api.Options{
		APIKey:            cfg.APIKey,
		MaxResults:        cfg.MaxResults,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	client, err := api.New(ctx, opts)
	if err != nil {
		logger.Fatal("Failed to create YouTube client: %v", err)
	}
	status := func(ctx context.Context) api.ConnectionStatus {
		return api.CheckConnection(ctx, opts)
	}

	if cfg.ProxyToken == "" {
		logger.Warn("No %s set, the proxy accepts unauthenticated requests", config.EnvProxyToken)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           proxy.NewHandler(client, status, cfg.ProxyToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Proxy listening on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %v", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down proxy")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error: %v", err)
		}
	}
}
