// recorder streams Coinbase Advanced Trade market data into TimescaleDB.
// Usage: go run ./cmd/recorder --config configs/recorder.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"github.com/mpbl/coinbase-go/coinbase"
	"github.com/mpbl/coinbase-go/internal/config"
	"github.com/mpbl/coinbase-go/internal/database"
	"github.com/mpbl/coinbase-go/internal/recorder"
	"github.com/mpbl/coinbase-go/internal/version"
	"github.com/mpbl/coinbase-go/ws"
)

func main() {
	configPath := flag.String("config", "configs/recorder.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting recorder",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.RestURL,
		"products", cfg.Recorder.Products,
		"channels", cfg.Recorder.Channels,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Timescale)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create REST client. Market data endpoints accept any bearer token,
	// so a configured access token is optional.
	clientOpts := []coinbase.ClientOption{
		coinbase.WithLogger(logger),
		coinbase.WithRetries(cfg.API.MaxRetries, time.Second),
	}
	if cfg.API.RestURL != "" {
		clientOpts = append(clientOpts, coinbase.WithBaseURL(cfg.API.RestURL))
	}
	if cfg.API.Timeout > 0 {
		clientOpts = append(clientOpts, coinbase.WithTimeout(cfg.API.Timeout))
	}
	var tokens oauth2.TokenSource
	if cfg.Credentials.AccessToken != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken:  cfg.Credentials.AccessToken,
			RefreshToken: cfg.Credentials.RefreshToken,
		})
	}
	client := coinbase.NewClient(tokens, clientOpts...)

	// Start the market data feed
	feedCfg := ws.DefaultFeedConfig()
	if cfg.Websocket.URL != "" {
		feedCfg.Client.URL = cfg.Websocket.URL
	}
	if cfg.Websocket.PingTimeout > 0 {
		feedCfg.Client.PingTimeout = cfg.Websocket.PingTimeout
	}
	if cfg.Websocket.WriteTimeout > 0 {
		feedCfg.Client.WriteTimeout = cfg.Websocket.WriteTimeout
	}
	if cfg.Websocket.BufferSize > 0 {
		feedCfg.Client.BufferSize = cfg.Websocket.BufferSize
	}
	if cfg.Websocket.ReconnectBaseDelay > 0 {
		feedCfg.ReconnectBaseWait = cfg.Websocket.ReconnectBaseDelay
	}
	if cfg.Websocket.ReconnectMaxDelay > 0 {
		feedCfg.ReconnectMaxWait = cfg.Websocket.ReconnectMaxDelay
	}
	feedCfg.Client.AccessToken = cfg.Credentials.AccessToken

	feed := ws.NewFeed(feedCfg, logger)
	if err := feed.Start(ctx); err != nil {
		logger.Error("failed to start feed", "error", err)
		os.Exit(1)
	}
	defer feed.Stop()

	for _, channel := range cfg.Recorder.Channels {
		if err := feed.Subscribe(channel, cfg.Recorder.Products); err != nil {
			logger.Error("failed to subscribe", "channel", channel, "error", err)
			os.Exit(1)
		}
		logger.Info("subscribed", "channel", channel, "products", len(cfg.Recorder.Products))
	}

	// Log sequence gaps; the poller backfills candles around them.
	go func() {
		for gap := range feed.Gaps() {
			logger.Warn("sequence gap",
				"expected", gap.Expected,
				"got", gap.Got,
				"size", gap.Size,
			)
		}
	}()

	// Start the router
	router := recorder.NewRouter(feed.Messages(), cfg.Recorder.BufferSize, logger)
	if err := router.Start(ctx); err != nil {
		logger.Error("failed to start router", "error", err)
		os.Exit(1)
	}

	// Start the writers
	writerCfg := recorder.Config{
		BatchSize:     cfg.Recorder.BatchSize,
		FlushInterval: cfg.Recorder.FlushInterval,
	}
	tradeWriter := recorder.NewTradeWriter(writerCfg, router.Trades(), pool, logger)
	tickerWriter := recorder.NewTickerWriter(writerCfg, router.Tickers(), pool, logger)
	candleWriter := recorder.NewCandleWriter(writerCfg, router.Candles(), pool, logger)

	if err := tradeWriter.Start(ctx); err != nil {
		logger.Error("failed to start trade writer", "error", err)
		os.Exit(1)
	}
	if err := tickerWriter.Start(ctx); err != nil {
		logger.Error("failed to start ticker writer", "error", err)
		os.Exit(1)
	}
	if err := candleWriter.Start(ctx); err != nil {
		logger.Error("failed to start candle writer", "error", err)
		os.Exit(1)
	}

	// Start the candle poller (REST backfill)
	pollerCfg := recorder.DefaultPollerConfig()
	pollerCfg.Interval = cfg.Recorder.PollInterval
	pollerCfg.Granularity = coinbase.Granularity(cfg.Recorder.PollGranularity)
	pollerCfg.Concurrency = cfg.Recorder.PollConcurrency
	poller := recorder.NewPoller(pollerCfg, client, cfg.Recorder.Products, router.Candles(), router.Trades(), logger)
	if err := poller.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	// Health server
	healthServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: healthHandler(cfg.Health.Path, pool, router, map[string]statser{
			"trade_writer":  tradeWriter,
			"ticker_writer": tickerWriter,
			"candle_writer": candleWriter,
		}),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("recorder running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	poller.Stop(shutdownCtx)
	feed.Stop()
	router.Stop(shutdownCtx)
	tradeWriter.Stop(shutdownCtx)
	tickerWriter.Stop(shutdownCtx)
	candleWriter.Stop(shutdownCtx)
	healthServer.Shutdown(shutdownCtx)

	logger.Info("recorder stopped")
}

type statser interface {
	Stats() recorder.WriterMetrics
}

type pinger interface {
	Ping(context.Context) error
}

// healthHandler reports database, router and writer state.
func healthHandler(path string, pool pinger, router *recorder.Router, writers map[string]statser) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["timescaledb"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["timescaledb"] = "connected"
		}

		health.Components["router"] = router.Stats()
		for name, writer := range writers {
			health.Components[name] = writer.Stats()
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
