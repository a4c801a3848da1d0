// watch subscribes to Coinbase Advanced Trade market data channels and
// prints updates to the console.
// Usage: go run ./cmd/watch -products BTC-USD,ETH-USD -channels ticker,market_trades
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mpbl/coinbase-go/ws"
)

func main() {
	products := flag.String("products", "BTC-USD", "comma-separated product ids")
	channels := flag.String("channels", "ticker", "comma-separated channels (ticker, ticker_batch, market_trades, candles, level2, status, heartbeats)")
	url := flag.String("url", ws.DefaultURL, "feed url")
	verbose := flag.Bool("verbose", false, "print full envelope JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cfg := ws.DefaultFeedConfig()
	cfg.Client.URL = *url
	// Private channels need a token; market data does not.
	cfg.Client.AccessToken = os.Getenv("COINBASE_ACCESS_TOKEN")

	feed := ws.NewFeed(cfg, logger)
	if err := feed.Start(ctx); err != nil {
		logger.Error("failed to start feed", "error", err)
		os.Exit(1)
	}
	defer feed.Stop()

	ids := strings.Split(*products, ",")
	for _, channel := range strings.Split(*channels, ",") {
		if err := feed.Subscribe(channel, ids); err != nil {
			logger.Error("failed to subscribe", "channel", channel, "error", err)
			os.Exit(1)
		}
		logger.Info("subscribed", "channel", channel, "products", ids)
	}

	go func() {
		for gap := range feed.Gaps() {
			logger.Warn("sequence gap", "expected", gap.Expected, "got", gap.Got, "size", gap.Size)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-feed.Messages():
			if !ok {
				return
			}
			printMessage(msg, *verbose)
		}
	}
}

func printMessage(msg *ws.Message, verbose bool) {
	if verbose {
		data, _ := json.Marshal(msg)
		fmt.Printf("%s %s\n", msg.ReceivedAt.Format("15:04:05.000"), data)
		return
	}

	switch msg.Channel {
	case ws.ChannelTicker, ws.ChannelTickerBatch:
		events, err := msg.TickerEvents()
		if err != nil {
			fmt.Printf("bad ticker event: %v\n", err)
			return
		}
		for _, ev := range events {
			for _, t := range ev.Tickers {
				fmt.Printf("%s ticker %-12s price=%s bid=%s ask=%s\n",
					msg.Timestamp.Format("15:04:05.000"), t.ProductID, t.Price, t.BestBid, t.BestAsk)
			}
		}
	case ws.ChannelMarketTrades:
		events, err := msg.MarketTradesEvents()
		if err != nil {
			fmt.Printf("bad trade event: %v\n", err)
			return
		}
		for _, ev := range events {
			for _, t := range ev.Trades {
				fmt.Printf("%s trade  %-12s %s %s @ %s\n",
					t.Time.Format("15:04:05.000"), t.ProductID, t.Side, t.Size, t.Price)
			}
		}
	case ws.ChannelCandles:
		events, err := msg.CandleEvents()
		if err != nil {
			fmt.Printf("bad candle event: %v\n", err)
			return
		}
		for _, ev := range events {
			for _, c := range ev.Candles {
				fmt.Printf("%s candle %-12s o=%s h=%s l=%s c=%s v=%s\n",
					msg.Timestamp.Format("15:04:05.000"), c.ProductID, c.Open, c.High, c.Low, c.Close, c.Volume)
			}
		}
	case ws.ChannelLevel2Data:
		events, err := msg.Level2Events()
		if err != nil {
			fmt.Printf("bad level2 event: %v\n", err)
			return
		}
		for _, ev := range events {
			fmt.Printf("%s level2 %-12s %s updates=%d\n",
				msg.Timestamp.Format("15:04:05.000"), ev.ProductID, ev.Type, len(ev.Updates))
		}
	case ws.ChannelStatus:
		events, err := msg.StatusEvents()
		if err != nil {
			fmt.Printf("bad status event: %v\n", err)
			return
		}
		for _, ev := range events {
			fmt.Printf("%s status products=%d\n", msg.Timestamp.Format("15:04:05.000"), len(ev.Products))
		}
	case ws.ChannelHeartbeats, ws.ChannelSubscriptions:
		// Quiet unless verbose.
	default:
		data, _ := json.Marshal(msg)
		fmt.Printf("%s %s\n", msg.ReceivedAt.Format("15:04:05.000"), data)
	}
}
