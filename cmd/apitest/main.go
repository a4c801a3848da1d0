// apitest exercises the Coinbase Advanced Trade REST surface. Public
// market data endpoints run by default; -authed adds account endpoints
// using COINBASE_ACCESS_TOKEN, and -login runs the OAuth2 authorization
// flow first using COINBASE_CLIENT_ID / COINBASE_CLIENT_SECRET.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mpbl/coinbase-go/coinbase"
	"github.com/mpbl/coinbase-go/oauth"
)

func main() {
	baseURL := flag.String("base-url", coinbase.DefaultBaseURL, "REST base url")
	products := flag.String("products", "BTC-USD,ETH-USD", "comma-separated product ids")
	authed := flag.Bool("authed", false, "also exercise account endpoints")
	login := flag.Bool("login", false, "run the OAuth2 authorization flow")
	redirectURL := flag.String("redirect-url", "http://localhost:8400/callback", "OAuth2 redirect url for -login")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var tokens oauth2.TokenSource
	switch {
	case *login:
		ts, err := authorize(ctx, *redirectURL, logger)
		if err != nil {
			logger.Error("authorization failed", "error", err)
			os.Exit(1)
		}
		tokens = ts
	case os.Getenv("COINBASE_ACCESS_TOKEN") != "":
		tokens = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: os.Getenv("COINBASE_ACCESS_TOKEN"),
		})
	case *authed:
		logger.Error("-authed needs COINBASE_ACCESS_TOKEN or -login")
		os.Exit(1)
	}

	client := coinbase.NewClient(tokens,
		coinbase.WithBaseURL(*baseURL),
		coinbase.WithLogger(logger),
	)

	ids := strings.Split(*products, ",")
	failures := 0

	failures += marketData(ctx, client, ids, logger)
	if *authed || *login {
		failures += accountData(ctx, client, logger)
	}

	if failures > 0 {
		logger.Error("done with failures", "failures", failures)
		os.Exit(1)
	}
	logger.Info("done")
}

// authorize runs the one-shot loopback OAuth2 flow.
func authorize(ctx context.Context, redirectURL string, logger *slog.Logger) (oauth2.TokenSource, error) {
	clientID := os.Getenv("COINBASE_CLIENT_ID")
	clientSecret := os.Getenv("COINBASE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("COINBASE_CLIENT_ID and COINBASE_CLIENT_SECRET must be set")
	}

	conf, err := oauth.NewConfig(clientID, clientSecret, redirectURL,
		[]string{"wallet:accounts:read", "wallet:transactions:read"},
		oauth.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	token, err := conf.AuthorizeOnce(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("authorized", "expires", token.Expiry)

	return conf.TokenSource(ctx)
}

// marketData exercises the public product endpoints.
func marketData(ctx context.Context, client *coinbase.Client, ids []string, logger *slog.Logger) int {
	failures := 0

	list, err := client.ListProducts(ctx, coinbase.ListProductsOptions{Limit: 5})
	if err != nil {
		logger.Error("ListProducts failed", "error", err)
		failures++
	} else {
		logger.Info("ListProducts", "count", len(list.Products), "total", list.NumProducts)
	}

	books, err := client.GetBestBidAsk(ctx, ids)
	if err != nil {
		logger.Error("GetBestBidAsk failed", "error", err)
		failures++
	} else {
		logger.Info("GetBestBidAsk", "books", len(books))
	}

	end := time.Now()
	start := end.Add(-6 * time.Hour)

	for _, id := range ids {
		product, err := client.GetProduct(ctx, id)
		if err != nil {
			logger.Error("GetProduct failed", "product_id", id, "error", err)
			failures++
			continue
		}
		logger.Info("GetProduct", "product_id", product.ProductID, "price", product.Price)

		book, err := client.GetProductBook(ctx, id, 5)
		if err != nil {
			logger.Error("GetProductBook failed", "product_id", id, "error", err)
			failures++
		} else {
			logger.Info("GetProductBook", "product_id", id, "bids", len(book.Bids), "asks", len(book.Asks))
		}

		candles, err := client.GetProductCandles(ctx, id, start, end, coinbase.GranularityOneHour)
		if err != nil {
			logger.Error("GetProductCandles failed", "product_id", id, "error", err)
			failures++
		} else {
			logger.Info("GetProductCandles", "product_id", id, "candles", len(candles))
		}

		trades, err := client.GetMarketTrades(ctx, id, 10)
		if err != nil {
			logger.Error("GetMarketTrades failed", "product_id", id, "error", err)
			failures++
		} else {
			logger.Info("GetMarketTrades", "product_id", id, "trades", len(trades.Trades))
		}
	}

	return failures
}

// accountData exercises the authenticated endpoints.
func accountData(ctx context.Context, client *coinbase.Client, logger *slog.Logger) int {
	failures := 0

	accounts, err := client.ListAllAccounts(ctx)
	if err != nil {
		logger.Error("ListAllAccounts failed", "error", err)
		failures++
	} else {
		logger.Info("ListAllAccounts", "count", len(accounts))
	}

	orders, err := client.ListOrders(ctx, coinbase.ListOrdersOptions{Limit: 10})
	if err != nil {
		logger.Error("ListOrders failed", "error", err)
		failures++
	} else {
		logger.Info("ListOrders", "count", len(orders.Orders), "has_next", orders.HasNext)
	}

	fills, err := client.ListFills(ctx, coinbase.ListFillsOptions{Limit: 10})
	if err != nil {
		logger.Error("ListFills failed", "error", err)
		failures++
	} else {
		logger.Info("ListFills", "count", len(fills.Fills))
	}

	summary, err := client.GetTransactionsSummary(ctx, coinbase.TransactionsSummaryOptions{})
	if err != nil {
		logger.Error("GetTransactionsSummary failed", "error", err)
		failures++
	} else {
		logger.Info("GetTransactionsSummary",
			"total_volume", summary.TotalVolume,
			"total_fees", summary.TotalFees,
		)
	}

	return failures
}
