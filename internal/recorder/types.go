package recorder

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// batchSender is the part of pgxpool.Pool the writers use.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Config contains configuration for the batch writers.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     1000,
		FlushInterval: time.Second,
	}
}

// TradeMsg is one market trade on its way to the trades table. Both the
// market_trades feed channel and the REST ticker endpoint produce these.
type TradeMsg struct {
	TradeID    string
	ProductID  string
	Price      string
	Size       string
	Side       string // "BUY" or "SELL"
	Time       time.Time
	ReceivedAt time.Time
}

// TickerMsg is one ticker update on its way to the tickers table.
type TickerMsg struct {
	ProductID       string
	Price           string
	BestBid         string
	BestBidQuantity string
	BestAsk         string
	BestAskQuantity string
	Volume24H       string
	Time            time.Time // Envelope timestamp
	ReceivedAt      time.Time
}

// CandleMsg is one candle bucket on its way to the candles table.
// Source is "ws" for the candles channel and "rest" for the poller.
type CandleMsg struct {
	ProductID   string
	Start       time.Time
	Granularity string
	Open        string
	High        string
	Low         string
	Close       string
	Volume      string
	Source      string
	ReceivedAt  time.Time
}

// tradeRow is a row for the market_trades table.
type tradeRow struct {
	TradeID    string
	ProductID  string
	Time       time.Time
	ReceivedAt time.Time
	Price      string // NUMERIC text
	Size       string // NUMERIC text
	Side       string
}

// tickerRow is a row for the tickers table.
type tickerRow struct {
	ProductID  string
	Time       time.Time
	ReceivedAt time.Time
	Price      string
	BestBid    string
	BestBidQty string
	BestAsk    string
	BestAskQty string
	Volume24H  string
}

// candleRow is a row for the candles table.
type candleRow struct {
	ProductID   string
	Start       time.Time
	Granularity string
	Open        string
	High        string
	Low         string
	Close       string
	Volume      string
	Source      string
	ReceivedAt  time.Time
}

// WriterMetrics holds counters for a writer.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}

// numeric guards NUMERIC text columns: the wire sometimes sends "" where
// a price is unknown, which Postgres would reject.
func numeric(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
