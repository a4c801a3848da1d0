package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpbl/coinbase-go/coinbase"
)

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Interval    time.Duration        // Poll interval (default: 5m)
	Granularity coinbase.Granularity // Candle bucket size (default: ONE_MINUTE)
	Lookback    time.Duration        // Candle window per poll (default: 2x interval)
	Concurrency int                  // Max concurrent requests (default: 4)
	Timeout     time.Duration        // Per-request timeout (default: 10s)
	TradeLimit  int                  // Recent trades fetched per product (default: 100)
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    5 * time.Minute,
		Granularity: coinbase.GranularityOneMinute,
		Concurrency: 4,
		Timeout:     10 * time.Second,
		TradeLimit:  100,
	}
}

// Poller periodically backfills candles and recent trades over REST. The
// candle writer dedupes against the feed on (product, start, granularity),
// so the overlapping window is safe.
type Poller struct {
	cfg      PollerConfig
	client   *coinbase.Client
	products []string
	candles  *Buffer[CandleMsg]
	trades   *Buffer[TradeMsg]
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a new Poller. The trades buffer may be nil to poll
// candles only.
func NewPoller(cfg PollerConfig, client *coinbase.Client, products []string, candles *Buffer[CandleMsg], trades *Buffer[TradeMsg], logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 2 * cfg.Interval
	}
	return &Poller{
		cfg:      cfg,
		client:   client,
		products: products,
		candles:  candles,
		trades:   trades,
		logger:   logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("candle poller started",
		"interval", p.cfg.Interval,
		"granularity", p.cfg.Granularity,
		"products", len(p.products),
	)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("candle poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches candles and trades for all products with bounded
// concurrency.
func (p *Poller) pollAll() {
	start := time.Now()

	if len(p.products) == 0 {
		p.logger.Debug("no products to poll")
		return
	}

	var polled, failed atomic.Int64

	g, ctx := errgroup.WithContext(p.ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, product := range p.products {
		product := product
		g.Go(func() error {
			if err := p.pollProduct(ctx, product); err != nil {
				p.logger.Warn("failed to poll product",
					"product_id", product,
					"error", err,
				)
				failed.Add(1)
				return nil // One bad product must not stop the cycle.
			}
			polled.Add(1)
			return nil
		})
	}

	g.Wait()

	p.logger.Info("poll cycle complete",
		"products", len(p.products),
		"polled", polled.Load(),
		"failed", failed.Load(),
		"duration", time.Since(start),
	)
}

// pollProduct fetches one product's candle window and recent trades.
func (p *Poller) pollProduct(ctx context.Context, productID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	now := time.Now().UTC()

	candles, err := p.client.GetProductCandles(ctx, productID, now.Add(-p.cfg.Lookback), now, p.cfg.Granularity)
	if err != nil {
		return err
	}
	receivedAt := time.Now().UTC()

	for _, c := range candles {
		start, err := c.StartTime()
		if err != nil {
			p.logger.Warn("bad candle start", "product_id", productID, "start", c.Start)
			continue
		}
		p.candles.Send(CandleMsg{
			ProductID:   productID,
			Start:       start.UTC(),
			Granularity: string(p.cfg.Granularity),
			Open:        c.Open.String(),
			High:        c.High.String(),
			Low:         c.Low.String(),
			Close:       c.Close.String(),
			Volume:      c.Volume.String(),
			Source:      "rest",
			ReceivedAt:  receivedAt,
		})
	}

	if p.trades == nil {
		return nil
	}

	mt, err := p.client.GetMarketTrades(ctx, productID, p.cfg.TradeLimit)
	if err != nil {
		return err
	}
	receivedAt = time.Now().UTC()

	for _, t := range mt.Trades {
		p.trades.Send(TradeMsg{
			TradeID:    t.TradeID,
			ProductID:  t.ProductID,
			Price:      t.Price.String(),
			Size:       t.Size.String(),
			Side:       string(t.Side),
			Time:       t.Time,
			ReceivedAt: receivedAt,
		})
	}

	return nil
}
