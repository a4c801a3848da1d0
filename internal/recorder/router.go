package recorder

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/mpbl/coinbase-go/ws"
)

// The candles channel always emits five minute buckets.
const wsCandleGranularity = "FIVE_MINUTE"

// Router consumes feed envelopes and fans them out to per-type buffers
// for the writers to drain.
type Router struct {
	logger *slog.Logger

	input <-chan *ws.Message

	trades  *Buffer[TradeMsg]
	tickers *Buffer[TickerMsg]
	candles *Buffer[CandleMsg]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	received    int64
	routed      int64
	parseErrors int64
	unknown     int64
}

// RouterStats contains runtime counters.
type RouterStats struct {
	MessagesReceived int64
	MessagesRouted   int64
	ParseErrors      int64
	UnknownChannels  int64
	TradeBuffer      BufferStats
	TickerBuffer     BufferStats
	CandleBuffer     BufferStats
}

// NewRouter creates a Router reading from input with buffers of the given
// initial capacity.
func NewRouter(input <-chan *ws.Message, bufferSize int, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:  logger,
		input:   input,
		trades:  NewBuffer[TradeMsg](bufferSize),
		tickers: NewBuffer[TickerMsg](bufferSize),
		candles: NewBuffer[CandleMsg](bufferSize),
	}
}

// Trades returns the trade output buffer.
func (r *Router) Trades() *Buffer[TradeMsg] { return r.trades }

// Tickers returns the ticker output buffer.
func (r *Router) Tickers() *Buffer[TickerMsg] { return r.tickers }

// Candles returns the candle output buffer.
func (r *Router) Candles() *Buffer[CandleMsg] { return r.candles }

// Start begins routing messages.
func (r *Router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("router started")
	return nil
}

// Stop shuts down the router and closes the output buffers so writers
// can drain and exit.
func (r *Router) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("router stopped")
	case <-ctx.Done():
		r.logger.Warn("router stop timed out")
	}

	r.trades.Close()
	r.tickers.Close()
	r.candles.Close()

	return nil
}

// Stats returns current counters and buffer states.
func (r *Router) Stats() RouterStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RouterStats{
		MessagesReceived: r.received,
		MessagesRouted:   r.routed,
		ParseErrors:      r.parseErrors,
		UnknownChannels:  r.unknown,
		TradeBuffer:      r.trades.Stats(),
		TickerBuffer:     r.tickers.Stats(),
		CandleBuffer:     r.candles.Stats(),
	}
}

func (r *Router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case msg, ok := <-r.input:
			if !ok {
				return
			}
			r.route(msg)
		}
	}
}

func (r *Router) route(msg *ws.Message) {
	r.count(&r.received)

	switch msg.Channel {
	case ws.ChannelMarketTrades:
		r.routeTrades(msg)
	case ws.ChannelTicker, ws.ChannelTickerBatch:
		r.routeTickers(msg)
	case ws.ChannelCandles:
		r.routeCandles(msg)
	case ws.ChannelHeartbeats, ws.ChannelSubscriptions:
		// Keepalive and acks carry no market data.
	default:
		r.count(&r.unknown)
		r.logger.Debug("unknown channel", "channel", msg.Channel)
	}
}

func (r *Router) routeTrades(msg *ws.Message) {
	events, err := msg.MarketTradesEvents()
	if err != nil {
		r.count(&r.parseErrors)
		r.logger.Warn("failed to parse trade events", "error", err)
		return
	}

	for _, ev := range events {
		for _, t := range ev.Trades {
			r.trades.Send(TradeMsg{
				TradeID:    t.TradeID,
				ProductID:  t.ProductID,
				Price:      t.Price,
				Size:       t.Size,
				Side:       t.Side,
				Time:       t.Time,
				ReceivedAt: msg.ReceivedAt,
			})
			r.count(&r.routed)
		}
	}
}

func (r *Router) routeTickers(msg *ws.Message) {
	events, err := msg.TickerEvents()
	if err != nil {
		r.count(&r.parseErrors)
		r.logger.Warn("failed to parse ticker events", "error", err)
		return
	}

	for _, ev := range events {
		for _, t := range ev.Tickers {
			r.tickers.Send(TickerMsg{
				ProductID:       t.ProductID,
				Price:           t.Price,
				BestBid:         t.BestBid,
				BestBidQuantity: t.BestBidQuantity,
				BestAsk:         t.BestAsk,
				BestAskQuantity: t.BestAskQuantity,
				Volume24H:       t.Volume24H,
				Time:            msg.Timestamp,
				ReceivedAt:      msg.ReceivedAt,
			})
			r.count(&r.routed)
		}
	}
}

func (r *Router) routeCandles(msg *ws.Message) {
	events, err := msg.CandleEvents()
	if err != nil {
		r.count(&r.parseErrors)
		r.logger.Warn("failed to parse candle events", "error", err)
		return
	}

	for _, ev := range events {
		for _, c := range ev.Candles {
			secs, err := strconv.ParseInt(c.Start, 10, 64)
			if err != nil {
				r.count(&r.parseErrors)
				r.logger.Warn("bad candle start", "start", c.Start, "error", err)
				continue
			}
			r.candles.Send(CandleMsg{
				ProductID:   c.ProductID,
				Start:       time.Unix(secs, 0).UTC(),
				Granularity: wsCandleGranularity,
				Open:        c.Open,
				High:        c.High,
				Low:         c.Low,
				Close:       c.Close,
				Volume:      c.Volume,
				Source:      "ws",
				ReceivedAt:  msg.ReceivedAt,
			})
			r.count(&r.routed)
		}
	}
}

func (r *Router) count(field *int64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}
