package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// TickerWriter consumes TickerMsg from its buffer and writes to the
// tickers table.
type TickerWriter struct {
	cfg    Config
	logger *slog.Logger

	input *Buffer[TickerMsg]
	db    batchSender

	batch       []tickerRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewTickerWriter creates a new TickerWriter.
func NewTickerWriter(cfg Config, input *Buffer[TickerMsg], db batchSender, logger *slog.Logger) *TickerWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickerWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]tickerRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming messages and writing to the database.
func (w *TickerWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("ticker writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *TickerWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping ticker writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("ticker writer stopped")
	case <-ctx.Done():
		w.logger.Warn("ticker writer stop timed out")
	}

	// Final flush runs on the caller's context, not the cancelled one.
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *TickerWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *TickerWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			msg, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleMessage(msg)
		}
	}
}

func (w *TickerWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *TickerWriter) handleMessage(msg TickerMsg) {
	row := w.transform(msg)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

func (w *TickerWriter) transform(msg TickerMsg) tickerRow {
	return tickerRow{
		ProductID:  msg.ProductID,
		Time:       msg.Time,
		ReceivedAt: msg.ReceivedAt,
		Price:      numeric(msg.Price),
		BestBid:    numeric(msg.BestBid),
		BestBidQty: numeric(msg.BestBidQuantity),
		BestAsk:    numeric(msg.BestAsk),
		BestAskQty: numeric(msg.BestAskQuantity),
		Volume24H:  numeric(msg.Volume24H),
	}
}

// flush writes the current batch to the database.
func (w *TickerWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]tickerRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed tickers",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *TickerWriter) batchInsert(ctx context.Context, rows []tickerRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO tickers (product_id, time, received_at, price, best_bid, best_bid_qty, best_ask, best_ask_qty, volume_24h)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (product_id, time) DO NOTHING
		`, r.ProductID, r.Time, r.ReceivedAt, r.Price, r.BestBid, r.BestBidQty, r.BestAsk, r.BestAskQty, r.Volume24H)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
