package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// CandleWriter consumes CandleMsg from its buffer and writes to the
// candles table. Both the candles channel and the REST poller feed it.
type CandleWriter struct {
	cfg    Config
	logger *slog.Logger

	input *Buffer[CandleMsg]
	db    batchSender

	batch       []candleRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewCandleWriter creates a new CandleWriter.
func NewCandleWriter(cfg Config, input *Buffer[CandleMsg], db batchSender, logger *slog.Logger) *CandleWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandleWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]candleRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming messages and writing to the database.
func (w *CandleWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("candle writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *CandleWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping candle writer")

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
		w.logger.Info("candle writer stopped")
	case <-ctx.Done():
		w.logger.Warn("candle writer stop timed out")
	}

	// Final flush runs on the caller's context, not the cancelled one.
	w.flush(ctx)

	return nil
}

// Stats returns current metrics.
func (w *CandleWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *CandleWriter) consumeLoop() {
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

func (w *CandleWriter) flushLoop() {
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

func (w *CandleWriter) handleMessage(msg CandleMsg) {
	row := w.transform(msg)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

func (w *CandleWriter) transform(msg CandleMsg) candleRow {
	return candleRow{
		ProductID:   msg.ProductID,
		Start:       msg.Start,
		Granularity: msg.Granularity,
		Open:        numeric(msg.Open),
		High:        numeric(msg.High),
		Low:         numeric(msg.Low),
		Close:       numeric(msg.Close),
		Volume:      numeric(msg.Volume),
		Source:      msg.Source,
		ReceivedAt:  msg.ReceivedAt,
	}
}

// flush writes the current batch to the database.
func (w *CandleWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]candleRow, 0, w.cfg.BatchSize)
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

	w.logger.Debug("flushed candles",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
// Buckets repeat while they fill, so the first write of a bucket wins and
// later inserts of the same key conflict.
func (w *CandleWriter) batchInsert(ctx context.Context, rows []candleRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO candles (product_id, start, granularity, open, high, low, close, volume, source, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (product_id, start, granularity) DO NOTHING
		`, r.ProductID, r.Start, r.Granularity, r.Open, r.High, r.Low, r.Close, r.Volume, r.Source, r.ReceivedAt)
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
