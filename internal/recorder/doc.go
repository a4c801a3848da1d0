// Package recorder implements the market-data recording pipeline.
//
// Components:
//   - Router: parses feed envelopes and fans them out to per-type buffers
//   - Buffer: growable buffer decoupling the feed from the writers
//   - TradeWriter, TickerWriter, CandleWriter: batch inserts (TimescaleDB)
//   - Poller: periodic REST backfill of candles and recent trades
//
// All writers use append-only semantics (never update, only insert).
// Prices and sizes are passed through as NUMERIC text, exactly as received.
package recorder
