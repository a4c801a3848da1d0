// Package ws implements the Advanced Trade WebSocket market data feed.
//
// The feed:
//   - Maintains a single connection to wss://advanced-trade-ws.coinbase.com
//   - Subscribes to ticker, candles, market_trades, level2, status and
//     heartbeats channels
//   - Handles reconnection with exponential backoff and resubscribes
//   - Detects envelope sequence gaps
package ws
