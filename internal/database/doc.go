// Package database provides connection pool management for TimescaleDB.
//
// The recorder stores trades, tickers and candles as time-series data in a
// single TimescaleDB instance.
package database
