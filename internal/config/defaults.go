package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL            = "https://api.coinbase.com/api/v3"
	DefaultWSURL              = "wss://advanced-trade-ws.coinbase.com"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultWSBufferSize       = 10000
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultBatchSize          = 1000
	DefaultFlushInterval      = 1 * time.Second
	DefaultBufferSize         = 10000
	DefaultPollInterval       = 5 * time.Minute
	DefaultPollGranularity    = "ONE_MINUTE"
	DefaultPollConcurrency    = 4
	DefaultHealthPort         = 8080
	DefaultHealthPath         = "/healthz"
)

func (c *RecorderConfig) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Websocket defaults
	if c.Websocket.URL == "" {
		c.Websocket.URL = DefaultWSURL
	}
	if c.Websocket.PingTimeout == 0 {
		c.Websocket.PingTimeout = DefaultPingTimeout
	}
	if c.Websocket.WriteTimeout == 0 {
		c.Websocket.WriteTimeout = DefaultWriteTimeout
	}
	if c.Websocket.BufferSize == 0 {
		c.Websocket.BufferSize = DefaultWSBufferSize
	}
	if c.Websocket.ReconnectBaseDelay == 0 {
		c.Websocket.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Websocket.ReconnectMaxDelay == 0 {
		c.Websocket.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Recorder defaults
	if len(c.Recorder.Channels) == 0 {
		c.Recorder.Channels = []string{"market_trades", "ticker"}
	}
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultBufferSize
	}
	if c.Recorder.PollInterval == 0 {
		c.Recorder.PollInterval = DefaultPollInterval
	}
	if c.Recorder.PollGranularity == "" {
		c.Recorder.PollGranularity = DefaultPollGranularity
	}
	if c.Recorder.PollConcurrency == 0 {
		c.Recorder.PollConcurrency = DefaultPollConcurrency
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
