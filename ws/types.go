package ws

import (
	"encoding/json"
	"errors"
	"time"
)

// DefaultURL is the production Advanced Trade market data feed.
const DefaultURL = "wss://advanced-trade-ws.coinbase.com"

// Channels available on the market data feed.
const (
	ChannelHeartbeats    = "heartbeats"
	ChannelTicker        = "ticker"
	ChannelTickerBatch   = "ticker_batch"
	ChannelCandles       = "candles"
	ChannelMarketTrades  = "market_trades"
	ChannelLevel2        = "level2"
	ChannelLevel2Data    = "l2_data" // level2 subscriptions deliver on this channel
	ChannelStatus        = "status"
	ChannelSubscriptions = "subscriptions"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no heartbeat)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// SubscribeRequest is the command sent to subscribe or unsubscribe.
type SubscribeRequest struct {
	Type       string   `json:"type"` // "subscribe" or "unsubscribe"
	ProductIDs []string `json:"product_ids,omitempty"`
	Channel    string   `json:"channel"`
	Token      string   `json:"jwt,omitempty"`
}

// Message is the envelope every feed message arrives in. Events carry the
// channel-specific payloads and decode via the typed event helpers.
type Message struct {
	Channel     string            `json:"channel"`
	ClientID    string            `json:"client_id"`
	Timestamp   time.Time         `json:"timestamp"`
	SequenceNum int64             `json:"sequence_num"`
	Events      []json.RawMessage `json:"events"`

	// ReceivedAt is the local receive time, not part of the wire format.
	ReceivedAt time.Time `json:"-"`
}

// Ticker is one product update on the ticker channel.
type Ticker struct {
	Type               string `json:"type"`
	ProductID          string `json:"product_id"`
	Price              string `json:"price"`
	Volume24H          string `json:"volume_24_h"`
	Low24H             string `json:"low_24_h"`
	High24H            string `json:"high_24_h"`
	Low52W             string `json:"low_52_w"`
	High52W            string `json:"high_52_w"`
	PricePercentChg24H string `json:"price_percent_chg_24_h"`
	BestBid            string `json:"best_bid"`
	BestBidQuantity    string `json:"best_bid_quantity"`
	BestAsk            string `json:"best_ask"`
	BestAskQuantity    string `json:"best_ask_quantity"`
}

// TickerEvent is one event on the ticker and ticker_batch channels.
type TickerEvent struct {
	Type    string   `json:"type"` // "snapshot" or "update"
	Tickers []Ticker `json:"tickers"`
}

// Candle is one bucket on the candles channel. Start is in unix seconds.
type Candle struct {
	Start     string `json:"start"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Open      string `json:"open"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
	ProductID string `json:"product_id"`
}

// CandleEvent is one event on the candles channel.
type CandleEvent struct {
	Type    string   `json:"type"`
	Candles []Candle `json:"candles"`
}

// MarketTrade is one trade on the market_trades channel.
type MarketTrade struct {
	TradeID   string    `json:"trade_id"`
	ProductID string    `json:"product_id"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Side      string    `json:"side"`
	Time      time.Time `json:"time"`
}

// MarketTradesEvent is one event on the market_trades channel.
type MarketTradesEvent struct {
	Type   string        `json:"type"`
	Trades []MarketTrade `json:"trades"`
}

// Level2Update is one price level change on the level2 channel. A
// NewQuantity of "0" removes the level.
type Level2Update struct {
	Side        string `json:"side"` // "bid" or "offer"
	EventTime   string `json:"event_time"`
	PriceLevel  string `json:"price_level"`
	NewQuantity string `json:"new_quantity"`
}

// Level2Event is one event on the level2 channel.
type Level2Event struct {
	Type      string         `json:"type"` // "snapshot" or "update"
	ProductID string         `json:"product_id"`
	Updates   []Level2Update `json:"updates"`
}

// StatusProduct is one product on the status channel.
type StatusProduct struct {
	ProductType    string `json:"product_type"`
	ID             string `json:"id"`
	BaseCurrency   string `json:"base_currency"`
	QuoteCurrency  string `json:"quote_currency"`
	BaseIncrement  string `json:"base_increment"`
	QuoteIncrement string `json:"quote_increment"`
	DisplayName    string `json:"display_name"`
	Status         string `json:"status"`
	StatusMessage  string `json:"status_message"`
	MinMarketFunds string `json:"min_market_funds"`
}

// StatusEvent is one event on the status channel.
type StatusEvent struct {
	Type     string          `json:"type"`
	Products []StatusProduct `json:"products"`
}

// HeartbeatEvent is one event on the heartbeats channel.
type HeartbeatEvent struct {
	CurrentTime      string `json:"current_time"`
	HeartbeatCounter int64  `json:"heartbeat_counter"`
}

// TickerEvents decodes the envelope events as ticker events.
func (m *Message) TickerEvents() ([]TickerEvent, error) {
	return decodeEvents[TickerEvent](m)
}

// CandleEvents decodes the envelope events as candle events.
func (m *Message) CandleEvents() ([]CandleEvent, error) {
	return decodeEvents[CandleEvent](m)
}

// MarketTradesEvents decodes the envelope events as trade events.
func (m *Message) MarketTradesEvents() ([]MarketTradesEvent, error) {
	return decodeEvents[MarketTradesEvent](m)
}

// Level2Events decodes the envelope events as level2 events.
func (m *Message) Level2Events() ([]Level2Event, error) {
	return decodeEvents[Level2Event](m)
}

// StatusEvents decodes the envelope events as status events.
func (m *Message) StatusEvents() ([]StatusEvent, error) {
	return decodeEvents[StatusEvent](m)
}

// HeartbeatEvents decodes the envelope events as heartbeat events.
func (m *Message) HeartbeatEvents() ([]HeartbeatEvent, error) {
	return decodeEvents[HeartbeatEvent](m)
}

func decodeEvents[T any](m *Message) ([]T, error) {
	events := make([]T, 0, len(m.Events))
	for _, raw := range m.Events {
		var ev T
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Feed URL, DefaultURL when empty
	AccessToken  string        // OAuth2 access token, empty for public channels
	PingTimeout  time.Duration // Max time without traffic before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:          DefaultURL,
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000,
	}
}

// FeedConfig configures the reconnecting feed.
type FeedConfig struct {
	Client            ClientConfig
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
	MessageBufferSize int           // Buffer size for the parsed message channel
}

// DefaultFeedConfig returns sensible defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Client:            DefaultClientConfig(),
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  60 * time.Second,
		MessageBufferSize: 100000,
	}
}
