package recorder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mpbl/coinbase-go/ws"
)

// envelope builds a feed message with the given channel and event payloads.
func envelope(channel string, events ...string) *ws.Message {
	msg := &ws.Message{
		Channel:    channel,
		Timestamp:  time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC),
		ReceivedAt: time.Date(2023, 7, 1, 12, 0, 0, 50000000, time.UTC),
	}
	for _, ev := range events {
		msg.Events = append(msg.Events, json.RawMessage(ev))
	}
	return msg
}

func startRouter(t *testing.T, input chan *ws.Message) *Router {
	t.Helper()
	r := NewRouter(input, 16, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		r.Stop(ctx)
	})
	return r
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRouter_RoutesTrades(t *testing.T) {
	input := make(chan *ws.Message, 4)
	r := startRouter(t, input)

	input <- envelope(ws.ChannelMarketTrades, `{
		"type": "update",
		"trades": [
			{"trade_id": "t-1", "product_id": "BTC-USD", "price": "30250.5", "size": "0.01", "side": "BUY", "time": "2023-07-01T12:00:00Z"},
			{"trade_id": "t-2", "product_id": "BTC-USD", "price": "30251", "size": "0.02", "side": "SELL", "time": "2023-07-01T12:00:01Z"}
		]
	}`)

	waitFor(t, func() bool { return r.Trades().Len() == 2 }, "trades not routed")

	msg, ok := r.Trades().TryReceive()
	if !ok {
		t.Fatal("TryReceive() returned false")
	}
	if msg.TradeID != "t-1" {
		t.Errorf("TradeID = %s, want t-1", msg.TradeID)
	}
	if msg.ProductID != "BTC-USD" {
		t.Errorf("ProductID = %s, want BTC-USD", msg.ProductID)
	}
	if msg.Price != "30250.5" {
		t.Errorf("Price = %s, want 30250.5", msg.Price)
	}
	if msg.Side != "BUY" {
		t.Errorf("Side = %s, want BUY", msg.Side)
	}
	if msg.ReceivedAt.IsZero() {
		t.Error("ReceivedAt is zero")
	}
}

func TestRouter_RoutesTickers(t *testing.T) {
	input := make(chan *ws.Message, 4)
	r := startRouter(t, input)

	input <- envelope(ws.ChannelTicker, `{
		"type": "update",
		"tickers": [
			{"product_id": "ETH-USD", "price": "1890.25", "best_bid": "1890.2", "best_ask": "1890.3", "best_bid_quantity": "1.5", "best_ask_quantity": "2.0", "volume_24_h": "120034"}
		]
	}`)

	waitFor(t, func() bool { return r.Tickers().Len() == 1 }, "ticker not routed")

	msg, _ := r.Tickers().TryReceive()
	if msg.ProductID != "ETH-USD" {
		t.Errorf("ProductID = %s, want ETH-USD", msg.ProductID)
	}
	if msg.BestBid != "1890.2" {
		t.Errorf("BestBid = %s, want 1890.2", msg.BestBid)
	}
	if !msg.Time.Equal(time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Time = %v, want envelope timestamp", msg.Time)
	}
}

func TestRouter_RoutesCandles(t *testing.T) {
	input := make(chan *ws.Message, 4)
	r := startRouter(t, input)

	input <- envelope(ws.ChannelCandles, `{
		"type": "update",
		"candles": [
			{"start": "1688212800", "open": "30000", "high": "30100", "low": "29900", "close": "30050", "volume": "12.5", "product_id": "BTC-USD"}
		]
	}`)

	waitFor(t, func() bool { return r.Candles().Len() == 1 }, "candle not routed")

	msg, _ := r.Candles().TryReceive()
	if !msg.Start.Equal(time.Unix(1688212800, 0)) {
		t.Errorf("Start = %v, want %v", msg.Start, time.Unix(1688212800, 0).UTC())
	}
	if msg.Granularity != "FIVE_MINUTE" {
		t.Errorf("Granularity = %s, want FIVE_MINUTE", msg.Granularity)
	}
	if msg.Source != "ws" {
		t.Errorf("Source = %s, want ws", msg.Source)
	}
}

func TestRouter_SkipsHeartbeatsAndAcks(t *testing.T) {
	input := make(chan *ws.Message, 4)
	r := startRouter(t, input)

	input <- envelope(ws.ChannelHeartbeats, `{"current_time": "2023-07-01 12:00:00", "heartbeat_counter": 1}`)
	input <- envelope(ws.ChannelSubscriptions, `{"subscriptions": {"ticker": ["BTC-USD"]}}`)

	waitFor(t, func() bool { return r.Stats().MessagesReceived == 2 }, "messages not consumed")

	stats := r.Stats()
	if stats.MessagesRouted != 0 {
		t.Errorf("MessagesRouted = %d, want 0", stats.MessagesRouted)
	}
	if stats.UnknownChannels != 0 {
		t.Errorf("UnknownChannels = %d, want 0", stats.UnknownChannels)
	}
}

func TestRouter_CountsParseErrors(t *testing.T) {
	input := make(chan *ws.Message, 4)
	r := startRouter(t, input)

	input <- envelope(ws.ChannelMarketTrades, `{"trades": "not-an-array"}`)

	waitFor(t, func() bool { return r.Stats().ParseErrors == 1 }, "parse error not counted")
}

func TestRouter_StopClosesBuffers(t *testing.T) {
	input := make(chan *ws.Message)
	r := NewRouter(input, 16, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if ok := r.Trades().Send(TradeMsg{}); ok {
		t.Error("Send() on closed trade buffer returned true")
	}
}
