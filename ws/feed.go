package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Feed maintains a subscribed connection to the market data feed. It
// parses envelopes, detects sequence gaps, and reconnects with exponential
// backoff, restoring subscriptions after each reconnect.
type Feed struct {
	cfg    FeedConfig
	logger *slog.Logger

	// The reconnect loop replaces client; all access goes through
	// currentClient / setClient.
	clientMu sync.Mutex
	client   Client

	messages chan *Message
	gaps     chan SequenceGap

	// Subscriptions to restore after a reconnect, channel -> product ids.
	subMu sync.Mutex
	subs  map[string][]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	seqMu   sync.Mutex
	lastSeq int64
	seenSeq bool

	startMu sync.Mutex
	started bool
}

// SequenceGap reports missed envelope sequence numbers.
type SequenceGap struct {
	Expected int64
	Got      int64
	Size     int64
}

// NewFeed creates a feed. Call Start to connect.
func NewFeed(cfg FeedConfig, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Client.URL == "" {
		cfg.Client.URL = DefaultURL
	}

	return &Feed{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan *Message, cfg.MessageBufferSize),
		gaps:     make(chan SequenceGap, 16),
		subs:     make(map[string][]string),
	}
}

// Start connects and begins delivering messages. The feed runs until ctx
// is done or Stop is called.
func (f *Feed) Start(ctx context.Context) error {
	f.startMu.Lock()
	if f.started {
		f.startMu.Unlock()
		return fmt.Errorf("feed already started")
	}
	f.started = true
	f.startMu.Unlock()

	f.ctx, f.cancel = context.WithCancel(ctx)

	f.setClient(NewClient(f.cfg.Client, f.logger))
	if err := f.currentClient().Connect(f.ctx); err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}

	f.wg.Add(1)
	go f.readLoop()

	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	if client := f.currentClient(); client != nil {
		client.Close()
	}
	f.wg.Wait()
}

// Subscribe subscribes to a channel for the given products and remembers
// the subscription for reconnects.
func (f *Feed) Subscribe(channel string, productIDs []string) error {
	if err := f.currentClient().Subscribe(channel, productIDs); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	f.subMu.Lock()
	f.subs[channel] = append(f.subs[channel], productIDs...)
	f.subMu.Unlock()

	return nil
}

// Unsubscribe removes a channel subscription entirely.
func (f *Feed) Unsubscribe(channel string) error {
	f.subMu.Lock()
	productIDs := f.subs[channel]
	delete(f.subs, channel)
	f.subMu.Unlock()

	if err := f.currentClient().Unsubscribe(channel, productIDs); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", channel, err)
	}

	return nil
}

// Messages returns the parsed message channel.
func (f *Feed) Messages() <-chan *Message {
	return f.messages
}

// Gaps returns the sequence gap channel.
func (f *Feed) Gaps() <-chan SequenceGap {
	return f.gaps
}

func (f *Feed) currentClient() Client {
	f.clientMu.Lock()
	defer f.clientMu.Unlock()
	return f.client
}

func (f *Feed) setClient(c Client) {
	f.clientMu.Lock()
	f.client = c
	f.clientMu.Unlock()
}

// readLoop drains the client and parses envelopes until the feed stops.
func (f *Feed) readLoop() {
	defer f.wg.Done()

	for {
		client := f.currentClient()

		select {
		case <-f.ctx.Done():
			return

		case err := <-client.Errors():
			f.logger.Warn("feed connection error", "error", err)
			if !f.reconnect() {
				return
			}

		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			f.handleMessage(msg)
		}
	}
}

func (f *Feed) handleMessage(raw TimestampedMessage) {
	var msg Message
	if err := json.Unmarshal(raw.Data, &msg); err != nil {
		f.logger.Warn("unparseable feed message", "error", err)
		return
	}
	msg.ReceivedAt = raw.ReceivedAt

	// The subscriptions channel acks subscribe requests and restarts the
	// sequence; data consumers don't need it.
	if msg.Channel == ChannelSubscriptions {
		return
	}

	f.checkSequence(msg.SequenceNum)

	select {
	case f.messages <- &msg:
	case <-f.ctx.Done():
	default:
		f.logger.Warn("feed buffer full, dropping message", "channel", msg.Channel)
	}
}

// checkSequence tracks the per-connection envelope sequence.
func (f *Feed) checkSequence(seq int64) {
	f.seqMu.Lock()
	defer f.seqMu.Unlock()

	if !f.seenSeq {
		f.seenSeq = true
		f.lastSeq = seq
		return
	}

	if seq != f.lastSeq+1 {
		gap := SequenceGap{
			Expected: f.lastSeq + 1,
			Got:      seq,
			Size:     seq - f.lastSeq - 1,
		}
		f.logger.Warn("sequence gap detected",
			"expected", gap.Expected,
			"got", gap.Got,
		)
		select {
		case f.gaps <- gap:
		default:
		}
	}
	f.lastSeq = seq
}

// reconnect re-establishes the connection with exponential backoff and
// restores subscriptions. Returns false when the feed is stopping.
func (f *Feed) reconnect() bool {
	wait := f.cfg.ReconnectBaseWait
	maxWait := f.cfg.ReconnectMaxWait

	for {
		select {
		case <-f.ctx.Done():
			return false
		case <-time.After(wait):
		}

		f.logger.Info("attempting reconnection", "url", f.cfg.Client.URL)

		f.currentClient().Close()
		client := NewClient(f.cfg.Client, f.logger)

		if err := client.Connect(f.ctx); err != nil {
			f.logger.Warn("reconnection failed", "error", err)

			wait *= 2
			if wait > maxWait {
				wait = maxWait
			}
			continue
		}
		f.setClient(client)

		// A new connection restarts the envelope sequence.
		f.seqMu.Lock()
		f.seenSeq = false
		f.seqMu.Unlock()

		f.subMu.Lock()
		subs := make(map[string][]string, len(f.subs))
		for channel, products := range f.subs {
			subs[channel] = products
		}
		f.subMu.Unlock()

		for channel, products := range subs {
			if err := client.Subscribe(channel, products); err != nil {
				f.logger.Warn("resubscribe failed", "channel", channel, "error", err)
			}
		}

		f.logger.Info("reconnected", "subscriptions", len(subs))
		return true
	}
}
