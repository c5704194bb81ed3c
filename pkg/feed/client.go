package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rebind-dev/rebind/pkg/binding"
)

// Client is the consuming side of a feed. Each channel surfaces as a
// binding whose value follows the hub's updates, so remote channels
// feed effect coordination directly.
type Client struct {
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	bindings map[string]*binding.Var[any]
	err      error
	lastSeq  uint64

	ready     chan struct{}
	readyOnce sync.Once

	closed atomic.Bool
	done   chan struct{}
	gone   atomic.Bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Dial connects to a hub's websocket endpoint and starts the read loop.
// The returned client is usable immediately; WaitReady blocks until the
// hub's hello snapshot has been applied.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: dial %s: %w", url, err)
	}

	c := &Client{
		logger:   slog.Default(),
		conn:     conn,
		bindings: make(map[string]*binding.Var[any]),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c, nil
}

// Binding returns the binding for channel, creating it if the channel
// has not been seen yet. The same channel always yields the same
// binding.
func (c *Client) Binding(channel string) binding.Binding {
	return c.channelVar(channel)
}

func (c *Client) channelVar(channel string) *binding.Var[any] {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.bindings[channel]
	if !ok {
		v = binding.NewVar[any](nil)
		c.bindings[channel] = v
	}
	return v
}

// Channels returns the channels seen so far, sorted.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// WaitReady blocks until the hello snapshot has been applied, the
// connection ends, or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-c.done:
		if err := c.Err(); err != nil {
			return err
		}
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends an update for channel to the hub, which stores and
// rebroadcasts it.
func (c *Client) Publish(channel string, value any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("feed: encode channel %s: %w", channel, err)
	}
	return c.send(Frame{Type: FrameUpdate, Channel: channel, Value: raw})
}

// Ping sends a keepalive probe.
func (c *Client) Ping() error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.send(Frame{Type: FramePing})
}

func (c *Client) send(f Frame) error {
	data, err := encodeFrame(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Err returns the terminal read error, if the connection failed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// LastSeq returns the hub sequence number of the last applied frame.
func (c *Client) LastSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeq
}

// Done is closed when the read loop has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the connection down. Idempotent.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.writeMu.Lock()
	c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.shutdown()
	return err
}

func (c *Client) shutdown() {
	if c.gone.Swap(true) {
		return
	}
	close(c.done)
}

func (c *Client) readLoop() {
	defer c.shutdown()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
			}
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		frame, err := decodeFrame(msg)
		if err != nil {
			c.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case FrameHello:
			c.applyHello(frame)

		case FrameUpdate:
			c.applyUpdate(frame)

		case FramePing:
			if err := c.send(Frame{Type: FramePong}); err != nil {
				c.logger.Warn("pong failed", "error", err)
			}

		case FramePong:
			// Keepalive answered.

		default:
			c.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

func (c *Client) applyHello(f Frame) {
	for channel, raw := range f.Channels {
		c.applyValue(channel, raw)
	}
	c.mu.Lock()
	if f.Seq > c.lastSeq {
		c.lastSeq = f.Seq
	}
	c.mu.Unlock()

	c.readyOnce.Do(func() { close(c.ready) })
	c.logger.Debug("snapshot applied", "channels", len(f.Channels))
}

func (c *Client) applyUpdate(f Frame) {
	if f.Channel == "" {
		c.logger.Warn("update frame without channel")
		return
	}
	c.applyValue(f.Channel, f.Value)

	c.mu.Lock()
	if f.Seq > c.lastSeq {
		c.lastSeq = f.Seq
	}
	c.mu.Unlock()
}

// applyValue decodes raw and sets the channel's binding. The set happens
// outside c.mu; listener callbacks may call back into the client.
func (c *Client) applyValue(channel string, raw json.RawMessage) {
	var value any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			c.logger.Error("value decode error", "channel", channel, "error", err)
			return
		}
	}
	c.channelVar(channel).Set(value)
}
