// Package feed moves binding values over websockets. A Hub stores the
// latest value per named channel and broadcasts updates to every
// connected client; a Client exposes each channel as a binding, so
// remote values plug into effect coordination like local ones.
package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rebind-dev/rebind/pkg/observe"
)

// writeTimeout bounds a single websocket write.
const writeTimeout = 10 * time.Second

// Observability events emitted by the hub.
const (
	EventPublish    = observe.EventType("feed.publish")
	EventConnect    = observe.EventType("feed.connect")
	EventDisconnect = observe.EventType("feed.disconnect")
)

// Hub is the broadcast server side of a feed. It retains the latest
// value per channel so newly connected clients start from a full
// snapshot.
type Hub struct {
	logger   *slog.Logger
	observer observe.Observer
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conns    map[*hubConn]struct{}
	channels map[string]json.RawMessage
	seq      uint64

	closed atomic.Bool
}

// hubConn is one accepted connection. The mutex protects conn writes.
type hubConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
	gone atomic.Bool
}

func (hc *hubConn) write(data []byte) error {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return hc.conn.WriteMessage(websocket.TextMessage, data)
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub's logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCheckOrigin sets the websocket origin check. The default accepts
// any origin, which suits the local tooling this hub ships for.
func WithCheckOrigin(fn func(*http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithHubObserver attaches an observer for hub activity: publishes,
// connects, disconnects. Hook a journal.Recorder in to keep a feed
// activity log.
func WithHubObserver(obs observe.Observer) HubOption {
	return func(h *Hub) {
		h.observer = obs
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:   slog.Default(),
		conns:    make(map[*hubConn]struct{}),
		channels: make(map[string]json.RawMessage),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the hub's HTTP surface: the websocket endpoint, a JSON
// snapshot of all channels, and a health probe.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", h.ServeWS)
	r.Get("/channels", h.handleChannels)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

// ServeWS upgrades the request and registers the connection. The new
// client immediately receives a hello frame with the current snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", "error", err)
		return
	}
	hc := &hubConn{conn: conn}

	h.mu.Lock()
	snap := make(map[string]json.RawMessage, len(h.channels))
	for name, raw := range h.channels {
		snap[name] = raw
	}
	seq := h.seq
	h.conns[hc] = struct{}{}
	h.mu.Unlock()

	h.emit(EventConnect, observe.LevelVerbose, map[string]any{
		"remote": conn.RemoteAddr().String(),
	})

	hello, err := encodeFrame(Frame{Type: FrameHello, Channels: snap, Seq: seq})
	if err != nil {
		h.logger.Error("hello encode failed", "error", err)
		h.drop(hc)
		return
	}
	if err := hc.write(hello); err != nil {
		h.drop(hc)
		return
	}

	h.logger.Debug("client connected", "remote", conn.RemoteAddr().String())
	go h.readLoop(hc)
}

// Publish stores value as channel's latest and broadcasts it.
func (h *Hub) Publish(channel string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("feed: encode channel %s: %w", channel, err)
	}
	return h.publishRaw(channel, raw)
}

func (h *Hub) publishRaw(channel string, raw json.RawMessage) error {
	if h.closed.Load() {
		return ErrHubClosed
	}

	h.mu.Lock()
	h.channels[channel] = raw
	h.seq++
	seq := h.seq
	conns := make([]*hubConn, 0, len(h.conns))
	for hc := range h.conns {
		conns = append(conns, hc)
	}
	h.mu.Unlock()

	data, err := encodeFrame(Frame{
		Type:    FrameUpdate,
		Channel: channel,
		Value:   raw,
		Seq:     seq,
	})
	if err != nil {
		return err
	}

	for _, hc := range conns {
		if err := hc.write(data); err != nil {
			h.logger.Warn("broadcast write failed, dropping connection", "error", err)
			h.drop(hc)
		}
	}

	h.emit(EventPublish, observe.LevelInfo, map[string]any{
		"channel": channel,
		"seq":     seq,
	})
	return nil
}

// readLoop consumes frames from one connection until it fails or closes.
func (h *Hub) readLoop(hc *hubConn) {
	defer h.drop(hc)

	for {
		_, msg, err := hc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := decodeFrame(msg)
		if err != nil {
			h.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case FramePing:
			pong, err := encodeFrame(Frame{Type: FramePong})
			if err == nil {
				hc.write(pong)
			}

		case FrameUpdate:
			if frame.Channel == "" {
				h.logger.Warn("update frame without channel")
				continue
			}
			if err := h.publishRaw(frame.Channel, frame.Value); err != nil {
				return
			}

		case FramePong, FrameHello:
			// Nothing for the hub to do.

		default:
			h.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

func (h *Hub) drop(hc *hubConn) {
	if hc.gone.Swap(true) {
		return
	}
	h.mu.Lock()
	delete(h.conns, hc)
	h.mu.Unlock()
	hc.conn.Close()

	h.emit(EventDisconnect, observe.LevelVerbose, nil)
}

// emit delivers a hub activity event to the observer, if any.
func (h *Hub) emit(typ observe.EventType, level observe.Level, data map[string]any) {
	if h.observer == nil {
		return
	}
	observe.Emit(h.observer, typ, level, "hub", data)
}

// handleChannels serves the current snapshot as JSON.
func (h *Hub) handleChannels(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	snap := make(map[string]json.RawMessage, len(h.channels))
	for name, raw := range h.channels {
		snap[name] = raw
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.logger.Error("snapshot encode failed", "error", err)
	}
}

// ConnCount returns the number of registered connections.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects every client and rejects further publishes.
// Idempotent.
func (h *Hub) Close() {
	if h.closed.Swap(true) {
		return
	}

	h.mu.Lock()
	conns := make([]*hubConn, 0, len(h.conns))
	for hc := range h.conns {
		conns = append(conns, hc)
	}
	h.conns = make(map[*hubConn]struct{})
	h.mu.Unlock()

	for _, hc := range conns {
		hc.mu.Lock()
		hc.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		hc.mu.Unlock()
		hc.conn.Close()
	}
	h.logger.Debug("hub closed", "connections", len(conns))
}
