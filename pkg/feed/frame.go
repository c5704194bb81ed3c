package feed

import (
	"encoding/json"
	"fmt"
)

// Frame types exchanged between hub and client.
const (
	// FrameHello is sent by the hub right after the upgrade and carries
	// a snapshot of every channel's latest value.
	FrameHello = "hello"

	// FrameUpdate carries one channel's new value. Clients may also send
	// updates, which the hub stores and rebroadcasts.
	FrameUpdate = "update"

	FramePing = "ping"
	FramePong = "pong"
)

// Frame is the wire message. All frames are JSON text messages.
type Frame struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`

	// Channels carries the hello snapshot.
	Channels map[string]json.RawMessage `json:"channels,omitempty"`

	// Seq is the hub's publish sequence number.
	Seq uint64 `json:"seq,omitempty"`
}

func encodeFrame(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("feed: encode %s frame: %w", f.Type, err)
	}
	return data, nil
}

func decodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("feed: decode frame: %w", err)
	}
	if f.Type == "" {
		return Frame{}, ErrBadFrame
	}
	return f, nil
}
