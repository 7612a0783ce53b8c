// Package hub provides a thread-safe websocket broadcast hub for
// frame fan-out, using the idiomatic Go channel-based pattern.
package hub

import (
	"encoding/json"
	"time"
)

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message (frame metadata, status)
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (frame bytes)
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// FrameMeta describes the binary frame message that follows it on the
// same connection. Clients pair each meta message with the next
// binary message.
type FrameMeta struct {
	Serial    string    `json:"serial"`
	Seq       uint64    `json:"seq"`
	Mode      string    `json:"mode"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`
}

// Encode marshals the metadata into a JSON hub message.
func (m FrameMeta) Encode() (Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
