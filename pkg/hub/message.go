// Package hub fans out view updates and call audio to the websocket
// connections of open interview pages, and hands frames sent by those pages
// back to a single receiver.
//
// Views are state: only the newest one matters, so pending views are
// coalesced and the newest is replayed to every page that connects later.
// Audio is a stream and is queued in order.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType distinguishes view updates from audio frames.
type MessageType int

const (
	// JSONMessage is an encoded view or action, sent as a text frame.
	JSONMessage MessageType = iota
	// BinaryMessage is little-endian 16-bit PCM, sent as a binary frame.
	BinaryMessage
)

func (t MessageType) String() string {
	if t == BinaryMessage {
		return "binary"
	}
	return "json"
}

// Message is one websocket frame travelling through the hub.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps already encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps an audio frame.
func NewBinaryMessage(pcm []byte) Message {
	return Message{Type: BinaryMessage, Data: pcm}
}

// frameType returns the websocket frame type m is written as.
func (m Message) frameType() int {
	if m.Type == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// fromFrame converts a data frame read from a page. ok is false for
// control frames.
func fromFrame(frameType int, data []byte) (m Message, ok bool) {
	switch frameType {
	case websocket.TextMessage:
		return NewJSONMessage(data), true
	case websocket.BinaryMessage:
		return NewBinaryMessage(data), true
	default:
		return Message{}, false
	}
}
