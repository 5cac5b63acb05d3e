// Package protocol defines the JSON frames exchanged over the chat
// WebSocket: a named event with an optional request id and a payload.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Tyrowin/heyframe/internal/chat"
)

// Inbound events, client to server.
const (
	EventSetNickname = "set_nickname"
	EventSendMessage = "send_message"
)

// EventAck is the reply correlated to an inbound request id.
const EventAck = "ack"

// ErrMissingEvent is returned when a frame has no event name.
var ErrMissingEvent = errors.New("frame has no event")

// Envelope wraps every frame. ID is set by the client when it wants an
// acknowledgement, and echoed back on the matching ack.
type Envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NicknameAck is the acknowledgement payload for set_nickname.
type NicknameAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Decode parses one inbound frame.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// Nickname returns the requested nickname of a set_nickname frame.
func (e Envelope) Nickname() (string, error) {
	var nickname string
	if err := json.Unmarshal(e.Data, &nickname); err != nil {
		return "", fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nickname, nil
}

// Draft returns the message of a send_message frame.
func (e Envelope) Draft() (chat.Draft, error) {
	var draft chat.Draft
	if err := json.Unmarshal(e.Data, &draft); err != nil {
		return chat.Draft{}, fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return draft, nil
}

// Encode renders an outbound chat event as a frame.
func Encode(ev chat.Event) ([]byte, error) {
	return marshal(string(ev.Name), "", ev.Payload)
}

// EncodeAck renders the acknowledgement for request id.
func EncodeAck(id string, payload any) ([]byte, error) {
	return marshal(EventAck, id, payload)
}

func marshal(event, id string, payload any) ([]byte, error) {
	env := Envelope{Event: event, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
