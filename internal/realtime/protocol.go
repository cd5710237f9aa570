package realtime

import (
	"encoding/json"

	"nego/internal/domain"
)

const (
	// client -> server
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
	MsgPing        = "ping"

	// server -> client
	MsgReady        = "ready"
	MsgSubscribed   = "subscribed"
	MsgUnsubscribed = "unsubscribed"
	MsgPong         = "pong"
	MsgChange       = "change"
	MsgError        = "error"
)

// ClientMessage is anything a subscriber sends us.
type ClientMessage struct {
	Type   string `json:"type"`
	Topic  string `json:"topic,omitempty"`
	Table  string `json:"table,omitempty"`
	Event  string `json:"event,omitempty"`
	Filter string `json:"filter,omitempty"`
}

type ServerMessage struct {
	Type    string              `json:"type"`
	Topic   string              `json:"topic,omitempty"`
	Message string              `json:"message,omitempty"`
	Payload *domain.ChangeEvent `json:"payload,omitempty"`
}

func encode(m ServerMessage) []byte {
	b, _ := json.Marshal(m)
	return b
}
