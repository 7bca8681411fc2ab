package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SignalR JSON hub protocol framing.
const recordSeparator = 0x1e

const (
	messageInvocation = 1
	messagePing       = 6
	messageClose      = 7
)

type hubMessage struct {
	Type           int               `json:"type"`
	Target         string            `json:"target,omitempty"`
	Arguments      []json.RawMessage `json:"arguments,omitempty"`
	Error          string            `json:"error,omitempty"`
	AllowReconnect bool              `json:"allowReconnect,omitempty"`
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}

type negotiateResponse struct {
	ConnectionID     string `json:"connectionId"`
	ConnectionToken  string `json:"connectionToken"`
	NegotiateVersion int    `json:"negotiateVersion"`
	URL              string `json:"url,omitempty"`         // Redirect to another service (e.g. Azure SignalR)
	AccessToken      string `json:"accessToken,omitempty"` // Token to use with URL
	Error            string `json:"error,omitempty"`
}

var (
	handshakeRequest = frame([]byte(`{"protocol":"json","version":1}`))
	pingMessage      = frame([]byte(`{"type":6}`))
)

func frame(payload []byte) []byte {
	return append(payload, recordSeparator)
}

// splitRecords returns the complete records of a websocket message.
func splitRecords(data []byte) [][]byte {
	var records [][]byte
	for _, part := range bytes.Split(data, []byte{recordSeparator}) {
		if len(bytes.TrimSpace(part)) > 0 {
			records = append(records, part)
		}
	}
	return records
}

// closeError is returned when the server ends the connection with a close message.
type closeError struct {
	message        string
	allowReconnect bool
}

func (e *closeError) Error() string {
	if e.message == "" {
		return "server closed the connection"
	}
	return fmt.Sprintf("server closed the connection: %s", e.message)
}
