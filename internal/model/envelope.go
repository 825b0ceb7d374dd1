package model

import "encoding/json"

// Envelope is the wire message on the shared events topic. Type is the
// routing tag (equal to the structural event name); Payload is the
// JSON-encoded event itself.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
