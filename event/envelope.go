package event

import (
	"encoding/json"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the wire frame: a named event with an optional JSON payload
type Envelope struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrEmptyEvent rejects frames without an event name
var ErrEmptyEvent = errors.New("frame has no event name")

// DecodeEnvelope parses an inbound frame
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrEmptyEvent
	}
	return env, nil
}

// EncodeFrame renders an outbound frame; payload may be nil
func EncodeFrame(name Name, payload any) ([]byte, error) {
	env := Envelope{Event: name}
	if payload != nil {
		raw, err := codec.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", name, err)
		}
		env.Data = raw
	}
	out, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", name, err)
	}
	return out, nil
}

// DecodeData parses an envelope payload into dst
func DecodeData(env Envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%s: missing payload", env.Event)
	}
	if err := codec.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("%s: malformed payload: %w", env.Event, err)
	}
	return nil
}
