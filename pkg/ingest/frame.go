package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mash-protocol/valuefor/pkg/message"
)

// Frame errors.
var (
	ErrMissingNode    = errors.New("frame has no node")
	ErrMissingMessage = errors.New("frame has neither msg nor payload")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrFrameTooLarge  = errors.New("frame too large")
)

// Frame is one inbound line.
type Frame struct {
	Node    string          `json:"node"`
	Token   string          `json:"token,omitempty"`
	Msg     message.Message `json:"msg,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the answer written for each frame.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DecodeFrame parses a line into a frame.
func DecodeFrame(line []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(line, &f); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	if f.Node == "" {
		return nil, ErrMissingNode
	}
	if f.Msg == nil && len(f.Payload) == 0 {
		return nil, ErrMissingMessage
	}
	return &f, nil
}

// Message returns the message carried by the frame. A bare payload is
// wrapped as {"payload": value}.
func (f *Frame) Message() (message.Message, error) {
	if f.Msg != nil {
		return f.Msg, nil
	}
	var v any
	if err := json.Unmarshal(f.Payload, &v); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return message.Message{message.DefaultField: v}, nil
}

func encodeReply(err error) []byte {
	r := Reply{OK: err == nil}
	if err != nil {
		r.Error = err.Error()
	}
	data, _ := json.Marshal(r)
	return append(data, '\n')
}
