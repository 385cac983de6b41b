package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

var (
	// ErrMalformedFrame means the frame is not a structurally valid envelope.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownKind means the envelope parsed but its kind is outside the closed set.
	ErrUnknownKind = errors.New("unknown message kind")
	// ErrInvalidPayload means the payload is missing fields its kind requires.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is one decoded frame. It is treated as immutable once received.
type Envelope struct {
	Kind      MessageKind
	Payload   Payload
	Timestamp time.Time
}

// Control is the payload of ping/pong frames.
type Control struct {
	Type MessageKind
}

func (c Control) Kind() MessageKind { return c.Type }
func (Control) Validate() error     { return nil }

type wireEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp float64         `json:"timestamp,omitempty"`
}

type outboundEnvelope struct {
	Type      MessageKind `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Decode parses a raw frame. Frames of an unknown kind decode successfully
// into an Unrecognized payload; only structural failures return an error,
// always wrapping ErrMalformedFrame.
func Decode(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := sonic.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if w.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	env := Envelope{
		Kind:      MessageKind(w.Type),
		Timestamp: fromMillis(w.Timestamp),
	}

	switch {
	case env.Kind.IsControl():
		env.Payload = Control{Type: env.Kind}
		return env, nil
	case !env.Kind.Known():
		env.Payload = Unrecognized{Type: w.Type, Raw: append([]byte(nil), w.Payload...)}
		return env, nil
	}

	if isNull(w.Payload) {
		return Envelope{}, fmt.Errorf("%w: %s without payload", ErrMalformedFrame, w.Type)
	}

	payload, err := decodePayload(env.Kind, w.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, w.Type, err)
	}
	env.Payload = payload
	return env, nil
}

func decodePayload(kind MessageKind, raw []byte) (Payload, error) {
	switch kind {
	case KindShowCompetitorContext:
		var batch CompetitorContext
		if err := sonic.Unmarshal(raw, &batch); err != nil {
			return nil, err
		}
		if batch.Competitors != nil {
			return batch, nil
		}
		var single Competitor
		if err := sonic.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		return CompetitorContext{Competitors: []Competitor{single}}, nil

	case KindShowInsight:
		var batch InsightBatch
		if err := sonic.Unmarshal(raw, &batch); err != nil {
			return nil, err
		}
		if batch.Insights != nil {
			return batch, nil
		}
		var single Insight
		if err := sonic.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		return InsightBatch{Insights: []Insight{single}}, nil

	case KindShowNotification:
		var p Notification
		err := sonic.Unmarshal(raw, &p)
		return p, err

	case KindUpdateCompetitorPanel:
		var p CompetitorPanel
		err := sonic.Unmarshal(raw, &p)
		return p, err

	case KindShowProgress:
		var p Progress
		err := sonic.Unmarshal(raw, &p)
		return p, err

	case KindHighlightElement:
		var p Highlight
		err := sonic.Unmarshal(raw, &p)
		return p, err

	case KindShowGraph:
		var p Graph
		err := sonic.Unmarshal(raw, &p)
		return p, err
	}
	return nil, fmt.Errorf("no decoder for %s", kind)
}

// Encode serializes an outbound frame. payload may be nil.
func Encode(kind MessageKind, payload interface{}, ts time.Time) ([]byte, error) {
	data, err := sonic.Marshal(outboundEnvelope{
		Type:      kind,
		Payload:   payload,
		Timestamp: ts.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return data, nil
}

func fromMillis(ms float64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}
