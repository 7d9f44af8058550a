package stream

import (
	"encoding/json"
	"time"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/pkg/timestamp"
)

// Record is one individual data point from the feed: any JSON value.
type Record any

// Kind classifies one unit of change delivered from the source.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindBatch  Kind = "batch"
)

// SourceRealtime is the envelope source recorded when a frame does not
// carry its own.
const SourceRealtime = "realtime"

// Envelope is the normalized representation of one inbound update,
// regardless of source transport. Payload is ordered and never empty; it
// holds exactly one record unless Kind is batch.
type Envelope struct {
	Kind      Kind           `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   []Record       `json:"payload"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// normalizeFrame converts a raw inbound frame into an Envelope. Rules, in
// order of precedence:
//
//  1. A JSON array is a batch: payload = the elements in order.
//  2. A JSON object with non-empty "type" and non-null "data" fields maps
//     kind and payload from those fields. The frame's own "source",
//     "metadata", and "timestamp" are carried through when present.
//  3. Anything else is an insert with the raw value as its single record.
//
// A frame that does not decode as JSON, or that normalizes to an empty
// payload, is malformed.
func normalizeFrame(raw []byte) (Envelope, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return Envelope{}, errors.WrapInvalid(err, "stream", "normalizeFrame", "decode frame")
	}

	switch v := value.(type) {
	case []any:
		if len(v) == 0 {
			return Envelope{}, errors.WrapInvalid(errors.ErrEmptyPayload,
				"stream", "normalizeFrame", "batch frame carries no records")
		}
		return Envelope{
			Kind:      KindBatch,
			Timestamp: time.Now(),
			Payload:   toRecords(v),
			Source:    SourceRealtime,
		}, nil

	case map[string]any:
		kind, hasKind := v["type"].(string)
		data, hasData := v["data"]
		if hasKind && kind != "" && hasData && data != nil {
			payload := toRecords(data)
			if len(payload) == 0 {
				return Envelope{}, errors.WrapInvalid(errors.ErrEmptyPayload,
					"stream", "normalizeFrame", "typed frame carries no records")
			}
			env := Envelope{
				Kind:      Kind(kind),
				Timestamp: frameTimestamp(v["timestamp"]),
				Payload:   payload,
				Source:    SourceRealtime,
			}
			if src, ok := v["source"].(string); ok && src != "" {
				env.Source = src
			}
			if meta, ok := v["metadata"].(map[string]any); ok {
				env.Metadata = meta
			}
			return env, nil
		}
	}

	return Envelope{
		Kind:      KindInsert,
		Timestamp: time.Now(),
		Payload:   []Record{value},
		Source:    SourceRealtime,
	}, nil
}

// toRecords flattens a payload value into ordered records. Arrays become
// their elements; any other value is a single record.
func toRecords(v any) []Record {
	switch vv := v.(type) {
	case []any:
		records := make([]Record, len(vv))
		for i, item := range vv {
			records[i] = item
		}
		return records
	case nil:
		return nil
	default:
		return []Record{v}
	}
}

// frameTimestamp interprets a frame's timestamp field: unix seconds or
// milliseconds as a number, RFC 3339 or a numeric epoch as a string.
// Anything unparseable reads as now.
func frameTimestamp(v any) time.Time {
	if ms := timestamp.Parse(v); ms != 0 {
		return timestamp.ToTime(ms)
	}
	return time.Now()
}
