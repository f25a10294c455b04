package pipeline

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"eventstore-sqlite/internal/logger"
	"eventstore-sqlite/internal/model"
)

// MaxDataSize is the payload cap enforced when validation is on.
const MaxDataSize = 1024 * 1024 // 1 MiB

// ValidationReason classifies why an event failed validation.
type ValidationReason int

const (
	InvalidEncoding ValidationReason = iota
	Unserializable
	TooLarge
)

// String returns the string representation of the ValidationReason.
func (r ValidationReason) String() string {
	switch r {
	case InvalidEncoding:
		return "invalid encoding"
	case Unserializable:
		return "unserializable payload"
	case TooLarge:
		return "payload too large"
	default:
		return "unknown"
	}
}

// ValidationError is the only locally recovered error in the
// pipeline: the offending event is skipped and the run continues.
type ValidationError struct {
	Reason  ValidationReason
	EventID string
	Detail  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event %s: %s: %s", e.EventID, e.Reason, e.Detail)
}

// Normalize converts one raw event into a storage-ready record.
// Identifier, type, stream name and timestamp are copied or
// defaulted; the payload is resolved per its kind. With validate off,
// undecodable payloads are dropped with a warning instead of failing.
func Normalize(ev model.RawEvent, validate bool) (model.NormalizedRecord, error) {
	data, err := normalizeData(ev, validate)
	if err != nil {
		return model.NormalizedRecord{}, err
	}

	return model.NormalizedRecord{
		ID:             ev.ID,
		RecordedAt:     ev.RecordedAt.Unix(),
		EventType:      orUnknown(ev.Type),
		StreamName:     orUnknown(ev.StreamName),
		Data:           data,
		SourceMetadata: serializeMetadata(ev.Position),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// normalizeData resolves the payload to text. nil means an absent
// payload.
func normalizeData(ev model.RawEvent, validate bool) (*string, error) {
	var text string

	switch d := ev.Data.(type) {
	case nil:
		return nil, nil
	case string:
		text = d
	case []byte:
		if !utf8.Valid(d) {
			if validate {
				return nil, &ValidationError{Reason: InvalidEncoding, EventID: ev.ID, Detail: "payload is not valid UTF-8"}
			}
			logger.Warn("skipping invalid UTF-8 payload", "event_id", ev.ID)
			return nil, nil
		}
		text = string(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			if validate {
				return nil, &ValidationError{Reason: Unserializable, EventID: ev.ID, Detail: err.Error()}
			}
			logger.Warn("skipping non-serializable payload", "event_id", ev.ID)
			return nil, nil
		}
		text = string(b)
	}

	// Oversized payloads pass through unmodified when validation is
	// off; there is no truncation path.
	if validate && len(text) > MaxDataSize {
		return nil, &ValidationError{
			Reason:  TooLarge,
			EventID: ev.ID,
			Detail:  fmt.Sprintf("%d bytes > %d", len(text), MaxDataSize),
		}
	}
	return &text, nil
}

// serializeMetadata renders the log-positioning attributes as JSON,
// omitting absent attributes and converting timestamps to Unix
// seconds. It never fails.
func serializeMetadata(p model.LogPosition) string {
	m := make(map[string]interface{})
	if p.StreamPosition != nil {
		m["stream_position"] = *p.StreamPosition
	}
	if p.CommitPosition != nil {
		m["commit_position"] = *p.CommitPosition
	}
	if p.PreparePosition != nil {
		m["prepare_position"] = *p.PreparePosition
	}
	if p.RetryCount != nil {
		m["retry_count"] = *p.RetryCount
	}
	if p.Link != nil {
		m["link"] = *p.Link
	}
	if p.ContentType != nil {
		m["content_type"] = *p.ContentType
	}
	if p.Created != nil {
		m["created"] = p.Created.Unix()
	}

	b, err := json.Marshal(m)
	if err != nil {
		// Map of scalars cannot fail to marshal; keep the record
		// rather than the run.
		return "{}"
	}
	return string(b)
}
