package model

import "time"

// RawEvent is a single event as read from the remote event log.
// Only ID, Type, StreamName and RecordedAt are guaranteed to be set.
type RawEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	StreamName string    `json:"stream_name"`
	RecordedAt time.Time `json:"recorded_at"`

	// Data is the event payload: nil (absent), string (text),
	// []byte (binary), or any JSON-decoded value (structured).
	Data interface{} `json:"-"`

	Position LogPosition `json:"position"`
}

// LogPosition carries the log-positioning attributes of an event.
// Every field is optional; nil means the source did not report it.
type LogPosition struct {
	StreamPosition  *uint64    `json:"stream_position,omitempty"`
	CommitPosition  *uint64    `json:"commit_position,omitempty"`
	PreparePosition *uint64    `json:"prepare_position,omitempty"`
	RetryCount      *int       `json:"retry_count,omitempty"`
	Link            *string    `json:"link,omitempty"`
	ContentType     *string    `json:"content_type,omitempty"`
	Created         *time.Time `json:"created,omitempty"`
}
