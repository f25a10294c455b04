package model

// NormalizedRecord is a validated, storage-ready event row.
// Produced once per RawEvent and immutable afterwards; the store
// upserts by ID so re-running a conversion is idempotent per event.
type NormalizedRecord struct {
	ID             string  `json:"id"`
	RecordedAt     int64   `json:"recorded_at"` // Unix seconds, always > 0
	EventType      string  `json:"event_type"`
	StreamName     string  `json:"stream_name"`
	Data           *string `json:"data,omitempty"` // nil = absent payload
	SourceMetadata string  `json:"source_metadata"`
}
