package model

// StoreStats is a point-in-time snapshot of the destination store.
type StoreStats struct {
	TotalEvents       int64  `json:"total_events"`
	EventsThisSession int64  `json:"events_processed_this_session"`
	BatchesProcessed  int64  `json:"batches_processed"`
	OldestRecordedAt  *int64 `json:"oldest_recorded_at,omitempty"`
	NewestRecordedAt  *int64 `json:"newest_recorded_at,omitempty"`
	DatabaseSizeBytes int64  `json:"database_size_bytes"`
}

// RunStats is the final report for one conversion run.
type RunStats struct {
	StoreStats

	DurationSeconds float64 `json:"conversion_duration_seconds"`
	EventsPerSecond float64 `json:"events_per_second"`
	SkippedEvents   int64   `json:"skipped_events"`
}
