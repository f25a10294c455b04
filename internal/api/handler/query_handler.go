package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"eventstore-sqlite/internal/model"
	"eventstore-sqlite/pkg/utils"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// Query serves read-only lookups against a converted snapshot
// database. It never writes.
type Query struct {
	db     *sql.DB
	dbPath string
}

// NewQuery wraps an open snapshot database.
func NewQuery(db *sql.DB, dbPath string) *Query {
	return &Query{db: db, dbPath: dbPath}
}

// EventRow is one stored event as returned by the API.
type EventRow struct {
	ID             string  `json:"id"`
	RecordedAt     int64   `json:"recorded_at"`
	EventType      string  `json:"event_type"`
	StreamName     string  `json:"stream_name"`
	Data           *string `json:"data,omitempty"`
	SourceMetadata string  `json:"source_metadata"`
	ProcessedAt    int64   `json:"processed_at"`
}

// StreamSummary is the per-stream event count.
type StreamSummary struct {
	StreamName string `json:"stream_name"`
	EventCount int64  `json:"event_count"`
}

// MetadataEntry is one conversion bookkeeping row.
type MetadataEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt int64  `json:"updated_at"`
}

// GetStats returns snapshot-wide statistics
// @Summary Snapshot statistics
// @Description Total event count, recorded_at range, and database size
// @Tags snapshot
// @Produce json
// @Success 200 {object} model.StoreStats "Snapshot statistics"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /stats [get]
func (q *Query) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := model.StoreStats{
		DatabaseSizeBytes: utils.FileSize(q.dbPath),
	}

	if err := q.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&stats.TotalEvents); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	var oldest, newest sql.NullInt64
	if err := q.db.QueryRow(`SELECT MIN(recorded_at), MAX(recorded_at) FROM events`).Scan(&oldest, &newest); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}
	if oldest.Valid {
		stats.OldestRecordedAt = &oldest.Int64
	}
	if newest.Valid {
		stats.NewestRecordedAt = &newest.Int64
	}

	writeJSON(w, stats)
}

// ListEvents returns stored events with optional filters
// @Summary List events
// @Description Stored events ordered by recorded_at, filterable by stream and type
// @Tags snapshot
// @Produce json
// @Param stream query string false "Filter by stream name"
// @Param type query string false "Filter by event type"
// @Param limit query int false "Maximum rows to return (default 100, cap 1000)"
// @Success 200 {array} handler.EventRow "Matching events"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /events [get]
func (q *Query) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, recorded_at, event_type, stream_name, data, source_metadata, processed_at FROM events`
	var (
		where []string
		args  []interface{}
	)
	if stream := r.URL.Query().Get("stream"); stream != "" {
		where = append(where, "stream_name = ?")
		args = append(args, stream)
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		where = append(where, "event_type = ?")
		args = append(args, typ)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY recorded_at LIMIT ?"
	args = append(args, parseLimit(r.URL.Query().Get("limit")))

	rows, err := q.db.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}
	defer rows.Close()

	events := make([]EventRow, 0)
	for rows.Next() {
		var (
			ev   EventRow
			data sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.RecordedAt, &ev.EventType, &ev.StreamName, &data, &ev.SourceMetadata, &ev.ProcessedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to scan event")
			return
		}
		if data.Valid {
			ev.Data = &data.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read events")
		return
	}

	writeJSON(w, events)
}

// ListStreams returns the distinct stream names
// @Summary List streams
// @Description Distinct stream names with event counts
// @Tags snapshot
// @Produce json
// @Success 200 {array} handler.StreamSummary "Streams"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /streams [get]
func (q *Query) ListStreams(w http.ResponseWriter, r *http.Request) {
	rows, err := q.db.Query(`SELECT stream_name, COUNT(*) FROM events GROUP BY stream_name ORDER BY stream_name`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query streams")
		return
	}
	defer rows.Close()

	streams := make([]StreamSummary, 0)
	for rows.Next() {
		var s StreamSummary
		if err := rows.Scan(&s.StreamName, &s.EventCount); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to scan stream")
			return
		}
		streams = append(streams, s)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read streams")
		return
	}

	writeJSON(w, streams)
}

// GetMetadata returns conversion bookkeeping entries
// @Summary Conversion metadata
// @Description Key/value bookkeeping written by the converter
// @Tags snapshot
// @Produce json
// @Success 200 {array} handler.MetadataEntry "Metadata entries"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /metadata [get]
func (q *Query) GetMetadata(w http.ResponseWriter, r *http.Request) {
	rows, err := q.db.Query(`SELECT key, value, updated_at FROM conversion_metadata ORDER BY key`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query metadata")
		return
	}
	defer rows.Close()

	entries := make([]MetadataEntry, 0)
	for rows.Next() {
		var m MetadataEntry
		if err := rows.Scan(&m.Key, &m.Value, &m.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to scan metadata")
			return
		}
		entries = append(entries, m)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read metadata")
		return
	}

	writeJSON(w, entries)
}

func parseLimit(raw string) int {
	limit := defaultEventLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
