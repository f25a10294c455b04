package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventstore-sqlite/internal/config"
	"eventstore-sqlite/internal/eventstore"
	"eventstore-sqlite/internal/store"
)

// fakeEventLog serves NDJSON event lines the way the converter's
// source collaborator expects them.
func fakeEventLog(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/streams/$all" {
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
			return
		}
		// Probe reads of unknown streams land here.
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func eventLine(id string, recordedAt string, data string) string {
	return fmt.Sprintf(`{"id":%q,"type":"TestEvent","stream_name":"test-stream","recorded_at":%q,"data":%s,"stream_position":1}`,
		id, recordedAt, data)
}

func testRunConfig(t *testing.T, uri string, batchSize, commitFrequency int) config.Config {
	t.Helper()
	cfg, err := config.New(config.Config{
		EventStoreURI:   uri,
		DBPath:          filepath.Join(t.TempDir(), "events.db"),
		BatchSize:       batchSize,
		CommitFrequency: commitFrequency,
		ValidateData:    true,
		CreateIndexes:   true,
	})
	require.NoError(t, err)
	return cfg
}

func openSnapshot(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConvertEndToEnd(t *testing.T) {
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, eventLine(
			fmt.Sprintf("evt-%d", i),
			fmt.Sprintf("2023-01-01T12:00:%02dZ", i),
			fmt.Sprintf(`{"n":%d}`, i),
		))
	}
	srv := fakeEventLog(t, lines)
	cfg := testRunConfig(t, srv.URL, 3, 2)

	stats, err := Convert(context.Background(), cfg)
	require.NoError(t, err)

	// 10 events with batch_size=3 flush as 3,3,3,1.
	assert.Equal(t, int64(10), stats.TotalEvents)
	assert.Equal(t, int64(10), stats.EventsThisSession)
	assert.Equal(t, int64(4), stats.BatchesProcessed)
	assert.Equal(t, int64(0), stats.SkippedEvents)
	assert.Greater(t, stats.DatabaseSizeBytes, int64(0))

	db := openSnapshot(t, cfg.DBPath)
	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&rows))
	assert.Equal(t, 10, rows)

	var total string
	require.NoError(t, db.QueryRow(`SELECT value FROM conversion_metadata WHERE key='total_events'`).Scan(&total))
	assert.Equal(t, "10", total)

	var lastConversion string
	require.NoError(t, db.QueryRow(`SELECT value FROM conversion_metadata WHERE key='last_conversion'`).Scan(&lastConversion))
	assert.NotEmpty(t, lastConversion)
}

func TestConvertSkipsInvalidEvents(t *testing.T) {
	// One of three events carries invalid UTF-8 (base64 of 0xff 0xfe
	// 0xfd) marked as binary.
	lines := []string{
		eventLine("evt-good-1", "2023-01-01T12:00:01Z", `{"n":1}`),
		`{"id":"evt-bad","type":"TestEvent","stream_name":"test-stream","recorded_at":"2023-01-01T12:00:02Z","data":"//79","content_type":"application/octet-stream"}`,
		eventLine("evt-good-2", "2023-01-01T12:00:03Z", `{"n":2}`),
	}
	srv := fakeEventLog(t, lines)
	cfg := testRunConfig(t, srv.URL, 10, 2)

	stats, err := Convert(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalEvents)
	assert.Equal(t, int64(1), stats.SkippedEvents)

	db := openSnapshot(t, cfg.DBPath)
	var badRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE id='evt-bad'`).Scan(&badRows))
	assert.Equal(t, 0, badRows, "the invalid event must not reach the store")

	// Bookkeeping reflects the processed counter, not the skips.
	var total string
	require.NoError(t, db.QueryRow(`SELECT value FROM conversion_metadata WHERE key='total_events'`).Scan(&total))
	assert.Equal(t, "2", total)
}

func TestConvertKeepsInvalidEventsWithoutValidation(t *testing.T) {
	lines := []string{
		`{"id":"evt-bin","type":"TestEvent","stream_name":"test-stream","recorded_at":"2023-01-01T12:00:01Z","data":"//79","content_type":"application/octet-stream"}`,
	}
	srv := fakeEventLog(t, lines)
	cfg := testRunConfig(t, srv.URL, 10, 2)
	cfg.ValidateData = false

	stats, err := Convert(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalEvents)
	assert.Equal(t, int64(0), stats.SkippedEvents)

	// Stored with an absent payload.
	db := openSnapshot(t, cfg.DBPath)
	var data sql.NullString
	require.NoError(t, db.QueryRow(`SELECT data FROM events WHERE id='evt-bin'`).Scan(&data))
	assert.False(t, data.Valid)
}

func TestConvertEmptySource(t *testing.T) {
	srv := fakeEventLog(t, nil)
	cfg := testRunConfig(t, srv.URL, 3, 2)

	stats, err := Convert(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalEvents)
	assert.Equal(t, int64(0), stats.BatchesProcessed)
	assert.Equal(t, float64(0), stats.EventsPerSecond)
	assert.Equal(t, int64(0), stats.SkippedEvents)

	// Bookkeeping is written even for an empty run.
	db := openSnapshot(t, cfg.DBPath)
	var total string
	require.NoError(t, db.QueryRow(`SELECT value FROM conversion_metadata WHERE key='total_events'`).Scan(&total))
	assert.Equal(t, "0", total)
}

func TestConvertStoreFailureAborts(t *testing.T) {
	// A recorded_at before the epoch violates the destination's
	// recorded_at > 0 constraint, so the first flush fails mid-run.
	lines := []string{
		eventLine("evt-1", "2023-01-01T12:00:01Z", `{"n":1}`),
		eventLine("evt-old", "1960-01-01T00:00:00Z", `{"n":2}`),
	}
	srv := fakeEventLog(t, lines)
	cfg := testRunConfig(t, srv.URL, 2, 1)

	_, err := Convert(context.Background(), cfg)
	require.Error(t, err)

	var serr *store.StoreError
	assert.True(t, errors.As(err, &serr), "got %v", err)

	// The failed batch is dropped, not retried: the offending row
	// never lands, even via the cleanup path.
	db := openSnapshot(t, cfg.DBPath)
	var badRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE id='evt-old'`).Scan(&badRows))
	assert.Equal(t, 0, badRows)
}

func TestConvertConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing is listening anymore

	cfg := testRunConfig(t, srv.URL, 3, 2)

	_, err := Convert(context.Background(), cfg)
	require.Error(t, err)

	var cerr *eventstore.ConnectionError
	assert.True(t, errors.As(err, &cerr))
}

func TestConvertCancelledContext(t *testing.T) {
	var lines []string
	for i := 1; i <= 100; i++ {
		lines = append(lines, eventLine(
			fmt.Sprintf("evt-%d", i),
			fmt.Sprintf("2023-01-01T12:%02d:00Z", i%60),
			`"`+strings.Repeat("x", 1024)+`"`,
		))
	}
	srv := fakeEventLog(t, lines)
	cfg := testRunConfig(t, srv.URL, 5, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Convert(ctx, cfg)
	require.Error(t, err)
}
