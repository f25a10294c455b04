package eventstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventstore-sqlite/internal/model"
)

func serveLines(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/streams/$all" {
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnect(t *testing.T) {
	t.Run("rejects unsupported uris", func(t *testing.T) {
		for _, uri := range []string{"", "esdb://localhost:2113", "not a uri", "http://"} {
			_, err := Connect(uri)
			var cerr *ConnectionError
			assert.True(t, errors.As(err, &cerr), "uri %q", uri)
		}
	})

	t.Run("tolerates probe 404", func(t *testing.T) {
		srv := serveLines(t)
		c, err := Connect(srv.URL)
		require.NoError(t, err)
		c.Close()
	})

	t.Run("reports transport failures", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := Connect(srv.URL)
		var cerr *ConnectionError
		require.True(t, errors.As(err, &cerr))
	})
}

func TestReadAllDecodesPayloadKinds(t *testing.T) {
	srv := serveLines(t,
		`{"id":"evt-text","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:00Z","data":"plain text"}`,
		`{"id":"evt-absent","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:01Z"}`,
		`{"id":"evt-null","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:02Z","data":null}`,
		`{"id":"evt-struct","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:03Z","data":{"n":1}}`,
		`{"id":"evt-bin","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:04Z","data":"aGVsbG8=","content_type":"application/octet-stream"}`,
	)

	c, err := Connect(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	it, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	defer it.Stop()

	var events []model.RawEvent
	for it.Next() {
		events = append(events, it.Event())
	}
	require.NoError(t, it.Err())
	require.Len(t, events, 5)

	assert.Equal(t, "plain text", events[0].Data)
	assert.Nil(t, events[1].Data)
	assert.Nil(t, events[2].Data)
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, events[3].Data)
	assert.Equal(t, []byte("hello"), events[4].Data)
}

func TestReadAllDecodesPositions(t *testing.T) {
	srv := serveLines(t,
		`{"id":"evt-1","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:00Z","stream_position":7,"commit_position":100,"retry_count":0,"created":"2023-01-01T11:59:00Z"}`,
	)

	c, err := Connect(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	it, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	defer it.Stop()

	require.True(t, it.Next())
	ev := it.Event()

	require.NotNil(t, ev.Position.StreamPosition)
	assert.Equal(t, uint64(7), *ev.Position.StreamPosition)
	require.NotNil(t, ev.Position.CommitPosition)
	assert.Equal(t, uint64(100), *ev.Position.CommitPosition)
	require.NotNil(t, ev.Position.RetryCount)
	assert.Equal(t, 0, *ev.Position.RetryCount)
	require.NotNil(t, ev.Position.Created)
	assert.Equal(t, time.Date(2023, 1, 1, 11, 59, 0, 0, time.UTC), ev.Position.Created.UTC())
	assert.Nil(t, ev.Position.PreparePosition)
	assert.Nil(t, ev.Position.Link)

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	srv := serveLines(t,
		``,
		`{"id":"evt-1","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:00Z"}`,
		``,
	)

	c, err := Connect(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	it, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	defer it.Stop()

	count := 0
	for it.Next() {
		count++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 1, count)
}

func TestReadAllReportsDecodeErrors(t *testing.T) {
	srv := serveLines(t, `{not json}`)

	c, err := Connect(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	it, err := c.ReadAll(context.Background())
	require.NoError(t, err)
	defer it.Stop()

	assert.False(t, it.Next())
	assert.Error(t, it.Err())
}

func TestIteratorStopIsIdempotent(t *testing.T) {
	srv := serveLines(t,
		`{"id":"evt-1","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:00Z"}`,
		`{"id":"evt-2","type":"A","stream_name":"s","recorded_at":"2023-01-01T12:00:01Z"}`,
	)

	c, err := Connect(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	it, err := c.ReadAll(context.Background())
	require.NoError(t, err)

	require.True(t, it.Next())
	it.Stop()
	it.Stop()

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestReadAllRespectsContext(t *testing.T) {
	srv := serveLines(t)

	c, err := Connect(srv.URL)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.ReadAll(ctx)
	var cerr *ConnectionError
	require.True(t, errors.As(err, &cerr))
}
