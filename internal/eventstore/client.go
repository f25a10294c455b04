package eventstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventstore-sqlite/internal/logger"
	"eventstore-sqlite/internal/model"
)

const (
	// Streamed event lines may carry payloads past the 1 MiB
	// validation cap; the scanner buffer has to hold them anyway so
	// the normalizer can reject them.
	maxLineSize = 8 * 1024 * 1024

	contentTypeBinary = "application/octet-stream"
)

// ConnectionError means the event log could not be reached.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("eventstore connection failed: %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Client reads events from a remote event log over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Connect validates the URI and probes the event log by reading a
// stream that cannot exist. Any HTTP response, including 404, means
// the log is reachable; only transport failures are connection
// errors.
func Connect(uri string) (*Client, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, &ConnectionError{URI: uri, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConnectionError{URI: uri, Err: fmt.Errorf("unsupported uri %q", uri)}
	}

	c := &Client{
		baseURL: strings.TrimRight(uri, "/"),
		httpc:   &http.Client{},
	}

	probe := c.baseURL + "/streams/" + uuid.NewString() + "?limit=1"
	resp, err := c.httpc.Get(probe)
	if err != nil {
		return nil, &ConnectionError{URI: uri, Err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	logger.Info("connected to event log", "uri", uri)
	return c, nil
}

// ReadAll opens a lazy, single-pass read over the full event log.
// The returned iterator must be stopped on every exit path.
func (c *Client) ReadAll(ctx context.Context) (*Iterator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/streams/$all", nil)
	if err != nil {
		return nil, &ConnectionError{URI: c.baseURL, Err: err}
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ConnectionError{URI: c.baseURL, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &ConnectionError{URI: c.baseURL, Err: fmt.Errorf("unexpected status %s reading $all", resp.Status)}
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Iterator{body: resp.Body, scanner: sc}, nil
}

// Close releases idle connections. It never fails.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
	logger.Debug("event log client closed")
}

// Iterator is a pull iterator over a stream of raw events. It is not
// restartable and not safe for concurrent use.
type Iterator struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	cur     model.RawEvent
	err     error
	stopped bool
}

// Next advances to the next event. It returns false at end of stream,
// after Stop, or on a decode/transport error (see Err).
func (it *Iterator) Next() bool {
	if it.stopped || it.err != nil {
		return false
	}
	for it.scanner.Scan() {
		line := bytes.TrimSpace(it.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := decodeEvent(line)
		if err != nil {
			it.err = fmt.Errorf("decode event: %w", err)
			return false
		}
		it.cur = ev
		return true
	}
	if err := it.scanner.Err(); err != nil && !it.stopped {
		it.err = err
	}
	return false
}

// Event returns the event read by the last successful Next.
func (it *Iterator) Event() model.RawEvent { return it.cur }

// Err reports the first error hit while reading. A stopped iterator
// reports no error.
func (it *Iterator) Err() error {
	if it.stopped {
		return nil
	}
	return it.err
}

// Stop terminates the read early and releases the underlying stream.
// Safe to call more than once.
func (it *Iterator) Stop() {
	if it.stopped {
		return
	}
	it.stopped = true
	it.body.Close()
}

// wireEvent is the NDJSON representation of one event on the wire.
type wireEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	StreamName string          `json:"stream_name"`
	RecordedAt time.Time       `json:"recorded_at"`
	Data       json.RawMessage `json:"data"`

	StreamPosition  *uint64    `json:"stream_position"`
	CommitPosition  *uint64    `json:"commit_position"`
	PreparePosition *uint64    `json:"prepare_position"`
	RetryCount      *int       `json:"retry_count"`
	Link            *string    `json:"link"`
	ContentType     *string    `json:"content_type"`
	Created         *time.Time `json:"created"`
}

func decodeEvent(line []byte) (model.RawEvent, error) {
	var we wireEvent
	if err := json.Unmarshal(line, &we); err != nil {
		return model.RawEvent{}, err
	}

	ev := model.RawEvent{
		ID:         we.ID,
		Type:       we.Type,
		StreamName: we.StreamName,
		RecordedAt: we.RecordedAt,
		Position: model.LogPosition{
			StreamPosition:  we.StreamPosition,
			CommitPosition:  we.CommitPosition,
			PreparePosition: we.PreparePosition,
			RetryCount:      we.RetryCount,
			Link:            we.Link,
			ContentType:     we.ContentType,
			Created:         we.Created,
		},
	}

	data, err := decodeData(we.Data, we.ContentType)
	if err != nil {
		return model.RawEvent{}, err
	}
	ev.Data = data
	return ev, nil
}

// decodeData maps the wire payload onto the payload kinds the
// normalizer understands: absent, text, binary, or structured.
func decodeData(raw json.RawMessage, contentType *string) (interface{}, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		// Binary payloads travel as base64-encoded strings.
		if contentType != nil && *contentType == contentTypeBinary {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				// Not valid base64: hand the raw bytes through and
				// let validation decide.
				return []byte(s), nil
			}
			return b, nil
		}
		return s, nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
