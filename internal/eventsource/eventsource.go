// Package eventsource implements a minimal server-sent events client, enough
// to follow the update streams this project serves: event type, data, id and
// retry fields, with automatic reconnection carrying Last-Event-ID.
package eventsource

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetry is the reconnection delay used until the server overrides it
// with a retry field.
const DefaultRetry = 3 * time.Second

// Event is one dispatched server-sent event.
type Event struct {
	Type string
	Data string
	ID   string
}

// Client consumes an SSE stream. Events and Errors stay open until the
// context passed to Run is cancelled; Run owns both channels.
type Client struct {
	Events chan Event
	Errors chan error

	url    string
	http   *http.Client
	retry  time.Duration
	lastID string
}

// New creates a client for the given stream URL. Run must be called before
// any events arrive.
func New(url string) *Client {
	return &Client{
		Events: make(chan Event),
		Errors: make(chan error, 1),
		url:    url,
		http:   &http.Client{},
		retry:  DefaultRetry,
	}
}

// Run connects and dispatches events until ctx is cancelled, reconnecting
// after stream errors with the current retry delay.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.connect(ctx); err != nil && ctx.Err() == nil {
			c.report(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retry):
		}
	}
}

// report delivers an error without blocking; when the consumer is not
// draining Errors, older errors are superseded.
func (c *Client) report(err error) {
	select {
	case c.Errors <- err:
	default:
	}
}

func (c *Client) connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.lastID != "" {
		req.Header.Set("Last-Event-ID", c.lastID)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("eventsource: unexpected status %s", res.Status)
	}
	if ct, _, err := mime.ParseMediaType(res.Header.Get("Content-Type")); err != nil || ct != "text/event-stream" {
		return fmt.Errorf("eventsource: invalid content type %q", res.Header.Get("Content-Type"))
	}

	var data, eventType string
	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data != "" {
				if eventType == "" {
					// SSE default for events without an event field
					eventType = "message"
				}
				ev := Event{
					Type: eventType,
					Data: strings.TrimSuffix(data, "\n"),
					ID:   c.lastID,
				}
				select {
				case c.Events <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			data, eventType = "", ""
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "":
			// comment line
		case "event":
			eventType = value
		case "data":
			data += value + "\n"
		case "id":
			c.lastID = value
		case "retry":
			if ms, err := strconv.ParseUint(value, 10, 32); err == nil {
				c.retry = time.Duration(ms) * time.Millisecond
			}
		default:
			// unknown field, ignored per spec
		}
	}
	return scanner.Err()
}
