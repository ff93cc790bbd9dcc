package poller

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const (
	oldBody   = `[{"id": 1, "players": [{"name": "Alice"}], "timestamp": "2024-01-01 10:00:00"}]`
	freshBody = `[{"id": 2, "players": [{"name": "Bob"}], "timestamp": "2024-01-02 10:00:00"}]`
)

func TestPollAppliesSnapshot(t *testing.T) {
	var sawBuster atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") != "" {
			sawBuster.Store(true)
		}
		io.WriteString(w, freshBody)
	}))
	defer server.Close()

	p := New(server.URL, time.Hour)
	p.poll(1)

	snap := p.Snapshot()
	if len(snap) != 1 || snap[0].ID != 2 {
		t.Fatalf("snapshot = %+v, want match 2", snap)
	}
	if !sawBuster.Load() {
		t.Error("fetch did not carry a cache-defeating query parameter")
	}
}

func TestStaleCompletionDiscarded(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(arrived)
			<-release
			io.WriteString(w, oldBody)
			return
		}
		io.WriteString(w, freshBody)
	}))
	defer server.Close()

	p := New(server.URL, time.Hour)
	updates := p.Updates.Subscribe()
	defer p.Updates.Unsubscribe(updates)

	// First poll stalls at the server while a later poll completes.
	firstDone := make(chan struct{})
	go func() {
		p.poll(1)
		close(firstDone)
	}()
	<-arrived
	p.poll(2)

	if snap := p.Snapshot(); len(snap) != 1 || snap[0].ID != 2 {
		t.Fatalf("snapshot = %+v, want match 2", snap)
	}

	// Let the stale completion land; it must not clobber the display.
	close(release)
	<-firstDone
	if snap := p.Snapshot(); len(snap) != 1 || snap[0].ID != 2 {
		t.Errorf("snapshot = %+v after stale completion, want match 2", snap)
	}

	// The update stream saw the fresh snapshot and nothing from the stale
	// completion afterwards.
	select {
	case got := <-updates:
		if len(got) != 1 || got[0].ID != 2 {
			t.Errorf("published %+v, want match 2", got)
		}
	default:
		t.Error("fresh snapshot was not published")
	}
	select {
	case got := <-updates:
		t.Errorf("stale completion published %+v", got)
	default:
	}
}

func TestFailedCycleKeepsPreviousSnapshot(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, freshBody)
	}))
	defer server.Close()

	p := New(server.URL, time.Hour)
	p.poll(1)
	fail.Store(true)
	p.poll(2)

	if snap := p.Snapshot(); len(snap) != 1 || snap[0].ID != 2 {
		t.Errorf("snapshot = %+v, want last-known-good match 2", snap)
	}
}

func TestUpdatePublishedOnChange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, freshBody)
	}))
	defer server.Close()

	p := New(server.URL, time.Hour)
	updates := p.Updates.Subscribe()
	defer p.Updates.Unsubscribe(updates)

	p.poll(1)
	select {
	case got := <-updates:
		if len(got) != 1 || got[0].ID != 2 {
			t.Errorf("update = %+v, want match 2", got)
		}
	default:
		t.Fatal("no update published for a changed snapshot")
	}

	// An identical response publishes nothing.
	p.poll(2)
	select {
	case <-updates:
		t.Error("update published for an unchanged snapshot")
	default:
	}
}
