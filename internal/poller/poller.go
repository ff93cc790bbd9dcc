// Package poller drives the match list: it fetches the stats source on a
// fixed interval, normalizes the response, and keeps the latest snapshot for
// the page and the update stream.
package poller

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"

	"github.com/aoeboard/aoeboard/internal/metrics"
	"github.com/aoeboard/aoeboard/internal/notify"
	"github.com/aoeboard/aoeboard/internal/stats"
)

// Poller polls a stats source URL. A new fetch is issued every interval
// regardless of whether the previous one completed; each fetch carries a
// sequence number and a completion only applies if no later fetch has
// completed before it, so an overlapping stale response never overwrites a
// fresher snapshot.
type Poller struct {
	URL      string
	Interval time.Duration
	Updates  *notify.Hub[[]stats.Match]

	client *http.Client
	seq    atomic.Uint64

	mu       sync.RWMutex
	applied  uint64
	snapshot []stats.Match
}

func New(url string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		URL:      url,
		Interval: interval,
		Updates:  notify.NewHub[[]stats.Match](),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Snapshot returns the most recently applied match list, newest first.
func (p *Poller) Snapshot() []stats.Match {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Run polls until done is closed. Stopping cancels the interval only;
// fetches already in flight are abandoned, not aborted, and their late
// completions are discarded by the sequence guard.
func (p *Poller) Run(done <-chan struct{}) {
	go p.poll(p.seq.Add(1))
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			go p.poll(p.seq.Add(1))
		}
	}
}

// poll runs one fetch-normalize-apply cycle. Any failure leaves the current
// snapshot untouched: stale-but-valid beats blank.
func (p *Poller) poll(seq uint64) {
	body, err := p.fetch()
	if err != nil {
		log.WithError(err).WithField("url", p.URL).Error("stats fetch failed")
		metrics.PollCycles.WithLabelValues("error").Inc()
		return
	}
	matches, err := stats.Decode(body)
	if err != nil {
		log.WithError(err).Error("stats decode failed")
		metrics.PollCycles.WithLabelValues("error").Inc()
		return
	}
	matches = stats.Displayable(matches)
	stats.SortByRecency(matches)

	p.mu.Lock()
	if seq <= p.applied {
		p.mu.Unlock()
		log.WithField("seq", seq).Debug("discarding stale poll completion")
		metrics.PollCycles.WithLabelValues("stale").Inc()
		return
	}
	// Publishing under the lock keeps the update stream in applied order:
	// an earlier completion can never publish after a later one. Publish
	// never blocks, so holding the lock here is safe.
	changed := !reflect.DeepEqual(p.snapshot, matches)
	p.applied = seq
	p.snapshot = matches
	metrics.MatchesDisplayed.Set(float64(len(matches)))
	if changed {
		p.Updates.Publish(matches)
	}
	p.mu.Unlock()

	metrics.PollCycles.WithLabelValues("ok").Inc()
}

// fetch issues the cache-defeating GET. The request deliberately carries no
// run context so that shutdown abandons in-flight polls instead of aborting
// them.
func (p *Poller) fetch() ([]byte, error) {
	url := fmt.Sprintf("%s?t=%d", p.URL, time.Now().UnixNano())
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats source returned %s", res.Status)
	}
	return io.ReadAll(res.Body)
}
