// Package session keeps the interactive charts of the HTTP viewer.
//
// Each browser session owns one mounted [chart.Chart]. Commands against a
// session are serialised through [Session.Do]; while transitions run, a
// per-session ticker advances the chart and fans the frames out to
// subscribers (the SSE stream of the viewer).
//
// # Usage
//
//	store := session.NewMemoryStore(session.DefaultTTL, nil)
//	sess, err := store.Create(ctx, c)
//
//	err = sess.Do(func(c *chart.Chart) error {
//	    _, err := c.PressButton(orgtree.Descendant, "a")
//	    return err
//	})
package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/scene"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// Default durations.
const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 30 * time.Minute

	// DefaultFrameInterval is the tick interval of running transitions.
	DefaultFrameInterval = time.Second / 30
)

// subscriberBuffer is the number of frames queued per subscriber before
// frames are dropped.
const subscriberBuffer = 64

// Session is one viewer's chart.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	chart     *chart.Chart
	clock     transition.Clock
	interval  time.Duration
	expiresAt time.Time
	ticking   bool
	closed    bool
	subs      map[chan scene.Frame]struct{}
	done      chan struct{}
}

func newSession(id string, c *chart.Chart, clock transition.Clock, interval time.Duration, expires time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: clock.Now(),
		chart:     c,
		clock:     clock,
		interval:  interval,
		expiresAt: expires,
		subs:      make(map[chan scene.Frame]struct{}),
		done:      make(chan struct{}),
	}
}

// Do runs fn with exclusive access to the chart. When fn leaves
// transitions running, the session ticks them in the background.
func (s *Session) Do(fn func(*chart.Chart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	err := fn(s.chart)
	s.startTicking()
	return err
}

// View runs fn with exclusive access to the chart without starting the
// ticker.
func (s *Session) View(fn func(*chart.Chart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.chart)
}

// Replace swaps the chart, e.g. after the tree was reloaded. Subscribers
// receive the new chart's first frame.
func (s *Session) Replace(c *chart.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chart = c
	s.broadcast(c.Frame())
	s.startTicking()
}

// Subscribe returns a channel of frames and a function to stop receiving.
// The channel is closed when the session closes. Slow subscribers miss
// frames instead of blocking the ticker.
func (s *Session) Subscribe() (<-chan scene.Frame, func()) {
	ch := make(chan scene.Frame, subscriberBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.chart.Frame()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of active subscribers.
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// ExpiresAt returns when the session expires unless touched.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Tick advances the chart to the clock's current time, publishes the frame
// and reports whether transitions are still running. The background ticker
// calls it; hosts with a manual clock may call it directly.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	remaining := s.chart.Tick(s.clock.Now())
	s.broadcast(s.chart.Frame())
	if remaining == 0 {
		s.ticking = false
	}
	return remaining > 0
}

// Close stops the ticker and closes every subscriber channel.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

func (s *Session) touch(expires time.Time) {
	s.mu.Lock()
	s.expiresAt = expires
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

// startTicking must be called with mu held.
func (s *Session) startTicking() {
	if s.ticking || s.interval <= 0 || s.chart.Idle() {
		return
	}
	s.ticking = true
	go s.run()
}

func (s *Session) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.Tick() {
				return
			}
		}
	}
}

// broadcast must be called with mu held.
func (s *Session) broadcast(f scene.Frame) {
	for ch := range s.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// Store is the interface for session storage backends.
type Store interface {
	// Create registers a session for c.
	Create(ctx context.Context, c *chart.Chart) (*Session, error)

	// Get retrieves a live session and extends its lifetime.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete closes and removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup closes and removes expired sessions and returns how many
	// were removed.
	Cleanup(ctx context.Context) (int, error)
}
