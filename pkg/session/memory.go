package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// ErrClosed is returned by commands on a closed session.
var ErrClosed = errors.New(errors.ErrCodeSessionNotFound, "session closed")

// MemoryStore keeps sessions in process memory. Charts hold live state,
// so sessions cannot be shared across instances.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    transition.Clock
	interval time.Duration
}

// NewMemoryStore creates a store. A zero ttl means [DefaultTTL], a nil
// clock means the wall clock.
func NewMemoryStore(ttl time.Duration, clock transition.Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = transition.SystemClock
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    clock,
		interval: DefaultFrameInterval,
	}
}

// SetFrameInterval changes the tick interval of sessions created later.
// Zero disables background ticking; callers then drive [Session.Tick].
func (s *MemoryStore) SetFrameInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// Clock returns the time source shared by the store and its charts.
func (s *MemoryStore) Clock() transition.Clock { return s.clock }

func (s *MemoryStore) Create(_ context.Context, c *chart.Chart) (*Session, error) {
	if c == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session needs a chart")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := newSession(uuid.NewString(), c, s.clock, s.interval, s.clock.Now().Add(s.ttl))
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	now := s.clock.Now()
	if sess.expired(now) {
		delete(s.sessions, id)
		sess.Close()
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q expired", id)
	}
	sess.touch(now.Add(s.ttl))
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
	return nil
}

func (s *MemoryStore) Cleanup(_ context.Context) (int, error) {
	now := s.clock.Now()
	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.expired(now) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		sess.Close()
	}
	return len(expired), nil
}

// Each calls fn for every live session.
func (s *MemoryStore) Each(fn func(*Session)) {
	s.mu.Lock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.Unlock()
	for _, sess := range list {
		fn(sess)
	}
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close closes every session.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	list := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range list {
		sess.Close()
	}
	return nil
}

// RunCleanup removes expired sessions every interval until ctx ends.
func (s *MemoryStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Cleanup(ctx)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
