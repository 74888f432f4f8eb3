package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrSessionNotFound is returned for unknown or expired cart sessions.
	ErrSessionNotFound = errors.New("cart session not found")
	// ErrTooManySessions is returned by Create when the store is full.
	ErrTooManySessions = errors.New("too many open cart sessions")
)

// View is a read-only copy of a session's cart.
type View struct {
	ID    uuid.UUID
	Lines []Line
	Total decimal.Decimal
}

type session struct {
	mu      sync.Mutex
	cart    *Cart
	touched time.Time
}

func (s *session) view(id uuid.UUID) View {
	return View{ID: id, Lines: s.cart.Lines(), Total: s.cart.Total()}
}

// Store keeps one cart per screen session in memory. Sessions never share
// state; each one has its own lock so a checkout only blocks its own cart.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	ttl      time.Duration
	limit    int
	now      func() time.Time
}

// NewStore creates a Store whose idle sessions expire after ttl and which
// holds at most limit sessions. A limit <= 0 means no limit.
func NewStore(ttl time.Duration, limit int) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*session),
		ttl:      ttl,
		limit:    limit,
		now:      time.Now,
	}
}

// Create opens a new empty session. When the store is full, idle sessions
// are swept first; ErrTooManySessions is returned if it is still full.
func (s *Store) Create() (View, error) {
	id := uuid.New()
	sess := &session{cart: New(), touched: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.sessions) >= s.limit {
		s.sweepLocked()
		if len(s.sessions) >= s.limit {
			return View{}, ErrTooManySessions
		}
	}
	s.sessions[id] = sess

	return sess.view(id), nil
}

// Get returns the current cart of a session.
func (s *Store) Get(id uuid.UUID) (View, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = s.now()
	return sess.view(id), nil
}

// Dispatch applies actions to a session's cart and returns the result.
func (s *Store) Dispatch(id uuid.UUID, actions ...Action) (View, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cart.Apply(actions...)
	sess.touched = s.now()
	return sess.view(id), nil
}

// Checkout hands the session's lines to submit while holding the session
// lock. The cart is cleared only when submit succeeds.
func (s *Store) Checkout(id uuid.UUID, submit func(lines []Line) error) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = s.now()
	if err := submit(sess.cart.Lines()); err != nil {
		return err
	}
	sess.cart.Clear()
	return nil
}

// Delete discards a session. It reports whether the session existed.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			// In use right now, so not idle.
			continue
		}
		idle := sess.touched.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("cart: swept %d idle sessions", n)
			}
		}
	}
}

func (s *Store) lookup(id uuid.UUID) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
