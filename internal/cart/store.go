package cart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSubmitInFlight is returned when a settlement for the session is already
// running. The register must never double-submit a sale.
var ErrSubmitInFlight = errors.New("cart: a submission is already in progress")

// Session owns one cart and serializes access to it. Handlers lock the
// session for the duration of a request.
type Session struct {
	ID string

	mu         sync.Mutex
	cart       *Cart
	submitting bool
}

// Lock takes the session lock and returns the cart plus an unlock func.
func (s *Session) Lock() (*Cart, func()) {
	s.mu.Lock()
	return s.cart, s.mu.Unlock
}

// TryBeginSubmit marks the session as submitting. It fails when a submission
// is already in flight.
func (s *Session) TryBeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInFlight
	}
	s.submitting = true
	return nil
}

// EndSubmit clears the submitting flag.
func (s *Session) EndSubmit() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

// ReplaceCart swaps the session's cart, e.g. when resuming a parked one.
func (s *Session) ReplaceCart(c *Cart) {
	s.mu.Lock()
	s.cart = c
	s.mu.Unlock()
}

// Store is the in-memory session registry. Sessions live for the terminal's
// working day; there is no persistence across restarts.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session registry.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session with an empty cart.
func (st *Store) Create() *Session {
	s := &Session{ID: uuid.NewString(), cart: New()}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks a session up by id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	return s, ok
}

// Remove drops a session.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
