package session

import (
	"sync"

	logger "github.com/sirupsen/logrus"
)

// Persister keeps the credential across process restarts. Implementations
// live in localstore; a nil Persister means the session is memory-only.
type Persister interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	ClearToken() error
}

// Listener is notified after every authorization transition. Callbacks run
// outside the store lock, so a listener may call back into the store.
type Listener func(authorized bool)

// Store owns the bearer credential. Every other component borrows the token
// read-only per request; only Login and Logout may write it.
type Store struct {
	mu        sync.RWMutex
	token     string
	persist   Persister
	listeners map[int]Listener
	nextID    int
}

func NewStore(persist Persister) *Store {
	s := &Store{
		persist:   persist,
		listeners: make(map[int]Listener),
	}
	if persist != nil {
		token, err := persist.LoadToken()
		if err != nil {
			logger.WithError(err).Warn("could not restore persisted credential")
		} else if token != "" {
			s.token = token
			logger.Info("restored persisted credential")
		}
	}
	return s
}

func (s *Store) Login(token string) {
	s.mu.Lock()
	s.token = token
	persist := s.persist
	s.mu.Unlock()

	if persist != nil {
		if err := persist.SaveToken(token); err != nil {
			logger.WithError(err).Warn("could not persist credential")
		}
	}
	s.notify(true)
}

// Logout clears the credential, in memory and at rest. It is idempotent:
// a second call (e.g. a 401 racing an explicit logout) notifies no one.
func (s *Store) Logout() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	persist := s.persist
	s.mu.Unlock()

	if !had {
		return
	}
	if persist != nil {
		if err := persist.ClearToken(); err != nil {
			logger.WithError(err).Warn("could not clear persisted credential")
		}
	}
	s.notify(false)
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Authorized() bool {
	return s.Token() != ""
}

// Subscribe registers a listener and returns its release handle. Callers must
// hold and call the handle symmetrically with Subscribe.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(authorized bool) {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(authorized)
	}
}
