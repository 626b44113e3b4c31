// Package uploadstate holds the upload URL shared by the upload client and
// the KYC flow. A State is provided through a context and outlives neither
// its provider nor its session.
package uploadstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coinpal/internal/apperr"
)

var ErrOutOfScope = apperr.Wrap(apperr.OutOfScope, errors.New("upload state used outside its provider"))

// State is a single string cell. The zero value is not usable; use Open.
type State struct {
	mu        sync.RWMutex
	url       string
	store     Store
	sessionID string
}

// Open loads sessionID's current value from store. A nil store keeps the
// value in memory only.
func Open(ctx context.Context, store Store, sessionID string) (*State, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	url, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load upload state for session %s: %w", sessionID, err)
	}
	return &State{url: url, store: store, sessionID: sessionID}, nil
}

// Get returns the last URL set, or "" before the first successful Set.
func (s *State) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Set persists url to the session store and then updates the cell. A store
// failure leaves the previous value in place.
func (s *State) Set(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, s.sessionID, url); err != nil {
		return fmt.Errorf("save upload state: %w", err)
	}
	s.url = url
	return nil
}

type ctxKey struct{}

// NewContext returns a child of ctx that provides s to consumers.
func NewContext(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the State provided by an enclosing NewContext.
func FromContext(ctx context.Context) (*State, error) {
	if ctx == nil {
		return nil, ErrOutOfScope
	}
	s, ok := ctx.Value(ctxKey{}).(*State)
	if !ok || s == nil {
		return nil, ErrOutOfScope
	}
	return s, nil
}
