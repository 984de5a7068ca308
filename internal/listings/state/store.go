package state

import "sync"

// Store owns the current View of one variant.
type Store struct {
	mu   sync.Mutex
	view View
}

// NewStore creates a store holding Initial(variant).
func NewStore(variant string) *Store {
	return &Store{view: Initial(variant)}
}

// Get returns the current view.
func (s *Store) Get() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Update applies a transition atomically. On error the view is unchanged.
func (s *Store) Update(transition func(View) (View, error)) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := transition(s.view)
	if err != nil {
		return s.view, err
	}
	s.view = next
	return next, nil
}
