package session

import "sync"

// Snapshot is the identity of the current user as known to the client.
// All fields are set (authenticated) or all are empty (anonymous).
type Snapshot struct {
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Authenticated reports whether every identity field is set.
func (s Snapshot) Authenticated() bool {
	return s.UserID != "" && s.Role != "" && s.Username != ""
}

// Anonymous reports whether every identity field is empty.
func (s Snapshot) Anonymous() bool {
	return s.UserID == "" && s.Role == "" && s.Username == ""
}

func (s Snapshot) consistent() bool {
	return s.Authenticated() || s.Anonymous()
}

// Patch carries the fields an Update should overwrite; nil leaves a field
// unchanged.
type Patch struct {
	UserID   *string
	Role     *string
	Username *string
}

// Subscriber receives every published snapshot.
type Subscriber func(Snapshot)

// State is the shared source of truth for the current user. One State is
// created per application instance and injected where needed.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
	subs map[uint64]Subscriber
	next uint64
	// order preserves registration order for deterministic fan-out.
	order []uint64
}

// NewState returns an anonymous State.
func NewState() *State {
	return &State{subs: make(map[uint64]Subscriber)}
}

// Read returns a copy of the current snapshot.
func (s *State) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Set replaces the snapshot and notifies subscribers.
func (s *State) Set(next Snapshot) error {
	if !next.consistent() {
		return ErrPartialSnapshot
	}
	s.publish(next)
	return nil
}

// Update merges patch into the current snapshot. A merge that would expose
// a partial identity is rejected and nothing is published.
func (s *State) Update(patch Patch) error {
	s.mu.Lock()
	merged := s.snap
	if patch.UserID != nil {
		merged.UserID = *patch.UserID
	}
	if patch.Role != nil {
		merged.Role = *patch.Role
	}
	if patch.Username != nil {
		merged.Username = *patch.Username
	}
	if !merged.consistent() {
		s.mu.Unlock()
		return ErrPartialSnapshot
	}
	s.snap = merged
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, merged)
	return nil
}

// Clear publishes the anonymous snapshot.
func (s *State) Clear() {
	s.publish(Snapshot{})
}

// Subscribe registers fn and returns a function that removes it.
func (s *State) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *State) publish(next Snapshot) {
	s.mu.Lock()
	s.snap = next
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, next)
}

func (s *State) subscribersLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subs[id])
	}
	return subs
}

func notify(subs []Subscriber, snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
