package main

import "sync"

// ============================================================================
// Controller State Store
// ============================================================================
// The minimal memory needed to debounce and differentiate successive messages
// from the same controller. State is keyed strictly by controller id, never by
// action identity, and lives for the daemon's lifetime.
// ============================================================================

// controllerState is the per-controller interaction memory.
type controllerState struct {
	// lastRaw is the last raw 0-127 value observed for this controller.
	lastRaw *uint8

	// lastPercent is the last percentage for which a Linear command was
	// actually issued (debounce memory), not merely computed.
	lastPercent *int
}

// StateStore holds per-controller state, created lazily on the first observed
// event for an id.
//
// All access goes through Update so the read-modify-write for one id is
// atomic even with multiple producers (the MIDI callback plus IPC injection).
// A lost update here would cause a missed or duplicated direction/percent
// decision, so the whole decision runs under the store lock.
type StateStore struct {
	mu          sync.Mutex
	controllers map[uint8]*controllerState
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{controllers: make(map[uint8]*controllerState)}
}

// Update runs fn against the state for id under the store lock, creating the
// record on first use.
func (s *StateStore) Update(id uint8, fn func(*controllerState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.controllers[id]
	if !ok {
		st = &controllerState{}
		s.controllers[id] = st
	}
	fn(st)
}

// Peek returns a copy of the state for id and whether a record exists.
func (s *StateStore) Peek(id uint8) (controllerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.controllers[id]
	if !ok {
		return controllerState{}, false
	}
	return *st, true
}

// Len reports how many controllers have accumulated state.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}
