package memory

import (
	"context"
	"sync"
)

// InMemoryStore keeps user memory in process. It is the default when no
// Redis URL is configured; contents vanish on restart, which matches the
// volatile contract of this collaborator.
type InMemoryStore struct {
	mu           sync.Mutex
	users        map[string]*Profile
	historyLimit int
}

// NewInMemoryStore creates an empty in-process memory store.
func NewInMemoryStore(historyLimit int) *InMemoryStore {
	return &InMemoryStore{
		users:        make(map[string]*Profile),
		historyLimit: historyLimit,
	}
}

// getLocked returns the user's document, creating it on first access.
// Callers must hold mu.
func (s *InMemoryStore) getLocked(userID string) *Profile {
	if p, ok := s.users[userID]; ok {
		return p
	}
	p := NewProfile()
	s.users[userID] = p
	return p
}

// Get returns a copy of the user's memory document.
func (s *InMemoryStore) Get(ctx context.Context, userID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getLocked(userID)

	// Copy so callers cannot mutate shared state outside the lock.
	out := *p
	out.History = append([]Turn(nil), p.History...)
	out.Preferences = make(map[string][]string, len(p.Preferences))
	for k, v := range p.Preferences {
		out.Preferences[k] = append([]string(nil), v...)
	}
	return &out, nil
}

// AppendTurn appends one exchange, evicting the oldest turns beyond the
// history limit.
func (s *InMemoryStore) AppendTurn(ctx context.Context, userID, userMessage, botReply string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getLocked(userID)
	p.History = append(p.History, Turn{User: userMessage, Bot: botReply})
	if len(p.History) > s.historyLimit {
		p.History = p.History[len(p.History)-s.historyLimit:]
	}
	return nil
}

// StorePreference appends a value to a preference list if absent.
func (s *InMemoryStore) StorePreference(ctx context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addPreference(s.getLocked(userID), key, value)
	return nil
}

// SetLastSeenStore records the store last surfaced to the user.
func (s *InMemoryStore) SetLastSeenStore(ctx context.Context, userID string, store StoreInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getLocked(userID).LastSeenStore = &store
	return nil
}

// SetLastOrder records the user's last order payload.
func (s *InMemoryStore) SetLastOrder(ctx context.Context, userID string, order map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getLocked(userID).LastOrder = order
	return nil
}

// Reset discards one user's memory.
func (s *InMemoryStore) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	return nil
}

// ResetAll discards every user's memory.
func (s *InMemoryStore) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*Profile)
	return nil
}

// Close is a no-op for the in-process store.
func (s *InMemoryStore) Close() error {
	return nil
}

// addPreference appends value to the named preference list if absent.
func addPreference(p *Profile, key, value string) {
	if p.Preferences == nil {
		p.Preferences = make(map[string][]string)
	}
	for _, existing := range p.Preferences[key] {
		if existing == value {
			return
		}
	}
	p.Preferences[key] = append(p.Preferences[key], value)
}
