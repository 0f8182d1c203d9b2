package store

import "settingsd/pkg/types"

// EventPublisher receives one event per settings mutation.
// Implementations should be lightweight and non-blocking; Publish must
// not panic.
type EventPublisher interface {
	Publish(types.Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(types.Event) {}

// SetEventPublisher installs pub as the store's event sink. A nil pub
// restores the drop-everything default.
func (s *Store) SetEventPublisher(pub EventPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pub == nil {
		s.pub = noopPublisher{}
		return
	}
	s.pub = pub
}

func (s *Store) publish(e types.Event) {
	s.mu.RLock()
	pub := s.pub
	s.mu.RUnlock()
	pub.Publish(e)
}

// EventPath returns the subscription path events for the given desk
// and bucket are published under: /<desk>/<bucket>, or /<desk> when
// bucket is empty.
func EventPath(desk, bucket string) string {
	if bucket == "" {
		return "/" + desk
	}
	return "/" + desk + "/" + bucket
}
