package relay

import "sync"

// MemoryStore is an in-memory Store with the same semantics as FileStore,
// used by tests and available for ephemeral deployments.
type MemoryStore struct {
	mu       sync.Mutex
	channels map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{channels: map[string][]string{}}
}

func (s *MemoryStore) RelayChannels() (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string, len(s.channels))
	for src, dests := range s.channels {
		out[src] = append([]string(nil), dests...)
	}
	return out, nil
}

func (s *MemoryStore) AddMapping(sourceID, destID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channels[sourceID] = append(s.channels[sourceID], destID)
	return nil
}

func (s *MemoryStore) RemoveMapping(sourceID, destID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dests, ok := s.channels[sourceID]
	if !ok {
		return false, nil
	}
	for i, d := range dests {
		if d == destID {
			dests = append(dests[:i], dests[i+1:]...)
			if len(dests) == 0 {
				delete(s.channels, sourceID)
			} else {
				s.channels[sourceID] = dests
			}
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) RemoveSource(sourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[sourceID]; !ok {
		return false, nil
	}
	delete(s.channels, sourceID)
	return true, nil
}
