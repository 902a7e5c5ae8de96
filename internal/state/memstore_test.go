package state

import (
	"context"
	"sync"
)

// memStore is an in-memory Store fake used only in tests.
type memStore struct {
	mu       sync.Mutex
	channels map[[32]byte]*Channel
}

func newMemStore() *memStore {
	return &memStore{channels: make(map[[32]byte]*Channel)}
}

func (s *memStore) Init(ctx context.Context) error { return nil }

func (s *memStore) LoadAll(ctx context.Context) (map[[32]byte]*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[[32]byte]*Channel, len(s.channels))
	for id, ch := range s.channels {
		out[id] = ch.Clone()
	}
	return out, nil
}

func (s *memStore) Upsert(ctx context.Context, ch *Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch.ChannelID] = ch.Clone()
	return nil
}

func (s *memStore) FindByOwner(ctx context.Context, owner [20]byte) ([][32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][32]byte
	for id, ch := range s.channels {
		if ch.Owner == owner {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memStore) FindExpiredBefore(ctx context.Context, cutoff int64) ([][32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][32]byte
	for id, ch := range s.channels {
		if (ch.ExpiryTimestamp < cutoff && ch.SequenceNumber == 0) || ch.Finalized {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, channelID [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, channelID)
	return nil
}
