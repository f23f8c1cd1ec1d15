package store

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
)

// MemoryStore keeps attribution records in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	visitors map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{visitors: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, visitorID string, channel domain.Channel) (*domain.AttributionRecord, error) {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeRecord(keys, s.visitors[visitorID]), nil
}

func (s *MemoryStore) Set(_ context.Context, visitorID string, channel domain.Channel, record domain.AttributionRecord) error {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(visitorID, keys, record)
	return nil
}

func (s *MemoryStore) SetIfAbsent(_ context.Context, visitorID string, channel domain.Channel, record domain.AttributionRecord) (bool, error) {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if decodeRecord(keys, s.visitors[visitorID]) != nil {
		return false, nil
	}
	s.writeLocked(visitorID, keys, record)
	return true, nil
}

func (s *MemoryStore) Replace(_ context.Context, visitorID string, channel domain.Channel, current, next domain.AttributionRecord) (bool, error) {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !sameCapture(decodeRecord(keys, s.visitors[visitorID]), current) {
		return false, nil
	}
	s.writeLocked(visitorID, keys, next)
	return true, nil
}

// writeLocked replaces every field of the channel; s.mu must be held.
func (s *MemoryStore) writeLocked(visitorID string, keys domain.ChannelKeys, record domain.AttributionRecord) {
	fields, ok := s.visitors[visitorID]
	if !ok {
		fields = make(map[string]string)
		s.visitors[visitorID] = fields
	}
	for _, key := range keys.All() {
		delete(fields, key)
	}
	for key, value := range encodeRecord(keys, record) {
		fields[key] = value
	}
}

func (s *MemoryStore) Clear(_ context.Context, visitorID string, channel domain.Channel) error {
	keys, err := domain.KeysFor(channel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.visitors[visitorID]
	if !ok {
		return nil
	}
	for _, key := range keys.All() {
		delete(fields, key)
	}
	if len(fields) == 0 {
		delete(s.visitors, visitorID)
	}
	return nil
}

// Fields returns a copy of a visitor's raw key/value namespace.
func (s *MemoryStore) Fields(visitorID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.visitors[visitorID]))
	for k, v := range s.visitors[visitorID] {
		out[k] = v
	}
	return out
}

// Sweep drops visitors whose records have all outlived their channel TTL
// and returns how many were dropped.
func (s *MemoryStore) Sweep(now time.Time, ttls map[domain.Channel]time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for visitorID, fields := range s.visitors {
		if hasLiveRecord(fields, now, ttls) {
			continue
		}
		delete(s.visitors, visitorID)
		dropped++
	}
	return dropped
}

func hasLiveRecord(fields map[string]string, now time.Time, ttls map[domain.Channel]time.Duration) bool {
	for channel, ttl := range ttls {
		keys, err := domain.KeysFor(channel)
		if err != nil {
			continue
		}
		record := decodeRecord(keys, fields)
		if record != nil && now.Sub(record.CapturedAt) < ttl {
			return true
		}
	}
	return false
}
