package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// MemoryStore keeps alerts in memory, newest issue date first.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts []Alert
}

// NewMemoryStore creates a store holding a copy of alerts.
func NewMemoryStore(alerts []Alert) *MemoryStore {
	s := &MemoryStore{alerts: append([]Alert{}, alerts...)}
	sortNewestFirst(s.alerts)
	return s
}

// LoadFile reads a JSON array of alerts. An empty path yields an empty store.
func LoadFile(path string) (*MemoryStore, error) {
	if path == "" {
		return NewMemoryStore(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alerts file: %w", err)
	}
	var alerts []Alert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, fmt.Errorf("decode alerts file: %w", err)
	}
	return NewMemoryStore(alerts), nil
}

func (s *MemoryStore) All(_ context.Context) ([]Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Alert{}, s.alerts...), nil
}

func (s *MemoryStore) Search(_ context.Context, f Filter) ([]Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Search(s.alerts, f), nil
}

func (s *MemoryStore) HighSeverity(_ context.Context) ([]Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return HighSeverity(s.alerts), nil
}

// Upsert adds alerts, replacing any held alert with the same ID.
func (s *MemoryStore) Upsert(_ context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int, len(s.alerts))
	for i, a := range s.alerts {
		index[a.ID] = i
	}
	for _, a := range alerts {
		if i, ok := index[a.ID]; ok {
			s.alerts[i] = a
			continue
		}
		index[a.ID] = len(s.alerts)
		s.alerts = append(s.alerts, a)
	}
	sortNewestFirst(s.alerts)
	return nil
}

func sortNewestFirst(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].IssueDate.After(alerts[j].IssueDate)
	})
}
