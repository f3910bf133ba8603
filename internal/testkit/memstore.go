package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"neurosense/domain/core"
	"neurosense/domain/model"
	"neurosense/domain/nsi"
	"neurosense/ports"
)

// MemoryStore is an in-memory ports.Store for tests. It honors the
// score-write-invalidates-NSI contract.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]ports.SessionRecord
	cached   map[string]*nsi.Result
	history  map[string][]ports.GameEvent
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]ports.SessionRecord),
		cached:   make(map[string]*nsi.Result),
		history:  make(map[string][]ports.GameEvent),
	}
}

// SeedSession inserts a session without triggering invalidation.
func (m *MemoryStore) SeedSession(subjectID string, record ports.SessionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[subjectID] = append(m.sessions[subjectID], record)
	sort.SliceStable(m.sessions[subjectID], func(a, b int) bool {
		return m.sessions[subjectID][a].Index < m.sessions[subjectID][b].Index
	})
}

func (m *MemoryStore) ListSubjects(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) GetSessions(ctx context.Context, subjectID string) ([]ports.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]ports.SessionRecord, len(m.sessions[subjectID]))
	copy(records, m.sessions[subjectID])
	return records, nil
}

func (m *MemoryStore) SetSessionScore(ctx context.Context, subjectID, sessionID string, score float64, modelUsed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.sessions[subjectID]
	updated := false
	for i := range records {
		if records[i].SessionID == sessionID {
			s := score
			records[i].Score = &s
			records[i].ModelUsed = modelUsed
			updated = true
			break
		}
	}
	if !updated {
		s := score
		records = append(records, ports.SessionRecord{
			SessionID: sessionID,
			Index:     len(records) + 1,
			Score:     &s,
			ModelUsed: modelUsed,
		})
	}
	m.sessions[subjectID] = records

	delete(m.cached, subjectID)
	return nil
}

func (m *MemoryStore) GetCachedNSI(ctx context.Context, subjectID string) (*nsi.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached[subjectID], nil
}

func (m *MemoryStore) SetCachedNSI(ctx context.Context, subjectID string, result *nsi.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached[subjectID] = result
	return nil
}

func (m *MemoryStore) InvalidateNSI(ctx context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cached, subjectID)
	return nil
}

func (m *MemoryStore) GetRecentGameHistory(ctx context.Context, subjectID string, limit int) ([]ports.GameEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.history[subjectID]
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]ports.GameEvent, len(events))
	copy(out, events)
	return out, nil
}

func (m *MemoryStore) LogGame(ctx context.Context, event ports.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[event.SubjectID] = append(m.history[event.SubjectID], event)
	return nil
}

var _ ports.Store = (*MemoryStore)(nil)

// MemoryBundleStore serves bundles from a map keyed by path and
// counts loads, so tests can assert a path is read only once.
type MemoryBundleStore struct {
	mu      sync.Mutex
	bundles map[string]*model.Bundle
	Loads   map[string]int
}

// NewMemoryBundleStore creates an empty bundle store.
func NewMemoryBundleStore() *MemoryBundleStore {
	return &MemoryBundleStore{
		bundles: make(map[string]*model.Bundle),
		Loads:   make(map[string]int),
	}
}

// AddBundle registers a bundle under path.
func (m *MemoryBundleStore) AddBundle(path string, bundle *model.Bundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[path] = bundle
}

func (m *MemoryBundleStore) LoadBundle(ctx context.Context, path string) (*model.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads[path]++
	bundle, ok := m.bundles[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrModelNotFound, path)
	}
	return bundle, nil
}

func (m *MemoryBundleStore) BundleExists(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bundles[path]
	return ok, nil
}

var _ ports.BundleStore = (*MemoryBundleStore)(nil)

// MemoryFeatureCache is an in-memory ports.FeatureCache.
type MemoryFeatureCache struct {
	mu      sync.Mutex
	entries map[string]*ports.SessionFeatures
}

// NewMemoryFeatureCache creates an empty cache.
func NewMemoryFeatureCache() *MemoryFeatureCache {
	return &MemoryFeatureCache{entries: make(map[string]*ports.SessionFeatures)}
}

func cacheKey(subjectID, sessionID string) string {
	return subjectID + "/" + sessionID
}

func (m *MemoryFeatureCache) Get(ctx context.Context, subjectID, sessionID string) (*ports.SessionFeatures, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	features, ok := m.entries[cacheKey(subjectID, sessionID)]
	if !ok {
		return nil, fmt.Errorf("%w: features for %s/%s", core.ErrSessionNotFound, subjectID, sessionID)
	}
	return features, nil
}

func (m *MemoryFeatureCache) Put(ctx context.Context, subjectID, sessionID string, features *ports.SessionFeatures) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(subjectID, sessionID)] = features
	return nil
}

var _ ports.FeatureCache = (*MemoryFeatureCache)(nil)
