package services

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// FavoritesKey is the single storage key holding the favorite id set.
const FavoritesKey = "roles-sp-favorites"

// FavoritesStore is a best-effort persisted set of place ids. Storage
// errors never reach callers: a failed read is an empty set and a failed
// write only logs.
type FavoritesStore struct {
	mu    sync.Mutex
	kv    KVStore
	log   *zap.SugaredLogger
	ids   []string
	index map[string]int
}

// LoadFavorites reads the set from kv.
func LoadFavorites(ctx context.Context, kv KVStore, log *zap.SugaredLogger) *FavoritesStore {
	s := &FavoritesStore{
		kv:    kv,
		log:   log,
		index: make(map[string]int),
	}

	raw, ok, err := kv.Get(ctx, FavoritesKey)
	if err != nil {
		log.Warnf("Error reading favorites: %v", err)
		return s
	}
	if !ok {
		return s
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warnf("Error decoding favorites: %v", err)
		return s
	}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Toggle adds id when absent and removes it when present. It returns
// whether id is a favorite afterwards.
func (s *FavoritesStore) Toggle(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, present := s.index[id]
	if present {
		s.remove(id)
	} else {
		s.add(id)
	}
	s.persist(ctx)
	return !present
}

func (s *FavoritesStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// All returns the ids in the order they were added.
func (s *FavoritesStore) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *FavoritesStore) add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *FavoritesStore) remove(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.ids); j++ {
		s.index[s.ids[j]] = j
	}
}

func (s *FavoritesStore) persist(ctx context.Context) {
	ids := s.ids
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		s.log.Warnf("Error encoding favorites: %v", err)
		return
	}
	if err := s.kv.Set(ctx, FavoritesKey, string(data)); err != nil {
		s.log.Warnf("Error saving favorites: %v", err)
	}
}
