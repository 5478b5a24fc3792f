package cache

import (
	"sync"
	"sync/atomic"

	"github.com/noobzero/security-monkey/internal/registry"
	"github.com/noobzero/security-monkey/internal/shared"
)

// Store is a concurrency-safe composite-key/value store backed by sync.Map.
type Store interface {
	Set(key shared.Key, value interface{})
	Get(key shared.Key) (interface{}, bool)
	Delete(key shared.Key)
}

type _Store struct {
	data sync.Map
}

func NewStore() Store {
	return &_Store{}
}

func (s *_Store) Set(key shared.Key, value interface{}) {
	s.data.Store(key.ToString(), value)
}

func (s *_Store) Get(key shared.Key) (interface{}, bool) {
	return s.data.Load(key.ToString())
}

func (s *_Store) Delete(key shared.Key) {
	s.data.Delete(key.ToString())
}

// ClassificationCache memoizes registry lookups for one audit run.  The
// registry is deterministic for a given (entity value, owning account) pair,
// so results can be served from cache across checks and items.
type ClassificationCache interface {
	Get(key ClassificationCacheKey) (registry.Classification, bool)
	Set(key ClassificationCacheKey, classification registry.Classification)
	GetCacheHits() int32
	GetCacheMisses() int32
}

type ClassificationCacheKey struct {
	EntityValue    string
	OwnerAccountID string
}

type _ClassificationCache struct {
	store       Store
	cacheHits   atomic.Int32
	cacheMisses atomic.Int32
}

func NewClassificationCache() ClassificationCache {
	return &_ClassificationCache{store: NewStore()}
}

func (c *_ClassificationCache) Get(key ClassificationCacheKey) (registry.Classification, bool) {
	value, ok := c.store.Get(shared.Key{
		PrimaryKey: key.EntityValue,
		SortKey:    key.OwnerAccountID,
	})
	if !ok {
		c.cacheMisses.Add(1)
		return 0, false
	}
	c.cacheHits.Add(1)
	return value.(registry.Classification), true
}

func (c *_ClassificationCache) Set(key ClassificationCacheKey, classification registry.Classification) {
	c.store.Set(shared.Key{
		PrimaryKey: key.EntityValue,
		SortKey:    key.OwnerAccountID,
	}, classification)
}

func (c *_ClassificationCache) GetCacheHits() int32 {
	return c.cacheHits.Load()
}

func (c *_ClassificationCache) GetCacheMisses() int32 {
	return c.cacheMisses.Load()
}
