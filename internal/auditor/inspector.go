package auditor

import (
	"errors"

	"github.com/noobzero/security-monkey/internal/cache"
	"github.com/noobzero/security-monkey/internal/registry"
)

// Inspector classifies an entity in the context of the account that owns the
// audited item.  Lookups are pure and deterministic within a run; failures
// propagate unmodified, with no fallback classification.
type Inspector interface {
	InspectEntity(entity Entity, item Item) (registry.Classification, error)
}

type _RegistryInspector struct {
	registry registry.AccountRegistry
}

// NewRegistryInspector classifies entities against the known-accounts registry.
func NewRegistryInspector(accounts registry.AccountRegistry) (Inspector, error) {
	if accounts == nil {
		return nil, errors.New("account registry is required")
	}
	return &_RegistryInspector{registry: accounts}, nil
}

func (ri *_RegistryInspector) InspectEntity(entity Entity, item Item) (registry.Classification, error) {
	return ri.registry.Classify(entity.Value, item.AccountID)
}

type _CachedInspector struct {
	inner Inspector
	cache cache.ClassificationCache
}

// NewCachedInspector memoizes another inspector.  Safe because registry
// classification is deterministic for a (value, owning account) pair.
func NewCachedInspector(inner Inspector, classificationCache cache.ClassificationCache) (Inspector, error) {
	if inner == nil {
		return nil, errors.New("inner inspector is required")
	}
	if classificationCache == nil {
		return nil, errors.New("classification cache is required")
	}
	return &_CachedInspector{inner: inner, cache: classificationCache}, nil
}

func (ci *_CachedInspector) InspectEntity(entity Entity, item Item) (registry.Classification, error) {
	key := cache.ClassificationCacheKey{
		EntityValue:    entity.Value,
		OwnerAccountID: item.AccountID,
	}
	if classification, ok := ci.cache.Get(key); ok {
		return classification, nil
	}
	classification, err := ci.inner.InspectEntity(entity, item)
	if err != nil {
		return 0, err
	}
	ci.cache.Set(key, classification)
	return classification, nil
}
