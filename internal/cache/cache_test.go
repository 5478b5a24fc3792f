package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noobzero/security-monkey/internal/registry"
	"github.com/noobzero/security-monkey/internal/shared"
)

func TestStore(t *testing.T) {
	assertion := assert.New(t)
	store := NewStore()

	key := shared.Key{PrimaryKey: "012345678910", SortKey: "s3"}
	store.Set(key, "value")

	value, ok := store.Get(key)
	assertion.True(ok)
	assertion.Equal("value", value)

	_, ok = store.Get(shared.Key{PrimaryKey: "012345678910", SortKey: "iam"})
	assertion.False(ok)

	store.Delete(key)
	_, ok = store.Get(key)
	assertion.False(ok)
}

func TestClassificationCache(t *testing.T) {
	assertion := assert.New(t)
	classificationCache := NewClassificationCache()

	key := ClassificationCacheKey{
		EntityValue:    "arn:aws:iam::111111111111:root",
		OwnerAccountID: "012345678910",
	}

	_, ok := classificationCache.Get(key)
	assertion.False(ok)
	assertion.Equal(int32(1), classificationCache.GetCacheMisses())
	assertion.Zero(classificationCache.GetCacheHits())

	classificationCache.Set(key, registry.Friendly)
	classification, ok := classificationCache.Get(key)
	assertion.True(ok)
	assertion.Equal(registry.Friendly, classification)
	assertion.Equal(int32(1), classificationCache.GetCacheHits())

	// same entity under a different owning account is a distinct entry
	_, ok = classificationCache.Get(ClassificationCacheKey{
		EntityValue:    "arn:aws:iam::111111111111:root",
		OwnerAccountID: "999999999999",
	})
	assertion.False(ok)
	assertion.Equal(int32(2), classificationCache.GetCacheMisses())
}

func TestClassificationCacheConcurrentAccess(t *testing.T) {
	assertion := assert.New(t)
	classificationCache := NewClassificationCache()

	key := ClassificationCacheKey{EntityValue: "*", OwnerAccountID: "012345678910"}
	classificationCache.Set(key, registry.Unknown)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			classification, ok := classificationCache.Get(key)
			assertion.True(ok)
			assertion.Equal(registry.Unknown, classification)
		}()
	}
	wg.Wait()
	assertion.Equal(int32(50), classificationCache.GetCacheHits())
}
