package bundle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedStore is a read-through cache in front of a remote Store. Writes go
// to the origin first and then refresh the cache.
type CachedStore struct {
	origin Store
	blobs  *expirable.LRU[string, []byte]
	lists  *expirable.LRU[string, []string]
	urls   *expirable.LRU[string, string]

	hits, misses atomic.Uint64
}

func NewCachedStore(origin Store, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{
		origin: origin,
		blobs:  expirable.NewLRU[string, []byte](size, nil, ttl),
		lists:  expirable.NewLRU[string, []string](size, nil, ttl),
		urls:   expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (s *CachedStore) Put(ctx context.Context, runID, path string, content []byte) error {
	if err := s.origin.Put(ctx, runID, path, content); err != nil {
		return err
	}
	runID, path, _ = normalize(runID, path)
	key := objectKey(runID, path)
	s.blobs.Add(key, append([]byte(nil), content...))
	s.lists.Remove(runID)
	s.urls.Remove(key)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, runID, path string) ([]byte, error) {
	r, p, err := normalize(runID, path)
	if err != nil {
		return nil, err
	}
	key := objectKey(r, p)
	if b, ok := s.blobs.Get(key); ok {
		s.hits.Add(1)
		return append([]byte(nil), b...), nil
	}
	s.misses.Add(1)
	b, err := s.origin.Get(ctx, runID, path)
	if err != nil {
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), b...))
	return b, nil
}

func (s *CachedStore) GetURL(ctx context.Context, runID, path string) (string, error) {
	r, p, err := normalize(runID, path)
	if err != nil {
		return "", err
	}
	key := objectKey(r, p)
	if u, ok := s.urls.Get(key); ok {
		s.hits.Add(1)
		return u, nil
	}
	s.misses.Add(1)
	u, err := s.origin.GetURL(ctx, runID, path)
	if err != nil {
		return "", err
	}
	if u != "" {
		s.urls.Add(key, u)
	}
	return u, nil
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	r, _, err := normalize(runID, "x")
	if err != nil {
		return nil, err
	}
	if l, ok := s.lists.Get(r); ok {
		s.hits.Add(1)
		return append([]string(nil), l...), nil
	}
	s.misses.Add(1)
	l, err := s.origin.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	s.lists.Add(r, append([]string(nil), l...))
	return l, nil
}

// Stats reports cache hits and misses since creation.
func (s *CachedStore) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}
