package session

import (
	"context"

	"github.com/zjrosen/portal/internal/cachemanager"
)

// Store is a key/value store that lives exactly as long as the session.
type Store struct {
	cache cachemanager.CacheManager[string, string]
}

// NewStore creates an empty store whose entries never expire.
func NewStore() *Store {
	return &Store{
		cache: cachemanager.NewInMemoryCacheManager[string, string]("session-store",
			cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval),
	}
}

func (s *Store) Get(key string) (string, bool) {
	return s.cache.Get(context.Background(), key)
}

func (s *Store) Set(key, value string) {
	s.cache.Set(context.Background(), key, value, cachemanager.NoExpiration)
}

func (s *Store) Delete(key string) {
	_ = s.cache.Delete(context.Background(), key)
}

// clear drops every entry.
func (s *Store) clear() {
	_ = s.cache.Flush(context.Background())
}
