package memory

import (
	"bytes"
	"context"
	"io"

	"github.com/patrickmn/go-cache"

	"docuchat-be/pkg/storage"
)

// Store keeps document bytes in process memory. Content does not
// survive a restart; readers then see storage.ErrContentUnavailable
// and documents must be re-uploaded.
type Store struct {
	cache *cache.Cache
}

func New() storage.ContentStore {
	return &Store{cache: cache.New(cache.NoExpiration, cache.NoExpiration)}
}

func (s *Store) Save(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.cache.Set(key, data, cache.NoExpiration)
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	raw, found := s.cache.Get(key)
	if !found {
		return nil, storage.ErrContentUnavailable
	}
	data, ok := raw.([]byte)
	if !ok {
		return nil, storage.ErrContentUnavailable
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
