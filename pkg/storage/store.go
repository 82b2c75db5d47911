package storage

import (
	"context"
	"errors"
	"io"
)

// ErrContentUnavailable is returned by Open when the stored bytes for a
// key no longer exist, e.g. after a restart with the memory driver.
var ErrContentUnavailable = errors.New("storage: content unavailable")

// ContentStore persists the raw bytes of uploaded documents, keyed by
// the document's storage key.
type ContentStore interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
