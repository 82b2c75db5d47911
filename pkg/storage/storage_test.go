package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/pkg/storage"
	"docuchat-be/pkg/storage/local"
	"docuchat-be/pkg/storage/memory"
)

func stores(t *testing.T) map[string]storage.ContentStore {
	localStore, err := local.New(t.TempDir())
	require.NoError(t, err)
	return map[string]storage.ContentStore{
		"local":  localStore,
		"memory": memory.New(),
	}
}

func TestContentStore_SaveOpenRoundtrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := store.Save(ctx, "user-1/doc.txt", strings.NewReader("hello content"))
			require.NoError(t, err)

			rc, err := store.Open(ctx, "user-1/doc.txt")
			require.NoError(t, err)
			defer rc.Close()

			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "hello content", string(data))
		})
	}
}

func TestContentStore_OpenMissingKey(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Open(context.Background(), "user-1/missing.pdf")
			assert.ErrorIs(t, err, storage.ErrContentUnavailable)
		})
	}
}

func TestContentStore_DeleteThenOpen(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, "user-2/doc.pdf", strings.NewReader("bytes")))
			require.NoError(t, store.Delete(ctx, "user-2/doc.pdf"))

			_, err := store.Open(ctx, "user-2/doc.pdf")
			assert.ErrorIs(t, err, storage.ErrContentUnavailable)

			// Deleting an absent key is not an error.
			assert.NoError(t, store.Delete(ctx, "user-2/doc.pdf"))
		})
	}
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := local.New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, store.Save(ctx, "../outside.txt", strings.NewReader("x")))
	assert.Error(t, store.Save(ctx, "/etc/passwd", strings.NewReader("x")))
}
