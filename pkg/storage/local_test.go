package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutURLDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/static/")
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("\x89PNG fake")
	key := "qr_visitors/visitor_7.png"
	require.NoError(t, store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"))

	written, err := os.ReadFile(filepath.Join(root, "qr_visitors", "visitor_7.png"))
	require.NoError(t, err)
	assert.Equal(t, data, written)

	url, err := store.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/static/qr_visitors/visitor_7.png", url)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "qr_visitors", "visitor_7.png"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStoreOverwrites(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/static")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/b.png", bytes.NewReader([]byte("one")), 3, "image/png"))
	require.NoError(t, store.Put(ctx, "a/b.png", bytes.NewReader([]byte("two")), 3, "image/png"))

	written, err := os.ReadFile(filepath.Join(root, "a", "b.png"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(written))
}

func TestLocalStoreRejectsUnsafeKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/static")
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../escape.png", "a//b.png", "a/./b.png"} {
		err := store.Put(ctx, key, bytes.NewReader(nil), 0, "image/png")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
