package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "c1-key.png", []byte("fake-png"), "image/png", true)
	require.NoError(t, err)

	data, meta, err := store.Get(ctx, "c1-key.png")
	require.NoError(t, err)
	require.Equal(t, []byte("fake-png"), data)
	require.Equal(t, BlobMeta{ContentType: "image/png", PublicRead: true}, meta)
}

func TestGetUnknownKey(t *testing.T) {
	store := openTestStore(t)

	_, _, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutOverwrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("one"), "image/png", true))
	require.NoError(t, store.Put(ctx, "k", []byte("two"), "image/gif", false))

	data, meta, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("two"), data)
	require.Equal(t, "image/gif", meta.ContentType)
	require.False(t, meta.PublicRead)
}
