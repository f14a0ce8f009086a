package filestorage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Save(ctx, strings.NewReader("hello"), 5, "Resume.PDF", "application/pdf", "documents/7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "documents/7/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".pdf"))
	assert.Equal(t, "/uploads/"+obj.Key, obj.URL)
	assert.Equal(t, int64(5), obj.Size)

	rc, info, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int64(5), info.Size)

	require.NoError(t, store.Delete(ctx, obj.Key))
	_, _, err = store.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.NoError(t, store.Delete(ctx, obj.Key), "deleting twice is fine")
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"../secret", "a/../../b", "..", `a\..\b`} {
		_, _, err := store.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.ErrorIs(t, store.Delete(context.Background(), key), ErrInvalidKey, key)
	}
}

func TestKeyFromURL(t *testing.T) {
	key, ok := KeyFromURL("/uploads", "/uploads/avatars/3/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, "avatars/3/a.jpg", key)

	_, ok = KeyFromURL("/uploads", "/images/default-avatar.png")
	assert.False(t, ok)
	_, ok = KeyFromURL("/uploads", "/uploads/../config.yaml")
	assert.False(t, ok)
}
