package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmedelbailey/occla-backend/storage"
)

func newStore(t *testing.T) (*storage.ImageStore, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "images")
	s, err := storage.NewImageStore(root, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s, root
}

func TestStoreWritesUnderRandomKey(t *testing.T) {
	s, root := newStore(t)

	rel, ok, err := s.Store(bytes.NewReader([]byte("png-bytes")), "image/png", "photo.png")
	require.NoError(t, err)
	require.True(t, ok)

	// random 32-hex prefix joined to the original filename
	assert.Regexp(t, regexp.MustCompile(`^images/[0-9a-f]{32}-photo\.png$`), rel)

	data, err := os.ReadFile(filepath.Join(root, filepath.Base(rel)))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestStoreKeysAreUniquePerUpload(t *testing.T) {
	s, _ := newStore(t)

	a, ok, err := s.Store(bytes.NewReader([]byte("one")), "image/jpeg", "photo.jpg")
	require.NoError(t, err)
	require.True(t, ok)
	b, ok, err := s.Store(bytes.NewReader([]byte("two")), "image/jpeg", "photo.jpg")
	require.NoError(t, err)
	require.True(t, ok)

	assert.NotEqual(t, a, b)
}

func TestStoreDropsDisallowedTypesSilently(t *testing.T) {
	s, root := newStore(t)

	for _, mime := range []string{"image/gif", "text/html", "application/pdf", ""} {
		rel, ok, err := s.Store(bytes.NewReader([]byte("data")), mime, "evil.png")
		assert.NoError(t, err, mime)
		assert.False(t, ok, mime)
		assert.Empty(t, rel, mime)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreAcceptsWholeAllowList(t *testing.T) {
	s, _ := newStore(t)

	for _, mime := range []string{"image/png", "image/jpg", "image/jpeg", "IMAGE/PNG"} {
		_, ok, err := s.Store(bytes.NewReader([]byte("data")), mime, "a.png")
		assert.NoError(t, err, mime)
		assert.True(t, ok, mime)
	}
}

func TestDeleteIsBestEffort(t *testing.T) {
	s, root := newStore(t)

	rel, ok, err := s.Store(bytes.NewReader([]byte("png")), "image/png", "photo.png")
	require.NoError(t, err)
	require.True(t, ok)

	s.Delete(rel)
	_, statErr := os.Stat(filepath.Join(root, filepath.Base(rel)))
	assert.True(t, os.IsNotExist(statErr))

	// deleting again, or deleting a path that never existed, must not panic
	s.Delete(rel)
	s.Delete("images/never-there.png")
	s.Delete("")
}
