package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Upload(ctx, strings.NewReader("jpeg bytes"), "avatars/7/a.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "avatars/7/a.jpg", key)

	data, err := os.ReadFile(filepath.Join(dir, "avatars", "7", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	url := s.URL(key)
	assert.Equal(t, "/uploads/avatars/7/a.jpg", url)
	back, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, key, back)

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "avatars", "7", "a.jpg"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(ctx, key), "deleting twice is fine")
}

func TestLocalStorage_RejectsEscapes(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	// traversal is clamped to the storage root
	key, err := s.Upload(context.Background(), strings.NewReader("x"), "../../etc/passwd", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", key)
	_, err = os.Stat(filepath.Join(dir, "uploads", "etc", "passwd"))
	assert.NoError(t, err)

	_, err = s.Upload(context.Background(), strings.NewReader("x"), "..", "text/plain")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStorage_KeyFromURL(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, ok := s.KeyFromURL("https://cdn.example.com/a.png")
	assert.False(t, ok)
	_, ok = s.KeyFromURL("/uploads/")
	assert.False(t, ok)
}
