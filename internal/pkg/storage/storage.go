package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidPath = errors.New("invalid file path")

// FileStorage stores uploaded files under relative keys.
type FileStorage interface {
	// Upload writes file under key and returns the cleaned key.
	Upload(ctx context.Context, file io.Reader, key string, contentType string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
	// KeyFromURL reverses URL. ok is false for addresses this storage did
	// not hand out.
	KeyFromURL(url string) (key string, ok bool)
}
