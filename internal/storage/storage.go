// Package storage keeps uploaded documents as opaque blobs addressed by key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotExist   = errors.New("blob does not exist")
	ErrInvalidKey = errors.New("invalid blob key")
)

// Store is a flat key/blob namespace.
type Store interface {
	// Put writes r under key, replacing any previous blob, and returns the byte count.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns a reader for key or ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ReadAll reads the whole blob stored under key.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// checkKey accepts only flat keys: no separators, no parent references.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
