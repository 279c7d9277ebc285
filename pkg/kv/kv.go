// Package kv stores named JSON documents. A document is an opaque blob to this
// package; writes are conditional on the version the caller last read.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")
var ErrConflict = errors.New("version conflict")

// Entry is a stored document together with its version. Versions start at 1
// and grow by one on every successful Put.
type Entry struct {
	Value   []byte
	Version int64
}

type Store interface {
	// Get returns ErrNotFound when the key has never been written, and may
	// return ErrConflict when the backend is locked by a concurrent writer.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put writes value if the stored version equals version. A version of 0
	// creates the key and fails with ErrConflict if it already exists.
	Put(ctx context.Context, key string, value []byte, version int64) (int64, error)
	Close() error
}
