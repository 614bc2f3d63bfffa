// Package backend implements the blob backend contract: an opaque,
// content-addressed store of ciphertext blobs with an asynchronous,
// bounded-concurrency store path and a small read cache in front of
// synchronous retrieve/delete/list.
package backend

import "errors"

// ErrNotFound is returned by implementations that choose to surface a
// miss as an error; callers using Backend.Retrieve instead get it back
// as (nil, false, nil), since retrieve of an absent blob is a normal
// value, not an error.
var ErrNotFound = errors.New("backend: blob not found")

// DoneFunc is a single-shot, move-only completion callback. The backend
// owns it until invocation and calls it at most once, after the blob has
// been durably stored.
type DoneFunc func()

// Backend is the polymorphic capability set every blob store
// implementation provides: store, retrieve, delete, list, flush.
type Backend interface {
	// Store enqueues a write and returns without waiting for completion.
	// It blocks the caller only when the implementation's concurrent
	// write queue is saturated, until a slot frees. done is invoked
	// exactly once, after the blob is durably stored.
	Store(name []byte, ciphertext []byte, done DoneFunc) error

	// Retrieve synchronously fetches a blob. A (nil, false, nil) return
	// means the blob does not exist; this is not an error.
	Retrieve(name []byte) (data []byte, found bool, err error)

	// Delete synchronously removes a blob and invalidates any cached
	// copy of it.
	Delete(name []byte) error

	// List synchronously returns every blob name currently stored, in
	// unspecified order.
	List() ([][]byte, error)

	// Flush blocks until every previously enqueued Store has invoked its
	// done callback.
	Flush() error
}
