package store

import (
	"context"
	"sync"
)

// Blob is the single named value that holds the serialized event
// collection. Implementations return raw backend errors; EventStore maps
// them onto ErrStorageUnavailable.
type Blob interface {
	// Read returns the current payload, or (nil, nil) if none was written yet.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the payload in a single operation.
	Write(ctx context.Context, data []byte) error
	// Remove deletes the payload. Removing an absent payload is not an error.
	Remove(ctx context.Context) error
	// Ping checks that the backend is reachable and writable.
	Ping(ctx context.Context) error
}

// Swapper is implemented by backends that can run a read-modify-write as a
// compare-and-swap, so that several processes sharing the backend do not
// drop each other's writes.
//
// Swap calls fn with the current payload (nil if absent) and stores the
// returned bytes only if the payload did not change in between. An error
// returned by fn aborts the swap and is returned unchanged.
type Swapper interface {
	Swap(ctx context.Context, fn func(old []byte) ([]byte, error)) error
}

// MemoryBlob keeps the payload in process memory.
type MemoryBlob struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBlob returns an empty in-memory blob. If initial is non-nil it
// becomes the starting payload.
func NewMemoryBlob(initial []byte) *MemoryBlob {
	m := &MemoryBlob{}
	if initial != nil {
		m.data = append([]byte(nil), initial...)
	}
	return m
}

func (m *MemoryBlob) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBlob) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBlob) Remove(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

func (m *MemoryBlob) Ping(_ context.Context) error {
	return nil
}
