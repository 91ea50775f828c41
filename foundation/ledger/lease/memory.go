package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a Coordinator for a single process: nodes sharing one in-memory
// chain, and tests. This implements the Coordinator interface.
type Memory struct {
	mu      sync.Mutex
	current Lease
}

// NewMemory constructs a Memory coordinator for use.
func NewMemory() *Memory {
	return &Memory{}
}

// Acquire grants the lease when it is free or lapsed and returns ErrBusy
// immediately otherwise.
func (m *Memory) Acquire(ctx context.Context, holderID string, duration time.Duration) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if m.current.Valid(now) {
		return Lease{}, ErrBusy
	}

	m.current = Lease{
		HolderID:   holderID,
		Token:      uuid.NewString(),
		AcquiredAt: now,
		ExpiresAt:  now.Add(duration),
	}

	return m.current, nil
}

// Renew extends the lease when the caller still holds it.
func (m *Memory) Renew(ctx context.Context, lease Lease, duration time.Duration) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if m.current.Token != lease.Token || !m.current.Valid(now) {
		return Lease{}, ErrExpired
	}

	m.current.ExpiresAt = now.Add(duration)

	return m.current, nil
}

// Release frees the lease when the caller still holds it. Releasing a lease
// already lost is not an error.
func (m *Memory) Release(ctx context.Context, lease Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Token == lease.Token {
		m.current = Lease{}
	}

	return nil
}
