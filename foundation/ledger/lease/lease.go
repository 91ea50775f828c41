// Package lease implements the mining coordinator: cluster-wide mutual
// exclusion for block sealing through an expiring, renewable lease. At most
// one node holds the lease at any instant; correct lease discipline is what
// keeps forks an operational rarity.
package lease

import (
	"context"
	"errors"
	"time"
)

// ErrBusy is returned from Acquire when another node holds the lease.
// Acquisition never queues; callers poll with backoff.
var ErrBusy = errors.New("mining lease held by another node")

// ErrExpired is returned from Renew when the lease is no longer held,
// either because it lapsed or because another node took over.
var ErrExpired = errors.New("mining lease expired")

// Lease is a time-bounded mining-exclusivity grant. The token is the fencing
// value proving this grant is the current one.
type Lease struct {
	HolderID   string
	Token      string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// Valid reports whether the lease is still within its wall-clock window.
func (l Lease) Valid(now time.Time) bool {
	return l.Token != "" && now.Before(l.ExpiresAt)
}

// Coordinator represents the behavior required to be implemented by any
// service providing cross-node mining exclusion. The ledger is agnostic to
// the backing store.
type Coordinator interface {
	Acquire(ctx context.Context, holderID string, duration time.Duration) (Lease, error)
	Renew(ctx context.Context, lease Lease, duration time.Duration) (Lease, error)
	Release(ctx context.Context, lease Lease) error
}
