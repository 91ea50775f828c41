package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database/storage"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/genesis"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/lease"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

var nopEv = func(v string, args ...any) {}

// scriptedCoordinator lets a test decide how renewals behave.
type scriptedCoordinator struct {
	mu       sync.Mutex
	renewErr error
	renews   int
	releases int
}

func (c *scriptedCoordinator) Acquire(ctx context.Context, holderID string, duration time.Duration) (lease.Lease, error) {
	return lease.Lease{
		HolderID:   holderID,
		Token:      "token",
		AcquiredAt: time.Now(),
		ExpiresAt:  time.Now().Add(duration),
	}, nil
}

func (c *scriptedCoordinator) Renew(ctx context.Context, l lease.Lease, duration time.Duration) (lease.Lease, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.renews++
	if c.renewErr != nil {
		return lease.Lease{}, c.renewErr
	}

	l.ExpiresAt = time.Now().Add(duration)
	return l, nil
}

func (c *scriptedCoordinator) Release(ctx context.Context, l lease.Lease) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releases++
	return nil
}

func (c *scriptedCoordinator) counts() (renews int, releases int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.renews, c.releases
}

// =============================================================================

func Test_HoldLease(t *testing.T) {
	t.Log("Given the need to hold the mining lease for the whole nonce search.")
	{
		t.Logf("\tTest 0:\tWhen renewal fails mid search.")
		{
			coordinator := &scriptedCoordinator{renewErr: lease.ErrExpired}

			w := &Worker{
				coordinator:   coordinator,
				leaseDuration: 300 * time.Millisecond,
				evHandler:     nopEv,
			}

			expires := time.Now().Add(w.leaseDuration)
			current := lease.Lease{
				HolderID:   "node1",
				Token:      "token",
				AcquiredAt: time.Now(),
				ExpiresAt:  expires,
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan struct{})
			go func() {
				w.holdLease(ctx, cancel, current)
				close(done)
			}()

			select {
			case <-ctx.Done():
				if !time.Now().Before(expires) {
					t.Fatalf("\t%s\tTest 0:\tShould cancel the search before the lease's wall-clock expiry.", failed)
				}
				t.Logf("\t%s\tTest 0:\tShould cancel the search before the lease's wall-clock expiry.", success)

			case <-time.After(time.Until(expires)):
				t.Fatalf("\t%s\tTest 0:\tShould cancel the search when renewal fails.", failed)
			}

			<-done

			if _, releases := coordinator.counts(); releases != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould release the lease on the way out: got %d", failed, releases)
			}
			t.Logf("\t%s\tTest 0:\tShould release the lease on the way out.", success)
		}

		t.Logf("\tTest 1:\tWhen renewals succeed across several lease windows.")
		{
			coordinator := &scriptedCoordinator{}

			w := &Worker{
				coordinator:   coordinator,
				leaseDuration: 120 * time.Millisecond,
				evHandler:     nopEv,
			}

			current := lease.Lease{
				HolderID:   "node1",
				Token:      "token",
				AcquiredAt: time.Now(),
				ExpiresAt:  time.Now().Add(w.leaseDuration),
			}

			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan struct{})
			go func() {
				w.holdLease(ctx, cancel, current)
				close(done)
			}()

			// Let the search run well past the original expiry.
			time.Sleep(300 * time.Millisecond)

			select {
			case <-ctx.Done():
				t.Fatalf("\t%s\tTest 1:\tShould keep the search alive while renewals succeed.", failed)
			default:
			}
			t.Logf("\t%s\tTest 1:\tShould keep the search alive while renewals succeed.", success)

			cancel()
			<-done

			renews, releases := coordinator.counts()
			if renews < 2 {
				t.Fatalf("\t%s\tTest 1:\tShould renew ahead of expiry: got %d renewals", failed, renews)
			}
			t.Logf("\t%s\tTest 1:\tShould renew ahead of expiry.", success)

			if releases != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould release the lease once done: got %d", failed, releases)
			}
			t.Logf("\t%s\tTest 1:\tShould release the lease once done.", success)
		}
	}
}

// =============================================================================

func Test_CompetingWorkers(t *testing.T) {
	t.Log("Given the need to seal exactly one block when two workers race one tip.")
	{
		t.Logf("\tTest 0:\tWhen two nodes share storage and a coordinator.")
		{
			strg, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			coordinator := lease.NewMemory()

			gen := genesis.Genesis{
				Date:             time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
				ChainID:          1,
				Difficulty:       1,
				EntriesPerBlock:  10,
				MaxContentLength: 10_000,
			}

			newNode := func(nodeID string) *state.State {
				st, err := state.New(state.Config{
					NodeID:      nodeID,
					Genesis:     gen,
					Storage:     strg,
					Coordinator: coordinator,
				})
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to construct the state: %v", failed, err)
				}

				Run(st, Config{Coordinator: coordinator, EvHandler: nopEv})
				return st
			}

			st1 := newNode("node1")
			defer st1.Shutdown()
			st2 := newNode("node2")
			defer st2.Shutdown()

			opts := state.SubmitOptions{DisableValidation: true}
			if _, err := st1.Submit(context.Background(), database.Entry{Content: "Alice agrees.", Author: "alice", Intent: "record"}, opts); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit to the first node: %v", failed, err)
			}
			if _, err := st2.Submit(context.Background(), database.Entry{Content: "Bob agrees.", Author: "bob", Intent: "record"}, opts); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit to the second node: %v", failed, err)
			}

			// Submission signals both workers; wait for the winner's block.
			deadline := time.Now().Add(2 * time.Second)
			for {
				if _, err := strg.GetBlock(1); err == nil {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest 0:\tShould seal block 1 within the deadline.", failed)
				}
				time.Sleep(10 * time.Millisecond)
			}
			t.Logf("\t%s\tTest 0:\tShould seal block 1.", success)

			// Give the losing worker time to collide with the sealed tip.
			time.Sleep(200 * time.Millisecond)

			if _, err := strg.GetBlock(2); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould never seal a second block for the same tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould never seal a second block for the same tip.", success)

			sealed := 0
			for _, st := range []*state.State{st1, st2} {
				if st.Height() == 2 {
					sealed++
				}
			}
			if sealed != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould let exactly one worker append for this tip: got %d", failed, sealed)
			}
			t.Logf("\t%s\tTest 0:\tShould let exactly one worker append for this tip.", success)
		}
	}
}
