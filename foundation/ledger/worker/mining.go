package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/lease"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/state"
)

// runMiningOperation acquires the mining lease, seals a block from the
// pending pool, and appends it to the chain. The nonce search is cancelled
// the moment the lease cannot be held to its wall-clock expiry.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if w.state.PendingCount() == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no entries to mine")
		return
	}

	// Acquisition is non-blocking: a busy lease means another node is
	// sealing and the retry ticker will bring us back.
	acquired, err := w.coordinator.Acquire(context.Background(), w.state.NodeID(), w.leaseDuration)
	if err != nil {
		switch {
		case errors.Is(err, lease.ErrBusy):
			w.evHandler("worker: runMiningOperation: MINING: lease busy, will retry")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: acquire lease: %s", err)
		}
		return
	}

	// After running a mining operation, check if a new operation should be
	// signaled again.
	defer func() {
		if w.state.PendingCount() > 0 {
			w.evHandler("worker: runMiningOperation: MINING: signal new mining operation")
			w.SignalStartMining()
		}
	}()

	// If mining is signalled to be cancelled, this G can't terminate until
	// it is told it can.
	var wait chan struct{}
	defer func() {
		if wait != nil {
			w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
			<-wait
			w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
		}
	}()

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(3)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case wait = <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: cancel mining requested")
		case <-ctx.Done():
		}
	}()

	// This G owns the lease: renews it ahead of expiry and cancels the
	// search before the wall clock runs out if renewal fails.
	go func() {
		defer wg.Done()
		w.holdLease(ctx, cancel, acquired)
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.MineNewBlock(ctx)
		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", time.Since(t))

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoPendingEntries):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no entries in pending pool")
			case errors.Is(err, database.ErrChainForked):
				// A competing block won the race for our parent. This needs
				// operator attention, never a silent merge.
				w.evHandler("worker: runMiningOperation: MINING: FORK DETECTED: %s", err)
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCELLED: by request")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: SEALED: block[%s] number[%d] entries[%d]", block.Hash(), block.Header.Number, len(block.Entries.Values()))
	}()

	// Wait for the G's to terminate.
	wg.Wait()
}

// holdLease renews the mining lease on a cadence well ahead of expiry.
// When renewal fails or can no longer happen in time, the mining context
// is cancelled before the lease's wall-clock expiry, and the partial nonce
// search is discarded. The lease is released on the way out.
func (w *Worker) holdLease(ctx context.Context, cancel context.CancelFunc, current lease.Lease) {
	renewInterval := w.leaseDuration / 3
	safety := w.leaseDuration / 6

	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer releaseCancel()

		if err := w.coordinator.Release(releaseCtx, current); err != nil {
			w.evHandler("worker: holdLease: WARNING: release: %s", err)
		}
	}()

	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	guard := time.NewTimer(time.Until(current.ExpiresAt.Add(-safety)))
	defer guard.Stop()

	for {
		select {
		case <-ticker.C:
			renewed, err := w.coordinator.Renew(ctx, current, w.leaseDuration)
			if err != nil {
				w.evHandler("worker: holdLease: lease lost: %s", err)
				cancel()
				return
			}

			current = renewed
			if !guard.Stop() {
				select {
				case <-guard.C:
				default:
				}
			}
			guard.Reset(time.Until(current.ExpiresAt.Add(-safety)))

		case <-guard.C:
			// Stop searching before the lease's wall-clock expiry, not
			// after.
			w.evHandler("worker: holdLease: lease expiring, abandoning search")
			cancel()
			return

		case <-ctx.Done():
			return
		}
	}
}
