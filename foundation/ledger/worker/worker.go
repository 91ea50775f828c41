// Package worker implements the background mining workflow: signalled
// sealing attempts guarded by the mining coordinator's lease.
package worker

import (
	"sync"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/lease"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/state"
)

// retryInterval represents the interval for re-checking the pending pool
// when a prior mining attempt found the lease busy.
const retryInterval = 5 * time.Second

// defaultLeaseDuration is used when the configuration does not specify a
// lease window.
const defaultLeaseDuration = 30 * time.Second

// Worker manages the mining workflow for the ledger.
type Worker struct {
	state         *state.State
	coordinator   lease.Coordinator
	leaseDuration time.Duration
	wg            sync.WaitGroup
	ticker        *time.Ticker
	shut          chan struct{}
	startMining   chan bool
	cancelMining  chan chan struct{}
	evHandler     state.EventHandler
}

// Config represents the configuration required to run the worker.
type Config struct {
	Coordinator   lease.Coordinator
	LeaseDuration time.Duration
	EvHandler     state.EventHandler
}

// Run creates a Worker, registers it with the state, and starts the
// mining goroutines.
func Run(st *state.State, cfg Config) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	leaseDuration := cfg.LeaseDuration
	if leaseDuration <= 0 {
		leaseDuration = defaultLeaseDuration
	}

	coordinator := cfg.Coordinator
	if coordinator == nil {
		coordinator = st.Coordinator()
	}

	w := Worker{
		state:         st,
		coordinator:   coordinator,
		leaseDuration: leaseDuration,
		ticker:        time.NewTicker(retryInterval),
		shut:          make(chan struct{}),
		startMining:   make(chan bool, 1),
		cancelMining:  make(chan chan struct{}, 1),
		evHandler:     ev,
	}

	// Register this worker with the state so submissions can signal it.
	st.Worker = &w

	operations := []func(){
		w.miningOperations,
		w.retryOperations,
	}

	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	done := w.SignalCancelMining()
	done()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// =============================================================================

// SignalStartMining starts a mining operation. If there is already a
// signal pending in the channel, just return since a mining operation will
// start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation
// function to stop immediately. That G will not return from the function
// until done is called. This allows the caller to complete any state
// changes before a new mining operation takes place.
func (w *Worker) SignalCancelMining() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelMining <- wait:
	default:
	}
	w.evHandler("worker: SignalCancelMining: cancel mining signaled")

	return func() { close(wait) }
}

// =============================================================================

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// retryOperations re-signals mining on a timer so entries left pending by
// a busy lease are picked up once the lease frees.
func (w *Worker) retryOperations() {
	w.evHandler("worker: retryOperations: G started")
	defer w.evHandler("worker: retryOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() && w.state.PendingCount() > 0 {
				w.SignalStartMining()
			}
		case <-w.shut:
			w.evHandler("worker: retryOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
