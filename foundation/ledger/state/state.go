// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/genesis"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/lease"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/pending"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/semantic"
)

// ErrNoPendingEntries is returned when a block is requested to be sealed
// and the pending pool is empty.
var ErrNoPendingEntries = errors.New("no entries in pending pool")

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of the ledger.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
}

// =============================================================================

// Config represents the configuration required to start a ledger node.
type Config struct {
	NodeID         string
	Genesis        genesis.Genesis
	Storage        database.Storage
	Semantic       *semantic.Validator
	Coordinator    lease.Coordinator
	SelectStrategy string
	EvHandler      EventHandler
}

// State manages the ledger: the sealed chain, the pending pool, and the
// validation pipeline in front of them. It is the sole owner of chain
// state; one mutex orders every mutation of the tip and the pool.
type State struct {
	mu sync.Mutex

	nodeID      string
	genesis     genesis.Genesis
	evHandler   EventHandler
	db          *database.Database
	pool        *pending.Pool
	semantic    *semantic.Validator
	coordinator lease.Coordinator

	// Worker is registered by the worker package at startup.
	Worker Worker
}

// New constructs a new ledger state for data management.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		pool, err := pending.New()
		if err != nil {
			return nil, err
		}

		return newState(cfg, db, pool, ev), nil
	}

	pool, err := pending.NewWithStrategy(strategy)
	if err != nil {
		return nil, err
	}

	return newState(cfg, db, pool, ev), nil
}

func newState(cfg Config, db *database.Database, pool *pending.Pool, ev EventHandler) *State {
	return &State{
		nodeID:      cfg.NodeID,
		genesis:     cfg.Genesis,
		evHandler:   ev,
		db:          db,
		pool:        pool,
		semantic:    cfg.Semantic,
		coordinator: cfg.Coordinator,
	}
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer s.db.Close()

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// NodeID returns the identity this node seals blocks and holds leases
// under.
func (s *State) NodeID() string {
	return s.nodeID
}

// Genesis returns the genesis configuration of the chain.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Coordinator returns the mining coordinator the node was configured with.
func (s *State) Coordinator() lease.Coordinator {
	return s.coordinator
}

// LatestBlock returns the current chain tip.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// Height returns the number of blocks in the chain including genesis.
func (s *State) Height() uint64 {
	return s.db.Height()
}

// PendingCount returns the number of entries waiting to be sealed.
func (s *State) PendingCount() int {
	return s.pool.Count()
}
