// Package pending maintains the pool of accepted entries waiting to be
// sealed into a block.
package pending

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/pending/selector"
)

// Pool represents a cache of pending entries keyed by entry id. IDs are
// assigned at submission and sort by arrival, so ordering is recoverable
// from the keys alone.
type Pool struct {
	pool     map[string]database.Entry
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new pool using the default FIFO strategy.
func New() (*Pool, error) {
	return NewWithStrategy(selector.StrategyFIFO)
}

// NewWithStrategy constructs a new pool with the specified selection
// strategy.
func NewWithStrategy(strategy string) (*Pool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	p := Pool{
		pool:     make(map[string]database.Entry),
		selectFn: selectFn,
	}

	return &p, nil
}

// Count returns the current number of entries in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.pool)
}

// Upsert adds or replaces an entry in the pool.
func (p *Pool) Upsert(entry database.Entry) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry.ID == "" {
		return 0, fmt.Errorf("entry is missing an id")
	}

	p.pool[entry.ID] = entry

	return len(p.pool), nil
}

// Delete removes an entry from the pool. Entries not present are left
// untouched, so removing a consumed batch never disturbs entries submitted
// concurrently during mining.
func (p *Pool) Delete(entry database.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.pool, entry.ID)
}

// Truncate clears all the entries from the pool.
func (p *Pool) Truncate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pool = make(map[string]database.Entry)
}

// PickBest uses the configured strategy to return the next set of entries
// for the block being assembled. Pass -1 for all entries.
func (p *Pool) PickBest(howMany int) []database.Entry {
	m := make(map[database.AuthorID][]database.Entry)
	p.mu.RLock()
	{
		if howMany == -1 {
			howMany = len(p.pool)
		}

		for _, entry := range p.pool {
			m[entry.Author] = append(m[entry.Author], entry)
		}
	}
	p.mu.RUnlock()

	return p.selectFn(m, howMany)
}

// List returns every pending entry in arrival order.
func (p *Pool) List() []database.Entry {
	p.mu.RLock()
	entries := make([]database.Entry, 0, len(p.pool))
	for _, entry := range p.pool {
		entries = append(entries, entry)
	}
	p.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})

	return entries
}
