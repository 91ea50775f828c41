package storage

import (
	"errors"
	"sync"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// Memory represents the serialization implementation for reading and
// storing blocks in memory. This implements the database.Storage interface
// and is used by tests and by nodes sharing one in-process store.
type Memory struct {
	mu     sync.RWMutex
	blocks map[uint64]database.BlockData
	height uint64
}

// NewMemory constructs a Memory value for use.
func NewMemory() (*Memory, error) {
	return &Memory{
		blocks: make(map[uint64]database.BlockData),
	}, nil
}

// Close in this implementation has nothing to do since everything is in
// memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block data and stores it in memory. Ordering
// is enforced by the database layer, not here, so a shared store can also
// be mutated directly by tests proving tamper detection.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[blockData.Header.Number] = blockData
	if blockData.Header.Number > m.height {
		m.height = blockData.Header.Number
	}

	return nil
}

// GetBlock locates and returns the contents of the specified block by
// number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blockData, exists := m.blocks[num]
	if !exists {
		return database.BlockData{}, errors.New("block does not exist")
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset clears out the in-memory ledger.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[uint64]database.BlockData)
	m.height = 0

	return nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through and reading blocks in memory. This implements the
// database.Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	mi.current++

	mi.storage.mu.RLock()
	defer mi.storage.mu.RUnlock()

	blockData, exists := mi.storage.blocks[mi.current]
	if !exists {
		mi.eoc = true
		return database.BlockData{}, errors.New("end of chain")
	}

	return blockData, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
