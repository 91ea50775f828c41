// Package database handles the lower level support for maintaining the
// ledger in storage and the integrity rules that are re-checked on every
// mutation of chain state.
package database

import (
	"fmt"
	"sync"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/genesis"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the ledger.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the sealed portion of the ledger. It is the sole owner
// of block state; all mutations come through Write.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	genesisBlk  Block
	latestBlock Block
	blocks      []Block

	storage Storage
}

// New constructs a new database, derives the genesis block from the genesis
// configuration, and replays the blocks held in storage validating every
// invariant along the way.
func New(genesis genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	genesisBlk := Block{
		Header: BlockHeader{
			Number:        0,
			PrevBlockHash: ZeroHash,
			TimeStamp:     uint64(genesis.Date.UTC().Unix()),
			Nonce:         0,
			Difficulty:    genesis.Difficulty,
		},
	}

	db := Database{
		genesis:     genesis,
		genesisBlk:  genesisBlk,
		latestBlock: genesisBlk,
		blocks:      []Block{genesisBlk},
		storage:     storage,
	}

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.latestBlock, evHandler); err != nil {
			return nil, err
		}

		db.blocks = append(db.blocks, block)
		db.latestBlock = block
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset re-initializes the database back to the genesis state.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = db.genesisBlk
	db.blocks = []Block{db.genesisBlk}

	return nil
}

// LatestBlock returns the current chain tip.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Height returns the number of blocks in the chain including genesis.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// Write validates the specified block against the current tip and appends
// it to the chain. A competing block for an already occupied position is
// rejected with ErrChainForked: first appended wins.
func (db *Database) Write(block Block, evHandler func(v string, args ...any)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	// Another sealer sharing this storage may have already written this
	// position. First-appended-wins; the loser is told about the fork.
	if existing, err := db.storage.GetBlock(block.Header.Number); err == nil && existing.Hash != "" {
		if existing.Hash != block.Hash() {
			return ErrChainForked
		}
		return nil
	}

	if err := block.ValidateBlock(db.latestBlock, evHandler); err != nil {
		return err
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)
	db.latestBlock = block

	return nil
}

// BlockByNumber returns the block at the specified position in the chain.
func (db *Database) BlockByNumber(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d does not exist", num)
	}

	return db.blocks[num], nil
}

// Blocks returns a copy of the current chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)

	return blocks
}

// =============================================================================

// IntegrityViolation reports the first invariant broken by a stored chain.
// The chain is not auto-repaired; mining must halt until this is resolved.
type IntegrityViolation struct {
	BlockNumber uint64
	Reason      string
}

// Error implements the error interface.
func (iv *IntegrityViolation) Error() string {
	return fmt.Sprintf("integrity violation at block %d: %s", iv.BlockNumber, iv.Reason)
}

// Verify re-reads every block from storage and re-checks every invariant in
// index order: stored hash against the recomputed digest, the difficulty
// predicate, previous-hash linkage, entry tamper evidence through the
// merkle root, and lineage validity. It short-circuits at the first
// violation.
func (db *Database) Verify(evHandler func(v string, args ...any)) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	prev := db.genesisBlk

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return &IntegrityViolation{BlockNumber: prev.Header.Number + 1, Reason: err.Error()}
		}

		num := blockData.Header.Number

		// Rebuilding the block recomputes the merkle tree from the stored
		// entries, so an edited entry surfaces as a root mismatch below.
		block, err := ToBlock(blockData)
		if err != nil {
			return &IntegrityViolation{BlockNumber: num, Reason: err.Error()}
		}

		if block.Entries == nil {
			return &IntegrityViolation{BlockNumber: num, Reason: "block carries no entries"}
		}

		if root := block.Entries.RootHex(); root != blockData.Header.EntriesRoot {
			return &IntegrityViolation{BlockNumber: num, Reason: fmt.Sprintf("entries were modified after sealing, root %s, exp %s", root, blockData.Header.EntriesRoot)}
		}

		if hash := block.Hash(); hash != blockData.Hash {
			return &IntegrityViolation{BlockNumber: num, Reason: fmt.Sprintf("stored hash %s does not match recomputed %s", blockData.Hash, hash)}
		}

		if !isHashSolved(block.Header.Difficulty, blockData.Hash) {
			return &IntegrityViolation{BlockNumber: num, Reason: "hash does not satisfy the difficulty predicate"}
		}

		if block.Header.PrevBlockHash != prev.Hash() {
			return &IntegrityViolation{BlockNumber: num, Reason: "previous-hash linkage is broken"}
		}

		if block.Header.Number != prev.Header.Number+1 {
			return &IntegrityViolation{BlockNumber: num, Reason: fmt.Sprintf("block number %d is not sequential", block.Header.Number)}
		}

		if block.Header.TimeStamp < prev.Header.TimeStamp {
			return &IntegrityViolation{BlockNumber: num, Reason: "block timestamp precedes its parent"}
		}

		for i, entry := range block.Entries.Values() {
			if err := db.validateRefs(entry.ParentRefs, num); err != nil {
				return &IntegrityViolation{BlockNumber: num, Reason: fmt.Sprintf("entry %d: %s", i, err)}
			}
		}

		evHandler("database: Verify: blk[%d]: all checks passed", num)

		prev = block
	}

	return nil
}
