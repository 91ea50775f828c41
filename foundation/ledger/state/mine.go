package state

import (
	"context"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// MineNewBlock attempts to seal a new block from the current pending
// snapshot. Entries submitted concurrently during the nonce search remain
// pending; only the consumed batch is removed, and only after the block is
// appended.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check pending pool count")

	if s.pool.Count() == 0 {
		return database.Block{}, ErrNoPendingEntries
	}

	s.evHandler("state: MineNewBlock: MINING: perform nonce search")

	// The nonce search runs against a snapshot and can be cancelled by a
	// lost lease or a competing sealer.
	entries := s.pool.PickBest(int(s.genesis.EntriesPerBlock))
	block, err := database.Seal(ctx, s.nodeID, s.genesis.Difficulty, s.db.LatestBlock(), entries, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.updateLocalState(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// updateLocalState appends the sealed block and removes exactly the
// entries it consumed from the pending pool, atomically with respect to
// every other chain mutation.
func (s *State) updateLocalState(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block to storage")

	if err := s.db.Write(block, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: updateLocalState: remove consumed entries from pending pool")

	for _, entry := range block.Entries.Values() {
		s.evHandler("state: updateLocalState: entry[%s] remove", entry.ID)
		s.pool.Delete(entry)
	}

	return nil
}
