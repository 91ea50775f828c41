package state

import (
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// Verify recomputes every block hash and re-checks every chain invariant
// in index order, short-circuiting at the first violation. A violation is
// returned as a *database.IntegrityViolation naming the first bad block;
// the chain is never auto-repaired.
func (s *State) Verify() error {
	return s.db.Verify(s.evHandler)
}

// RetrievePending returns the pending entries in arrival order.
func (s *State) RetrievePending() []database.Entry {
	return s.pool.List()
}

// RetrieveBlocks returns a copy of the sealed chain.
func (s *State) RetrieveBlocks() []database.Block {
	return s.db.Blocks()
}

// QueryBlockByNumber returns the block at the specified position.
func (s *State) QueryBlockByNumber(num uint64) (database.Block, error) {
	return s.db.BlockByNumber(num)
}

// QueryByAuthor returns every sealed entry written by the specified
// author.
func (s *State) QueryByAuthor(author database.AuthorID) []database.Located {
	return s.db.ByAuthor(author)
}

// QueryLineage walks the parent references of the specified entry
// transitively and returns every ancestor.
func (s *State) QueryLineage(ref database.EntryRef) ([]database.Located, error) {
	return s.db.Lineage(ref)
}

// QueryTree returns every entry deriving from the specified entry,
// directly or transitively.
func (s *State) QueryTree(ref database.EntryRef) ([]database.Located, error) {
	return s.db.Tree(ref)
}

// QueryEntry returns the sealed entry at the specified position.
func (s *State) QueryEntry(ref database.EntryRef) (database.Entry, error) {
	return s.db.ResolveRef(ref)
}

// SearchContent returns every sealed entry whose content or intent
// contains the specified keyword.
func (s *State) SearchContent(keyword string) []database.Located {
	return s.db.Search(keyword)
}
