package database

import (
	"fmt"
	"strings"
)

// Located pairs an entry with its position in the chain for query results.
type Located struct {
	Ref   EntryRef `json:"ref"`
	Entry Entry    `json:"entry"`
}

// =============================================================================

// ResolveRef returns the entry at the specified chain position.
func (db *Database) ResolveRef(ref EntryRef) (Entry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.resolveRef(ref)
}

// resolveRef expects the caller to hold at least a read lock.
func (db *Database) resolveRef(ref EntryRef) (Entry, error) {
	if ref.Block >= uint64(len(db.blocks)) {
		return Entry{}, fmt.Errorf("reference %s: block does not exist", ref)
	}

	block := db.blocks[ref.Block]
	if block.Entries == nil {
		return Entry{}, fmt.Errorf("reference %s: block carries no entries", ref)
	}

	entries := block.Entries.Values()
	if ref.Entry < 0 || ref.Entry >= len(entries) {
		return Entry{}, fmt.Errorf("reference %s: entry does not exist", ref)
	}

	return entries[ref.Entry], nil
}

// ValidateParentRefs checks that every parent reference of a submission
// resolves to an existing, valid sealed entry. The referencing entry will be
// sealed into a later block, so the strictly-lower-index invariant holds by
// construction.
func (db *Database) ValidateParentRefs(refs []EntryRef) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, ref := range refs {
		parent, err := db.resolveRef(ref)
		if err != nil {
			return err
		}

		if parent.Status != StatusValid {
			return fmt.Errorf("reference %s: parent entry is not valid, status %s", ref, parent.Status)
		}
	}

	return nil
}

// validateRefs checks the structural lineage invariant for an entry sealed
// in the specified block: every reference resolves and targets a strictly
// lower block index. The caller holds at least a read lock.
func (db *Database) validateRefs(refs []EntryRef, blockNumber uint64) error {
	for _, ref := range refs {
		if ref.Block >= blockNumber {
			return fmt.Errorf("reference %s does not target a strictly lower block", ref)
		}

		if _, err := db.resolveRef(ref); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================

// Lineage walks the parent references of the specified entry transitively
// and returns every ancestor. The DAG invariant guarantees termination, but
// a cycle found in stored data is still reported as a fatal integrity error
// rather than looped on.
func (db *Database) Lineage(ref EntryRef) ([]Located, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if _, err := db.resolveRef(ref); err != nil {
		return nil, err
	}

	var ancestors []Located
	visited := map[EntryRef]bool{ref: true}

	frontier := []EntryRef{ref}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		entry, err := db.resolveRef(current)
		if err != nil {
			return nil, err
		}

		for _, parentRef := range entry.ParentRefs {
			if parentRef.Block >= current.Block {
				return nil, &IntegrityViolation{BlockNumber: current.Block, Reason: fmt.Sprintf("lineage cycle: reference %s does not target a strictly lower block", parentRef)}
			}

			if visited[parentRef] {
				continue
			}
			visited[parentRef] = true

			parent, err := db.resolveRef(parentRef)
			if err != nil {
				return nil, err
			}

			ancestors = append(ancestors, Located{Ref: parentRef, Entry: parent})
			frontier = append(frontier, parentRef)
		}
	}

	return ancestors, nil
}

// Tree returns every entry that derives from the specified entry, directly
// or transitively.
func (db *Database) Tree(ref EntryRef) ([]Located, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if _, err := db.resolveRef(ref); err != nil {
		return nil, err
	}

	// Derivatives always live in later blocks, so one forward scan keyed on
	// the growing descendant set finds the whole tree.
	descendants := map[EntryRef]bool{ref: true}
	var tree []Located

	for num := ref.Block + 1; num < uint64(len(db.blocks)); num++ {
		block := db.blocks[num]
		if block.Entries == nil {
			continue
		}

		for i, entry := range block.Entries.Values() {
			for _, parentRef := range entry.ParentRefs {
				if descendants[parentRef] {
					childRef := EntryRef{Block: num, Entry: i}
					descendants[childRef] = true
					tree = append(tree, Located{Ref: childRef, Entry: entry})
					break
				}
			}
		}
	}

	return tree, nil
}

// =============================================================================

// ByAuthor returns every sealed entry written by the specified author.
func (db *Database) ByAuthor(author AuthorID) []Located {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var results []Located
	for num, block := range db.blocks {
		if block.Entries == nil {
			continue
		}

		for i, entry := range block.Entries.Values() {
			if entry.Author == author {
				results = append(results, Located{Ref: EntryRef{Block: uint64(num), Entry: i}, Entry: entry})
			}
		}
	}

	return results
}

// Search returns every sealed entry whose content or intent contains the
// specified keyword, case insensitive.
func (db *Database) Search(keyword string) []Located {
	db.mu.RLock()
	defer db.mu.RUnlock()

	keyword = strings.ToLower(keyword)

	var results []Located
	for num, block := range db.blocks {
		if block.Entries == nil {
			continue
		}

		for i, entry := range block.Entries.Values() {
			if strings.Contains(strings.ToLower(entry.Content), keyword) || strings.Contains(strings.ToLower(entry.Intent), keyword) {
				results = append(results, Located{Ref: EntryRef{Block: uint64(num), Entry: i}, Entry: entry})
			}
		}
	}

	return results
}
