package database

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gowebpki/jcs"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/merkle"
)

// ErrChainForked is returned when a block competing for an already occupied
// position in the chain is presented for writing. Forks are an operational
// event that requires attention, never silently merged.
var ErrChainForked = errors.New("chain forked: competing block for the same parent")

// ZeroHash represents a hash code of zeros. It is the fixed previous-hash
// sentinel of every genesis block produced by this design.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64 `json:"number"`          // Position in the chain, genesis is 0.
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block, ZeroHash for genesis.
	TimeStamp     uint64 `json:"timestamp"`       // Time the block was sealed.
	Nonce         uint64 `json:"nonce"`           // Value identified to solve the hash solution.
	SealedBy      string `json:"sealed_by"`       // The node that held the mining lease and sealed this block.
	Difficulty    uint   `json:"difficulty"`      // Number of leading zero nibbles needed to solve the hash solution.
	EntriesRoot   string `json:"entries_root"`    // Merkle tree root hash for the entries in this block.
}

// Block represents a group of validated entries sealed together.
type Block struct {
	Header  BlockHeader
	Entries *merkle.Tree[Entry]
}

// Seal constructs a new Block and performs the work to find a nonce that
// satisfies the difficulty predicate. The search starts at nonce zero and
// increments until solved or the context is cancelled.
func Seal(ctx context.Context, sealedBy string, difficulty uint, prevBlock Block, entries []Entry, evHandler func(v string, args ...any)) (Block, error) {
	if len(entries) == 0 {
		return Block{}, errors.New("cannot seal a block with no entries")
	}

	// Construct a merkle tree from the entries for this block. The root of
	// this tree is part of the header to be sealed, which makes any later
	// mutation of sealed entry content detectable.
	tree, err := merkle.NewTree(entries)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			Number:        prevBlock.Header.Number + 1,
			PrevBlockHash: prevBlock.Hash(),
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			Nonce:         0, // Will be identified by the nonce search.
			SealedBy:      sealedBy,
			Difficulty:    difficulty,
			EntriesRoot:   tree.RootHex(),
		},
		Entries: tree,
	}

	if err := nb.performNonceSearch(ctx, evHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performNonceSearch does the work of mining to find a valid hash for a
// specified block. Pointer semantics are being used since a nonce is being
// discovered. The context is observed on every iteration so a lost lease or
// a competing sealer abandons the work promptly.
func (b *Block) performNonceSearch(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: performNonceSearch: MINING: started")
	defer ev("database: performNonceSearch: MINING: completed")

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performNonceSearch: MINING: attempts[%d]", attempts)
		}

		// Did the lease expire or did someone else seal first.
		if ctx.Err() != nil {
			ev("database: performNonceSearch: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: performNonceSearch: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: performNonceSearch: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the unique hash for the Block. The header is serialized to
// canonical JSON first so the digest is deterministic across nodes.
func (b Block) Hash() string {
	data, err := json.Marshal(b.Header)
	if err != nil {
		return ZeroHash
	}

	canonical, err := jcs.Transform(data)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(canonical)
	return hexutil.Encode(hash[:])
}

// ValidateBlock takes a block and validates it to be included into the
// ledger after the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: blk[%d]: check: chain is not forked", b.Header.Number)

	// A competing block for the position right after our latest block means
	// another sealer won the race for the same parent.
	if b.Header.Number == previousBlock.Header.Number && b.Header.PrevBlockHash == previousBlock.Header.PrevBlockHash {
		if b.Hash() != previousBlock.Hash() {
			return ErrChainForked
		}
	}

	nextNumber := previousBlock.Header.Number + 1

	evHandler("database: ValidateBlock: blk[%d]: check: block number is the next number", b.Header.Number)

	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Number)

	hash := b.Hash()
	if !isHashSolved(b.Header.Difficulty, hash) {
		return fmt.Errorf("%s invalid block hash", hash)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block's timestamp is not before the parent block's", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		parentTime := time.Unix(int64(previousBlock.Header.TimeStamp), 0)
		blockTime := time.Unix(int64(b.Header.TimeStamp), 0)
		return fmt.Errorf("block timestamp is before parent block, parent %s, block %s", parentTime, blockTime)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: merkle root does match entries", b.Header.Number)

	if b.Entries == nil {
		return fmt.Errorf("block %d carries no entries", b.Header.Number)
	}

	if b.Header.EntriesRoot != b.Entries.RootHex() {
		return fmt.Errorf("merkle root does not match entries, got %s, exp %s", b.Entries.RootHex(), b.Header.EntriesRoot)
	}

	return nil
}

// isHashSolved checks the hash complies with the difficulty predicate: the
// digest must carry at least difficulty leading zero nibbles. The digest
// holds 64 nibbles, so no hash satisfies a difficulty beyond that; the
// header difficulty comes from storage and must never panic this check.
func isHashSolved(difficulty uint, hash string) bool {
	if len(hash) != 66 {
		return false
	}

	if difficulty > 64 {
		return false
	}

	return strings.HasPrefix(hash, "0x"+strings.Repeat("0", int(difficulty)))
}

// =============================================================================

// BlockData represents what is serialized for storage.
type BlockData struct {
	Hash    string      `json:"hash"`
	Header  BlockHeader `json:"block"`
	Entries []Entry     `json:"entries"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(block Block) BlockData {
	var entries []Entry
	if block.Entries != nil {
		entries = block.Entries.Values()
	}

	return BlockData{
		Hash:    block.Hash(),
		Header:  block.Header,
		Entries: entries,
	}
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) (Block, error) {
	if len(blockData.Entries) == 0 {
		return Block{Header: blockData.Header}, nil
	}

	tree, err := merkle.NewTree(blockData.Entries)
	if err != nil {
		return Block{}, err
	}

	return Block{
		Header:  blockData.Header,
		Entries: tree,
	}, nil
}
