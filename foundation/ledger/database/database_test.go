package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database/storage"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

var nopEv = func(v string, args ...any) {}

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:             time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:          1,
		Difficulty:       1,
		EntriesPerBlock:  10,
		MaxContentLength: 10_000,
	}
}

func testEntry(id string, content string) database.Entry {
	return database.Entry{
		ID:        id,
		Content:   content,
		Author:    "alice",
		Intent:    "record an agreement",
		TimeStamp: 1767225600,
		Status:    database.StatusUnvalidated,
	}
}

// =============================================================================

func Test_EntryHash(t *testing.T) {
	t.Log("Given the need to validate entry hashing is canonical.")
	{
		t.Logf("\tTest 0:\tWhen hashing the same entry twice.")
		{
			entry := testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees to deliver 100 apples to Bob.")

			h1 := entry.HashString()
			h2 := entry.HashString()

			if h1 != h2 {
				t.Fatalf("\t%s\tTest 0:\tShould get the same hash twice: got %s and %s", failed, h1, h2)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same hash twice.", success)

			if h1 == database.ZeroHash {
				t.Fatalf("\t%s\tTest 0:\tShould not get the zero hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not get the zero hash.", success)
		}

		t.Logf("\tTest 1:\tWhen changing a single field.")
		{
			entry := testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees to deliver 100 apples to Bob.")
			changed := entry
			changed.Content = "Alice agrees to deliver 101 apples to Bob."

			if entry.HashString() == changed.HashString() {
				t.Fatalf("\t%s\tTest 1:\tShould get a different hash for different content.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould get a different hash for different content.", success)

			if !entry.Equals(entry) || entry.Equals(changed) {
				t.Fatalf("\t%s\tTest 1:\tShould compare entries by canonical hash.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould compare entries by canonical hash.", success)
		}
	}
}

func Test_SealAndWrite(t *testing.T) {
	t.Log("Given the need to seal entries into a block and append it.")
	{
		t.Logf("\tTest 0:\tWhen sealing a block at difficulty 1.")
		{
			strg, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			db, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open database: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to open database.", success)

			genesisBlk := db.LatestBlock()
			if genesisBlk.Header.Number != 0 || genesisBlk.Header.PrevBlockHash != database.ZeroHash {
				t.Fatalf("\t%s\tTest 0:\tShould start the chain at the genesis block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould start the chain at the genesis block.", success)

			entries := []database.Entry{
				testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees to deliver 100 apples to Bob."),
				testEntry("01ARZ3NDEKTSV4RRFFQ69G5FB0", "Bob agrees to pay 50 euro on delivery."),
			}

			block, err := database.Seal(context.Background(), "node1", 1, genesisBlk, entries, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to seal a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to seal a block.", success)

			if block.Header.Number != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould seal block number 1: got %d", failed, block.Header.Number)
			}
			t.Logf("\t%s\tTest 0:\tShould seal block number 1.", success)

			if block.Header.PrevBlockHash != genesisBlk.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould link the block to the genesis hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould link the block to the genesis hash.", success)

			if block.Hash()[:3] != "0x0" {
				t.Fatalf("\t%s\tTest 0:\tShould satisfy the difficulty predicate: got %s", failed, block.Hash())
			}
			t.Logf("\t%s\tTest 0:\tShould satisfy the difficulty predicate.", success)

			if err := db.Write(block, nopEv); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write the block.", success)

			if db.Height() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have a chain of height 2: got %d", failed, db.Height())
			}
			t.Logf("\t%s\tTest 0:\tShould have a chain of height 2.", success)

			if err := db.Verify(nopEv); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould verify the chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould verify the chain.", success)
		}

		t.Logf("\tTest 1:\tWhen sealing a block with no entries.")
		{
			if _, err := database.Seal(context.Background(), "node1", 1, database.Block{}, nil, nopEv); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould refuse to seal an empty block.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse to seal an empty block.", success)
		}

		t.Logf("\tTest 2:\tWhen the nonce search is cancelled.")
		{
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			entries := []database.Entry{testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees.")}

			_, err := database.Seal(ctx, "node1", 1, database.Block{Header: database.BlockHeader{PrevBlockHash: database.ZeroHash}}, entries, nopEv)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 2:\tShould return the context error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould return the context error.", success)
		}
	}
}

func Test_ChainFork(t *testing.T) {
	t.Log("Given the need to detect competing blocks for the same position.")
	{
		t.Logf("\tTest 0:\tWhen two databases share one storage.")
		{
			strg, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			db1, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open first database: %v", failed, err)
			}
			db2, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open second database: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to open both databases.", success)

			blockA, err := database.Seal(context.Background(), "node1", 1, db1.LatestBlock(), []database.Entry{testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees to deliver 100 apples.")}, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to seal the first block: %v", failed, err)
			}
			blockB, err := database.Seal(context.Background(), "node2", 1, db2.LatestBlock(), []database.Entry{testEntry("01ARZ3NDEKTSV4RRFFQ69G5FB0", "Bob agrees to pay 50 euro.")}, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to seal the competing block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to seal two competing blocks.", success)

			if err := db1.Write(blockA, nopEv); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the first block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write the first block.", success)

			if err := db2.Write(blockB, nopEv); !errors.Is(err, database.ErrChainForked) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the competing block with ErrChainForked: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the competing block with ErrChainForked.", success)
		}
	}
}

func Test_VerifyTamper(t *testing.T) {
	t.Log("Given the need to detect tampering with sealed entries.")
	{
		t.Logf("\tTest 0:\tWhen entry content is edited in storage.")
		{
			strg, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			db, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open database: %v", failed, err)
			}

			entries := []database.Entry{testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees to deliver 100 apples.")}
			block, err := database.Seal(context.Background(), "node1", 1, db.LatestBlock(), entries, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to seal a block: %v", failed, err)
			}
			if err := db.Write(block, nopEv); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to seal and write a block.", success)

			// Rewrite the stored block with edited entry content, keeping the
			// sealed header and hash.
			tampered := database.NewBlockData(block)
			tampered.Entries[0].Content = "Alice agrees to deliver 1 apple."
			if err := strg.Write(tampered); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to tamper with storage: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to tamper with storage.", success)

			err = db.Verify(nopEv)
			if err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould detect the tampering.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould detect the tampering.", success)

			var iv *database.IntegrityViolation
			if !errors.As(err, &iv) {
				t.Fatalf("\t%s\tTest 0:\tShould report an integrity violation: %v", failed, err)
			}
			if iv.BlockNumber != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould name block 1 as the first bad block: got %d", failed, iv.BlockNumber)
			}
			t.Logf("\t%s\tTest 0:\tShould name block 1 as the first bad block.", success)
		}
	}
}

func Test_HighDifficulty(t *testing.T) {
	t.Log("Given the need to handle difficulties near the digest width.")
	{
		t.Logf("\tTest 0:\tWhen sealing at a difficulty the search cannot finish.")
		{
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			entries := []database.Entry{testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees.")}

			_, err := database.Seal(ctx, "node1", 20, database.Block{Header: database.BlockHeader{PrevBlockHash: database.ZeroHash}}, entries, nopEv)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest 0:\tShould abandon the search at the deadline: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould abandon the search at the deadline.", success)
		}

		t.Logf("\tTest 1:\tWhen a stored header carries a difficulty its hash cannot satisfy.")
		{
			strg, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to open storage: %v", failed, err)
			}

			db, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to open database: %v", failed, err)
			}

			entries := []database.Entry{testEntry("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Alice agrees to deliver 100 apples.")}
			block, err := database.Seal(context.Background(), "node1", 1, db.LatestBlock(), entries, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to seal a block: %v", failed, err)
			}
			if err := db.Write(block, nopEv); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to write the block: %v", failed, err)
			}

			// Rewrite the stored header with an unsatisfiable difficulty and a
			// recomputed hash so only the difficulty predicate can catch it.
			tampered := database.NewBlockData(block)
			tampered.Header.Difficulty = 60
			reblock, err := database.ToBlock(tampered)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to rebuild the tampered block: %v", failed, err)
			}
			tampered.Hash = reblock.Hash()
			if err := strg.Write(tampered); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to tamper with storage: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to tamper with storage.", success)

			var iv *database.IntegrityViolation
			if err := db.Verify(nopEv); !errors.As(err, &iv) {
				t.Fatalf("\t%s\tTest 1:\tShould report an integrity violation: %v", failed, err)
			}
			if iv.BlockNumber != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould name block 1 as the first bad block: got %d", failed, iv.BlockNumber)
			}
			t.Logf("\t%s\tTest 1:\tShould report the violation instead of crashing.", success)
		}
	}
}

func Test_Replay(t *testing.T) {
	t.Log("Given the need to reload a chain from storage on startup.")
	{
		t.Logf("\tTest 0:\tWhen reopening a database over existing blocks.")
		{
			strg, err := storage.NewMemory()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			db, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open database: %v", failed, err)
			}

			prev := db.LatestBlock()
			for i, id := range []string{"01ARZ3NDEKTSV4RRFFQ69G5FAV", "01ARZ3NDEKTSV4RRFFQ69G5FB0"} {
				block, err := database.Seal(context.Background(), "node1", 1, prev, []database.Entry{testEntry(id, "Entry content.")}, nopEv)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to seal block %d: %v", failed, i+1, err)
				}
				if err := db.Write(block, nopEv); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to write block %d: %v", failed, i+1, err)
				}
				prev = block
			}
			t.Logf("\t%s\tTest 0:\tShould be able to build a chain of two blocks.", success)

			reopened, err := database.New(testGenesis(), strg, nopEv)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to reopen the database: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to reopen the database.", success)

			if reopened.Height() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould replay both blocks: got height %d", failed, reopened.Height())
			}
			t.Logf("\t%s\tTest 0:\tShould replay both blocks.", success)

			if reopened.LatestBlock().Hash() != prev.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould arrive at the same tip.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould arrive at the same tip.", success)
		}
	}
}
