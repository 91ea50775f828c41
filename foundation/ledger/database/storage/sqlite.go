package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// SQLite represents the serialization implementation for reading and
// storing blocks in a SQLite database so several node processes on one host
// can share a chain. This implements the database.Storage interface.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	const migrate = `
	CREATE TABLE IF NOT EXISTS blocks (
		number INTEGER PRIMARY KEY,
		data   TEXT NOT NULL
	)`

	if _, err := db.Exec(migrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Write takes the specified block data and stores it in the blocks table.
// The primary key on the block number makes a competing write for the same
// position fail, which the database layer reports as a fork.
func (s *SQLite) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	_, err = s.db.Exec("INSERT INTO blocks (number, data) VALUES (?, ?)", blockData.Header.Number, string(data))
	return err
}

// GetBlock locates and returns the contents of the specified block by
// number.
func (s *SQLite) GetBlock(num uint64) (database.BlockData, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM blocks WHERE number = ?", num).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return database.BlockData{}, errors.New("block does not exist")
	}
	if err != nil {
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal([]byte(data), &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block number 1.
func (s *SQLite) ForEach() database.Iterator {
	return &sqliteIterator{storage: s}
}

// Reset clears out the blocks table.
func (s *SQLite) Reset() error {
	_, err := s.db.Exec("DELETE FROM blocks")
	return err
}

// =============================================================================

// sqliteIterator represents the iteration implementation for walking
// through and reading blocks from SQLite. This implements the
// database.Iterator interface.
type sqliteIterator struct {
	storage *SQLite // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (si *sqliteIterator) Next() (database.BlockData, error) {
	if si.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	si.current++
	blockData, err := si.storage.GetBlock(si.current)
	if err != nil {
		si.eoc = true
		return database.BlockData{}, errors.New("end of chain")
	}

	return blockData, nil
}

// Done returns the end of chain value.
func (si *sqliteIterator) Done() bool {
	return si.eoc
}
