// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date                time.Time `json:"date"`
	ChainID             uint16    `json:"chain_id"`             // Unique id for this running instance of the ledger.
	Difficulty          uint      `json:"difficulty"`           // Number of leading zero nibbles required of a sealed block hash.
	EntriesPerBlock     uint16    `json:"entries_per_block"`    // Maximum number of entries sealed into one block.
	MaxContentLength    int       `json:"max_content_length"`   // Maximum byte length accepted for entry content.
	Validators          int       `json:"validators"`           // Number of independent oracle calls for consensus review.
	SimilarityThreshold float64   `json:"similarity_threshold"` // Minimum mean pairwise paraphrase similarity for a VALID aggregate.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path ...string) (Genesis, error) {
	genesisPath := "zledger/genesis.json"
	if len(path) > 0 {
		genesisPath = path[0]
	}

	content, err := os.ReadFile(genesisPath)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
