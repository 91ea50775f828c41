package database

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gowebpki/jcs"
)

// ValidationStatus represents where an entry sits in the validation
// pipeline. Once an entry is sealed into a block the status is frozen.
type ValidationStatus string

// Set of validation states an entry can be in.
const (
	StatusUnvalidated ValidationStatus = "unvalidated"
	StatusPending     ValidationStatus = "pending"
	StatusValid       ValidationStatus = "valid"
	StatusInvalid     ValidationStatus = "invalid"
	StatusAmbiguous   ValidationStatus = "ambiguous"
)

// DerivativeType tags an entry that derives from prior entries. The set is
// closed; anything outside the registry is rejected at submission.
type DerivativeType string

// Registry of recognized derivative kinds.
const (
	DerivativeCounterOffer DerivativeType = "counter_offer"
	DerivativeAcceptance   DerivativeType = "acceptance"
	DerivativeRejection    DerivativeType = "rejection"
	DerivativeAmendment    DerivativeType = "amendment"
)

var derivativeTypes = map[DerivativeType]bool{
	DerivativeCounterOffer: true,
	DerivativeAcceptance:   true,
	DerivativeRejection:    true,
	DerivativeAmendment:    true,
}

// ToDerivativeType validates the specified kind against the registry.
func ToDerivativeType(kind string) (DerivativeType, error) {
	dt := DerivativeType(kind)
	if !derivativeTypes[dt] {
		return "", fmt.Errorf("derivative type %q is not recognized", kind)
	}

	return dt, nil
}

// =============================================================================

// AuthorID is the opaque identifier of the party who wrote an entry.
type AuthorID string

// EntryRef identifies an entry by its position in the chain.
type EntryRef struct {
	Block uint64 `json:"block"`
	Entry int    `json:"entry"`
}

// String implements the fmt.Stringer interface.
func (r EntryRef) String() string {
	return fmt.Sprintf("%d/%d", r.Block, r.Entry)
}

// Metadata is the caller supplied annotations on an entry. Values are
// restricted to scalars, flat lists of scalars, and flat string keyed maps
// of scalars. The shape is enforced by the symbolic validator before an
// entry can reach the pending pool.
type Metadata map[string]any

// =============================================================================

// Entry represents one natural-language statement recorded on the ledger.
// While pending only Status and Validation may change; once sealed into a
// block the entry is immutable.
type Entry struct {
	ID             string            `json:"id"`
	Content        string            `json:"content"`
	Author         AuthorID          `json:"author"`
	Intent         string            `json:"intent"`
	Metadata       Metadata          `json:"metadata,omitempty"`
	TimeStamp      uint64            `json:"timestamp"`
	Status         ValidationStatus  `json:"validation_status"`
	Validation     *ValidationRecord `json:"validation_record,omitempty"`
	ParentRefs     []EntryRef        `json:"parent_references,omitempty"`
	DerivativeType DerivativeType    `json:"derivative_type,omitempty"`
}

// Hash returns the unique hash for the entry based on a canonical JSON
// form, so two semantically identical entries always hash identically. This
// is the leaf hash for the block's merkle tree and the lineage key.
func (e Entry) Hash() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(canonical)
	return hash[:], nil
}

// HashString returns the entry hash hex encoded.
func (e Entry) HashString() string {
	hash, err := e.Hash()
	if err != nil {
		return ZeroHash
	}

	return hexutil.Encode(hash)
}

// Equals returns true if two entries carry the same canonical content.
func (e Entry) Equals(other Entry) bool {
	return e.HashString() == other.HashString()
}

// =============================================================================

// SymbolicResult is the outcome of the structural checks run on every
// entry before any oracle call.
type SymbolicResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// Vote captures one validator's judgment in multi-validator mode.
type Vote struct {
	Validator  int    `json:"validator"`
	Decision   string `json:"decision"`
	Paraphrase string `json:"paraphrase"`
}

// SemanticResult is the outcome of the oracle review, either a single call
// or the aggregate of a multi-validator vote.
type SemanticResult struct {
	Decision              string   `json:"decision"`
	Paraphrase            string   `json:"paraphrase"`
	IntentMatch           bool     `json:"intent_match"`
	Ambiguities           []string `json:"ambiguities,omitempty"`
	AdversarialIndicators []string `json:"adversarial_indicators,omitempty"`
	Reason                string   `json:"reason,omitempty"`
	Votes                 []Vote   `json:"votes,omitempty"`
	MeanSimilarity        float64  `json:"mean_similarity,omitempty"`
	Abstentions           int      `json:"abstentions,omitempty"`
}

// ValidationRecord is the full validation trace attached to an entry. It is
// never mutated after the entry is sealed into a block.
type ValidationRecord struct {
	Symbolic SymbolicResult  `json:"symbolic"`
	Semantic *SemanticResult `json:"semantic,omitempty"`
}
