package ledgergrp

import (
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
)

// submitEntry is what a client sends to record a statement on the ledger.
type submitEntry struct {
	Content           string              `json:"content" validate:"required"`
	Author            string              `json:"author" validate:"required"`
	Intent            string              `json:"intent"`
	Metadata          database.Metadata   `json:"metadata"`
	ParentRefs        []database.EntryRef `json:"parent_references"`
	DerivativeType    string              `json:"derivative_type"`
	DisableValidation bool                `json:"disable_validation"`
}

// toDatabaseEntry converts the request model into a ledger entry.
func (se submitEntry) toDatabaseEntry() database.Entry {
	return database.Entry{
		Content:        se.Content,
		Author:         database.AuthorID(se.Author),
		Intent:         se.Intent,
		Metadata:       se.Metadata,
		ParentRefs:     se.ParentRefs,
		DerivativeType: database.DerivativeType(se.DerivativeType),
	}
}

// status is the node status response.
type status struct {
	NodeID          string `json:"node_id"`
	ChainID         uint16 `json:"chain_id"`
	Height          uint64 `json:"height"`
	LatestBlockHash string `json:"latest_block_hash"`
	PendingEntries  int    `json:"pending_entries"`
}

// verifyResult is the chain verification response.
type verifyResult struct {
	Verified    bool   `json:"verified"`
	Blocks      uint64 `json:"blocks"`
	FirstBad    uint64 `json:"first_bad_block,omitempty"`
	Description string `json:"description,omitempty"`
}
