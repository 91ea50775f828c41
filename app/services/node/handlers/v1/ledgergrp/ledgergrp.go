// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kase1111-hash/NatLangChain-sub001/business/web/errs"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/events"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/state"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Status returns the current state of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.LatestBlock()

	st := status{
		NodeID:          h.State.NodeID(),
		ChainID:         h.State.Genesis().ChainID,
		Height:          h.State.Height(),
		LatestBlockHash: latest.Hash(),
		PendingEntries:  h.State.PendingCount(),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitEntry runs the validation pipeline on a new entry and queues it
// for sealing when it passes. The full validation trace is returned for
// every submission, including rejections.
func (h Handlers) SubmitEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var se submitEntry
	if err := web.Decode(r, &se); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if se.DerivativeType != "" {
		if _, err := database.ToDerivativeType(se.DerivativeType); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	h.Log.Infow("submit entry", "traceid", v.TraceID, "author", se.Author, "intent", se.Intent)

	result, err := h.State.Submit(ctx, se.toDatabaseEntry(), state.SubmitOptions{
		DisableValidation: se.DisableValidation,
	})
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	statusCode := http.StatusCreated
	switch result.Outcome {
	case state.OutcomeRejected:
		statusCode = http.StatusUnprocessableEntity
	case state.OutcomeUnavailable:
		statusCode = http.StatusServiceUnavailable
	}

	return web.Respond(ctx, w, result, statusCode)
}

// Pending returns the entries waiting to be sealed, in arrival order.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	entries := h.State.RetrievePending()
	return web.Respond(ctx, w, entries, http.StatusOK)
}

// Search returns the sealed entries whose content or intent contains the
// keyword.
func (h Handlers) Search(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	keyword := web.Param(r, "keyword")

	found := h.State.SearchContent(keyword)
	if len(found) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, found, http.StatusOK)
}

// EntriesByAuthor returns every sealed entry written by the author.
func (h Handlers) EntriesByAuthor(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	author := web.Param(r, "author")

	found := h.State.QueryByAuthor(database.AuthorID(author))
	if len(found) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, found, http.StatusOK)
}

// EntryByRef returns the sealed entry at the block/entry position.
func (h Handlers) EntryByRef(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ref, err := paramRef(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	entry, err := h.State.QueryEntry(ref)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, entry, http.StatusOK)
}

// BlocksList returns the full chain as block data.
func (h Handlers) BlocksList(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveBlocks()

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// BlockByNumber returns the block at the specified position.
func (h Handlers) BlockByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number, err := strconv.ParseUint(web.Param(r, "number"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("invalid block number"), http.StatusBadRequest)
	}

	block, err := h.State.QueryBlockByNumber(number)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// Lineage returns every ancestor of the entry at the block/entry position.
func (h Handlers) Lineage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ref, err := paramRef(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	ancestors, err := h.State.QueryLineage(ref)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, ancestors, http.StatusOK)
}

// Tree returns every descendant of the entry at the block/entry position.
func (h Handlers) Tree(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ref, err := paramRef(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	descendants, err := h.State.QueryTree(ref)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, descendants, http.StatusOK)
}

// Verify re-validates the whole chain from storage and reports the first
// violation when one exists.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vr := verifyResult{
		Verified: true,
		Blocks:   h.State.Height(),
	}

	if err := h.State.Verify(); err != nil {
		vr.Verified = false

		var iv *database.IntegrityViolation
		if errors.As(err, &iv) {
			vr.FirstBad = iv.BlockNumber
			vr.Description = iv.Reason
		} else {
			vr.Description = err.Error()
		}
	}

	return web.Respond(ctx, w, vr, http.StatusOK)
}

// SignalMining signals the node to attempt sealing a block now.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("mining worker is not running"), http.StatusServiceUnavailable)
	}
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// paramRef parses the :block and :entry route parameters.
func paramRef(r *http.Request) (database.EntryRef, error) {
	block, err := strconv.ParseUint(web.Param(r, "block"), 10, 64)
	if err != nil {
		return database.EntryRef{}, errors.New("invalid block number")
	}

	entry, err := strconv.Atoi(web.Param(r, "entry"))
	if err != nil {
		return database.EntryRef{}, errors.New("invalid entry index")
	}

	return database.EntryRef{Block: block, Entry: entry}, nil
}
