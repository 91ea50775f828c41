// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/kase1111-hash/NatLangChain-sub001/app/services/node/handlers/v1/ledgergrp"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/events"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/state"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", lgh.Genesis)
	app.Handle(http.MethodGet, version, "/node/status", lgh.Status)
	app.Handle(http.MethodGet, version, "/events", lgh.Events)

	app.Handle(http.MethodPost, version, "/entry/submit", lgh.SubmitEntry)
	app.Handle(http.MethodGet, version, "/entry/pending", lgh.Pending)
	app.Handle(http.MethodGet, version, "/entry/search/:keyword", lgh.Search)
	app.Handle(http.MethodGet, version, "/entry/author/:author", lgh.EntriesByAuthor)
	app.Handle(http.MethodGet, version, "/entry/:block/:entry", lgh.EntryByRef)

	app.Handle(http.MethodGet, version, "/blocks/list", lgh.BlocksList)
	app.Handle(http.MethodGet, version, "/blocks/:number", lgh.BlockByNumber)

	app.Handle(http.MethodGet, version, "/lineage/:block/:entry", lgh.Lineage)
	app.Handle(http.MethodGet, version, "/tree/:block/:entry", lgh.Tree)

	app.Handle(http.MethodGet, version, "/chain/verify", lgh.Verify)
	app.Handle(http.MethodGet, version, "/mining/signal", lgh.SignalMining)
}
