// Package v1 contains the full set of handler functions and routes
// supported by the web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/powchain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/powchain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Peers and clients address every route from the root.
const version = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *zap.SugaredLogger
	Ledger    *ledger.Ledger
	Peers     *peer.PeerSet
	Resolver  *consensus.Resolver
	Evts      *events.Hub
	RateLimit web.Middleware
}

// PublicRoutes binds the routes used by clients of the node.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:      cfg.Log,
		Ledger:   cfg.Ledger,
		Peers:    cfg.Peers,
		Resolver: cfg.Resolver,
		WS:       websocket.Upgrader{},
		Evts:     cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/transactions/new", pbl.SubmitTransaction, cfg.RateLimit)
	app.Handle(http.MethodGet, version, "/transactions/pending", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/mine", pbl.Mine, cfg.RateLimit)
	app.Handle(http.MethodPost, version, "/nodes/register", pbl.RegisterNodes, cfg.RateLimit)
	app.Handle(http.MethodGet, version, "/nodes/resolve", pbl.Resolve)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}

// PrivateRoutes binds the routes other nodes call during resolution.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Peers:  cfg.Peers,
	}

	app.Handle(http.MethodGet, version, "/chain", prv.Chain)
	app.Handle(http.MethodGet, version, "/nodes/list", prv.KnownPeers)
}
