// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Peers  *peer.PeerSet
}

// Chain returns the full chain held by this node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.Ledger.Chain()

	resp := peer.ChainResponse{
		Chain:  chain,
		Length: len(chain),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// KnownPeers returns the set of peers this node knows about.
func (h Handlers) KnownPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Nodes []string `json:"nodes"`
	}{
		Nodes: hosts(h.Peers.Copy("")),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// hosts converts the peers into their network locations.
func hosts(peers []peer.Peer) []string {
	list := make([]string, len(peers))
	for i, pr := range peers {
		list[i] = pr.Host
	}
	return list
}
