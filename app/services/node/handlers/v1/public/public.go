// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/powchain/business/sys/metrics"
	"github.com/ardanlabs/powchain/business/sys/validate"
	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/ardanlabs/powchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	Ledger   *ledger.Ledger
	Peers    *peer.PeerSet
	Resolver *consensus.Resolver
	WS       websocket.Upgrader
	Evts     *events.Hub
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt newTx
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "sender", nt.Sender, "recipient", nt.Recipient, "amount", *nt.Amount)

	index, err := h.Ledger.NewTransaction(nt.Sender, nt.Recipient, *nt.Amount)
	if err != nil {
		if errors.Is(err, database.ErrValidation) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := txAdded{
		Message: fmt.Sprintf("Transaction will be added to Block %d", index),
		Index:   index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mempool returns the set of transactions waiting to be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Ledger.Pending(), http.StatusOK)
}

// Mine solves the puzzle for the next block and adds it to the chain. The
// search is abandoned if the client goes away.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.Ledger.Mine(ctx)
	if err != nil {
		return fmt.Errorf("mining block: %w", err)
	}

	metrics.AddBlocksMined(ctx)

	resp := minedBlock{
		Message:      "New Block Forged",
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterNodes adds the provided addresses to the set of known peers. No
// peer is added when any of the addresses is malformed.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rn registerNodes
	if err := web.Decode(r, &rn); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(rn); err != nil {
		return err
	}

	peers := make([]peer.Peer, len(rn.Nodes))
	for i, address := range rn.Nodes {
		pr, err := peer.ParseAddress(address)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		peers[i] = pr
	}

	for _, pr := range peers {
		if h.Peers.Add(pr) {
			h.Log.Infow("register node", "traceid", web.GetTraceID(ctx), "host", pr.Host)
		}
	}

	resp := nodesAdded{
		Message:    "New nodes have been added",
		TotalNodes: hosts(h.Peers.Copy("")),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Resolve asks the known peers for their chains and replaces the local
// chain with the longest valid one.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, err := h.Resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolving chain: %w", err)
	}

	resp := resolved{
		Message: "chain authoritative",
		Chain:   h.Ledger.Chain(),
	}

	if replaced {
		metrics.AddChainReplacements(ctx)
		resp.Message = "chain replaced"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
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

	// The upgrade wrote the response.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Subscribe(v.TraceID)
	defer h.Evts.Unsubscribe(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// hosts converts the peers into their network locations.
func hosts(peers []peer.Peer) []string {
	list := make([]string, len(peers))
	for i, pr := range peers {
		list[i] = pr.Host
	}
	return list
}
