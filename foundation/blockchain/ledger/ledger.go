// Package ledger is the core API for the blockchain node. It owns the chain
// and the mempool and implements the rules for changing them.
package ledger

import (
	"errors"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start
// the ledger.
type Config struct {
	NodeID    string
	POW       *pow.POW
	EvHandler EventHandler
}

// Ledger manages the chain and the transactions waiting to be mined. The
// chain is only changed by mining a block or by replacing it with a longer
// valid chain, and both take the write lock for the change.
type Ledger struct {
	nodeID    string
	pow       *pow.POW
	evHandler EventHandler

	mu    sync.RWMutex
	chain []database.Block

	mineMu  sync.Mutex
	mempool *mempool.Mempool
}

// New constructs a ledger holding only the genesis block.
func New(cfg Config) (*Ledger, error) {
	if cfg.NodeID == "" {
		return nil, errors.New("node id is required")
	}

	if cfg.POW == nil {
		return nil, errors.New("pow is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	ldg := Ledger{
		nodeID:    cfg.NodeID,
		pow:       cfg.POW,
		evHandler: ev,
		chain:     []database.Block{database.Genesis()},
		mempool:   mempool.New(),
	}

	return &ldg, nil
}
