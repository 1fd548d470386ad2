package ledger

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
)

// NodeID returns the identifier this node is paid the mining reward under.
func (l *Ledger) NodeID() string {
	return l.nodeID
}

// POW returns the proof of work settings for the ledger.
func (l *Ledger) POW() *pow.POW {
	return l.pow
}

// Chain returns a copy of the chain.
func (l *Ledger) Chain() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return database.Copy(l.chain)
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// LatestBlock returns a copy the current latest block.
func (l *Ledger) LatestBlock() database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return database.Copy(l.chain[len(l.chain)-1:])[0]
}

// Pending returns a copy of the transactions waiting to be mined.
func (l *Ledger) Pending() []database.Tx {
	return l.mempool.Copy()
}
