package ledger

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// NewTransaction validates and adds a transaction to the mempool. It returns
// the index of the block the transaction is expected to be mined into.
func (l *Ledger) NewTransaction(sender string, recipient string, amount float64) (uint64, error) {
	tx, err := database.NewTx(sender, recipient, amount)
	if err != nil {
		return 0, err
	}

	// Blocks drain the mempool under the write lock, so holding the read
	// lock keeps the submit and the index on the same tip.
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.mempool.Submit(tx); err != nil {
		return 0, err
	}

	l.evHandler("ledger: NewTransaction: tx[%s]", tx)

	return uint64(len(l.chain)) + 1, nil
}
