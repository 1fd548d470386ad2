// Package mempool maintains the transactions waiting to be mined into the
// next block.
package mempool

import (
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Mempool represents the ordered set of pending transactions. Transactions
// are kept in the order they were submitted and are not deduplicated.
type Mempool struct {
	mu   sync.Mutex
	pool []database.Tx
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool)
}

// Submit validates and appends a transaction to the pool. It returns the
// number of pending transactions.
func (mp *Mempool) Submit(tx database.Tx) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool), nil
}

// Drain returns the pending transactions and empties the pool.
func (mp *Mempool) Drain() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.drain()
}

// DrainWith appends the transaction to the end of the pool and then drains
// it, so nothing submitted concurrently can land after it.
func (mp *Mempool) DrainWith(tx database.Tx) []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return mp.drain()
}

// Copy returns a copy of the pending transactions in submission order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// =============================================================================

// drain hands the current slice to the caller and starts a new one. The
// caller must hold the lock.
func (mp *Mempool) drain() []database.Tx {
	trans := mp.pool
	if trans == nil {
		trans = []database.Tx{}
	}
	mp.pool = nil

	return trans
}
