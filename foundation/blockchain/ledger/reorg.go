package ledger

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ReplaceChain swaps the local chain for the candidate when the candidate is
// valid and strictly longer. It reports whether the swap happened. An
// invalid candidate returns an error wrapping consensus.ErrInvalidChain and
// the local chain is left as is.
func (l *Ledger) ReplaceChain(candidate []database.Block) (bool, error) {
	l.evHandler("ledger: ReplaceChain: started: length[%d]", len(candidate))
	defer l.evHandler("ledger: ReplaceChain: completed")

	// Validation is done before taking the lock since it's a pure function
	// of the candidate.
	if err := consensus.Validate(candidate, l.pow); err != nil {
		l.evHandler("ledger: ReplaceChain: WARNING: %s", err)
		return false, err
	}

	chain := database.Copy(candidate)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(chain) <= len(l.chain) {
		l.evHandler("ledger: ReplaceChain: candidate not longer: local[%d]: candidate[%d]", len(l.chain), len(chain))
		return false, nil
	}

	l.evHandler("viewer: chain: replaced: local[%d]: new[%d]", len(l.chain), len(chain))
	l.chain = chain

	return true, nil
}
