// Package consensus implements the longest valid chain rule: validating
// chains received from peers and replacing the local chain with the longest
// one found.
package consensus

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ErrInvalidChain is returned when a chain fails structural validation.
var ErrInvalidChain = errors.New("invalid chain")

// Verifier represents the behavior required to check a proof of work.
type Verifier interface {
	Verify(lastProof uint64, proof uint64) bool
}

// =============================================================================

// Validate walks the chain from the genesis block and checks every block
// links to the one before it. The chain must start with the genesis block,
// every block must carry its position as the index, point at the hash of
// the previous block, and carry a proof that solves the puzzle against the
// previous proof.
func Validate(chain []database.Block, v Verifier) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidChain)
	}

	if chain[0].Hash() != database.Genesis().Hash() {
		return fmt.Errorf("%w: block[1]: not the genesis block", ErrInvalidChain)
	}

	for i := 1; i < len(chain); i++ {
		prev := chain[i-1]
		block := chain[i]

		if exp := uint64(i + 1); block.Index != exp {
			return fmt.Errorf("%w: block[%d]: wrong index, got %d", ErrInvalidChain, exp, block.Index)
		}

		if hash := prev.Hash(); block.PreviousHash != hash {
			return fmt.Errorf("%w: block[%d]: previous hash doesn't match, got %s, exp %s", ErrInvalidChain, block.Index, block.PreviousHash, hash)
		}

		if !v.Verify(prev.Proof, block.Proof) {
			return fmt.Errorf("%w: block[%d]: proof %d doesn't solve %d", ErrInvalidChain, block.Index, block.Proof, prev.Proof)
		}
	}

	return nil
}

// IsValidChain reports whether the chain passes validation.
func IsValidChain(chain []database.Block, v Verifier) bool {
	return Validate(chain, v) == nil
}
