package database

import (
	"fmt"
	"time"
)

// Block represents a group of transactions batched together and linked to
// the block before it.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain, starting at 1.
	Timestamp    float64 `json:"timestamp"`     // Seconds since the epoch when the block was created.
	Transactions []Tx    `json:"transactions"`  // Transactions in the order they were submitted.
	Proof        uint64  `json:"proof"`         // Value that solves the POW puzzle against the previous proof.
	PreviousHash string  `json:"previous_hash"` // Canonical hash of the previous block.
}

// NewBlock constructs the block that follows the last block in the chain.
// The transactions must already be removed from the mempool. When the
// previous hash is empty, it's computed from the last block in the chain.
func NewBlock(chain []Block, trans []Tx, proof uint64, previousHash string) Block {
	if previousHash == "" && len(chain) > 0 {
		previousHash = chain[len(chain)-1].Hash()
	}

	if trans == nil {
		trans = []Tx{}
	}

	return Block{
		Index:        uint64(len(chain)) + 1,
		Timestamp:    now(),
		Transactions: trans,
		Proof:        proof,
		PreviousHash: previousHash,
	}
}

// Hash returns the canonical hash for the block.
func (b Block) Hash() string {
	return Hash(b)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%d", b.Index, b.Proof)
}

// clone makes a copy of the block with its own transaction slice.
func (b Block) clone() Block {
	trans := make([]Tx, len(b.Transactions))
	copy(trans, b.Transactions)
	b.Transactions = trans

	return b
}

// now returns the current time as seconds since the epoch.
func now() float64 {
	return float64(time.Now().UTC().UnixNano()) / float64(time.Second)
}
