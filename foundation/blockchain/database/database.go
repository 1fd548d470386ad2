// Package database handles the data model for the blockchain: transactions,
// blocks and the canonical hashing used to link blocks into a chain.
package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// GenesisHash is the previous hash recorded in the genesis block. It can
// never collide with a real hash since those are always 64 hex characters.
const GenesisHash = "1"

// GenesisProof is the proof recorded in the genesis block.
const GenesisProof = 100

// ErrValidation is returned when a transaction is missing required
// information or carries a value that can't be used.
var ErrValidation = errors.New("validation failed")

// =============================================================================

// Genesis returns the first block of every chain. The timestamp is fixed so
// every node, started at any time, agrees on the same genesis hash.
func Genesis() Block {
	return Block{
		Index:        1,
		Timestamp:    0,
		Transactions: []Tx{},
		Proof:        GenesisProof,
		PreviousHash: GenesisHash,
	}
}

// Hash returns the canonical hash of the block. The block is encoded as a
// JSON object with its keys in lexicographic order at every level, which is
// what encoding/json does for maps. The order of the transactions is kept
// as recorded. The encoding is compact with no trailing newline and leaves
// <, > and & unescaped.
func Hash(block Block) string {
	trans := make([]map[string]any, len(block.Transactions))
	for i, tx := range block.Transactions {
		trans[i] = map[string]any{
			"amount":    tx.Amount,
			"recipient": tx.Recipient,
			"sender":    tx.Sender,
		}
	}

	doc := map[string]any{
		"index":         block.Index,
		"previous_hash": block.PreviousHash,
		"proof":         block.Proof,
		"timestamp":     block.Timestamp,
		"transactions":  trans,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(doc); err != nil {
		return ""
	}

	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:])
}

// Copy returns a deep copy of the chain so callers can't mutate blocks
// owned by someone else.
func Copy(chain []Block) []Block {
	out := make([]Block, len(chain))
	for i, block := range chain {
		out[i] = block.clone()
	}

	return out
}
