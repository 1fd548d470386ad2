// Package pow implements the proof of work puzzle used to mine blocks and
// the predicate used to verify a solution.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// DefaultDifficulty is the number of leading zeros required when no
// difficulty is configured.
const DefaultDifficulty = 4

// maxDifficulty is the length of a hex encoded sha256 hash.
const maxDifficulty = 64

// cancelCheck is how many attempts are made between checks of the context.
const cancelCheck = 4096

// EventHandler defines a function that is called when events
// occur while solving the puzzle.
type EventHandler func(v string, args ...any)

// =============================================================================

// POW solves and verifies the puzzle: find a proof such that the sha256 hash
// of the previous proof followed by the proof starts with a number of zeros.
type POW struct {
	difficulty uint
	prefix     string
	evHandler  EventHandler
}

// New constructs a POW for the specified difficulty. A difficulty of zero
// uses the default.
func New(difficulty uint, evHandler EventHandler) *POW {
	switch {
	case difficulty == 0:
		difficulty = DefaultDifficulty
	case difficulty > maxDifficulty:
		difficulty = maxDifficulty
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &POW{
		difficulty: difficulty,
		prefix:     strings.Repeat("0", int(difficulty)),
		evHandler:  ev,
	}
}

// Difficulty returns the number of leading zeros required.
func (p *POW) Difficulty() uint {
	return p.difficulty
}

// Solve finds the smallest proof that verifies against the last proof. The
// search starts at zero and moves up by one, so the same last proof always
// produces the same answer. The search can be cancelled with the context.
func (p *POW) Solve(ctx context.Context, lastProof uint64) (uint64, error) {
	p.evHandler("pow: Solve: MINING: started: lastProof[%d]: difficulty[%d]", lastProof, p.difficulty)

	var proof uint64
	for {
		if proof%cancelCheck == 0 && ctx.Err() != nil {
			p.evHandler("pow: Solve: MINING: CANCELLED: attempts[%d]", proof)
			return 0, ctx.Err()
		}

		if proof > 0 && proof%1_000_000 == 0 {
			p.evHandler("pow: Solve: MINING: attempts[%d]", proof)
		}

		if p.Verify(lastProof, proof) {
			p.evHandler("pow: Solve: MINING: SOLVED: lastProof[%d]: proof[%d]", lastProof, proof)
			return proof, nil
		}

		proof++
	}
}

// Verify reports whether the proof solves the puzzle for the last proof.
func (p *POW) Verify(lastProof uint64, proof uint64) bool {
	return strings.HasPrefix(Guess(lastProof, proof), p.prefix)
}

// =============================================================================

// Guess returns the hex encoded hash of the last proof followed by the proof
// written as decimal numbers.
func Guess(lastProof uint64, proof uint64) string {
	guess := strconv.FormatUint(lastProof, 10) + strconv.FormatUint(proof, 10)

	sum := sha256.Sum256([]byte(guess))
	return hex.EncodeToString(sum[:])
}
