package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Mine solves the puzzle for the next block, pays this node the mining
// reward and appends the block with every pending transaction. The search
// runs without holding the chain lock; only the append does.
func (l *Ledger) Mine(ctx context.Context) (database.Block, error) {
	l.mineMu.Lock()
	defer l.mineMu.Unlock()

	l.evHandler("ledger: Mine: MINING: started")
	defer l.evHandler("ledger: Mine: MINING: completed")

	for {
		latest := l.LatestBlock()

		l.evHandler("ledger: Mine: MINING: perform POW: lastBlock[%s]", latest)

		proof, err := l.pow.Solve(ctx, latest.Proof)
		if err != nil {
			return database.Block{}, err
		}

		// Just check one more time we were not cancelled.
		if ctx.Err() != nil {
			return database.Block{}, ctx.Err()
		}

		block, ok := l.appendBlock(latest, proof)
		if !ok {
			l.evHandler("ledger: Mine: MINING: chain replaced while solving, starting over")
			continue
		}

		return block, nil
	}
}

// =============================================================================

// appendBlock writes the next block if the chain still ends with the block
// the proof was solved against.
func (l *Ledger) appendBlock(latest database.Block, proof uint64) (database.Block, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.chain[len(l.chain)-1]
	previousHash := tip.Hash()
	if previousHash != latest.Hash() {
		return database.Block{}, false
	}

	l.evHandler("ledger: appendBlock: apply mining reward: node[%s]", l.nodeID)

	trans := l.mempool.DrainWith(database.NewRewardTx(l.nodeID))
	block := database.NewBlock(l.chain, trans, proof, previousHash)

	l.chain = append(l.chain, block)

	l.blockEvent(block)

	return block, true
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (l *Ledger) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	l.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash(), string(blockJSON))
}
