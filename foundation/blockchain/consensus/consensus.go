package consensus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"golang.org/x/sync/errgroup"
)

// Default settings for a resolution round.
const (
	DefaultFetchTimeout   = 5 * time.Second
	DefaultMaxConcurrency = 8
)

// EventHandler defines a function that is called when events
// occur while resolving the chain.
type EventHandler func(v string, args ...any)

// Ledger represents the behavior required from the owner of the local chain.
type Ledger interface {
	Length() int
	ReplaceChain(chain []database.Block) (bool, error)
}

// Peers represents the behavior required to know who to ask.
type Peers interface {
	Copy(host string) []peer.Peer
}

// Fetcher represents the behavior required to retrieve a peer's chain.
type Fetcher interface {
	FetchChain(ctx context.Context, pr peer.Peer) ([]database.Block, error)
}

// =============================================================================

// Config represents the systems and settings a Resolver needs.
type Config struct {
	Host           string
	Ledger         Ledger
	Peers          Peers
	Fetcher        Fetcher
	Verifier       Verifier
	FetchTimeout   time.Duration
	MaxConcurrency int
	EvHandler      EventHandler
}

// Resolver asks the known peers for their chains and adopts the longest
// valid one when it's longer than the local chain.
type Resolver struct {
	host           string
	ledger         Ledger
	peers          Peers
	fetcher        Fetcher
	verifier       Verifier
	fetchTimeout   time.Duration
	maxConcurrency int
	evHandler      EventHandler
}

// NewResolver constructs a resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	switch {
	case cfg.Ledger == nil:
		return nil, errors.New("ledger is required")
	case cfg.Peers == nil:
		return nil, errors.New("peers are required")
	case cfg.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case cfg.Verifier == nil:
		return nil, errors.New("verifier is required")
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	r := Resolver{
		host:           cfg.Host,
		ledger:         cfg.Ledger,
		peers:          cfg.Peers,
		fetcher:        cfg.Fetcher,
		verifier:       cfg.Verifier,
		fetchTimeout:   cfg.FetchTimeout,
		maxConcurrency: cfg.MaxConcurrency,
		evHandler:      ev,
	}

	return &r, nil
}

// IsValidChain reports whether the chain passes validation with the
// resolver's proof of work settings.
func (r *Resolver) IsValidChain(chain []database.Block) bool {
	return IsValidChain(chain, r.verifier)
}

// Resolve fetches the chain of every known peer and replaces the local chain
// with the longest valid chain that is strictly longer. Peers that fail to
// answer in time or return an invalid chain are skipped. The only error
// returned is the cancellation of the context.
func (r *Resolver) Resolve(ctx context.Context) (bool, error) {
	r.evHandler("consensus: Resolve: started")
	defer r.evHandler("consensus: Resolve: completed")

	peers := r.peers.Copy(r.host)
	if len(peers) == 0 {
		r.evHandler("consensus: Resolve: no known peers")
		return false, nil
	}

	chains := r.fetchChains(ctx, peers)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	best := r.selectLongest(peers, chains)
	if best == nil {
		r.evHandler("consensus: Resolve: local chain is authoritative: length[%d]", r.ledger.Length())
		return false, nil
	}

	replaced, err := r.ledger.ReplaceChain(best)
	if err != nil {
		r.evHandler("consensus: Resolve: WARNING: replace chain: %s", err)
		return false, nil
	}

	return replaced, nil
}

// =============================================================================

// fetchChains asks every peer for its chain with bounded parallelism. Each
// fetch runs under its own timeout. The returned slice lines up with the
// peers; a failed fetch leaves a nil chain.
func (r *Resolver) fetchChains(ctx context.Context, peers []peer.Peer) [][]database.Block {
	chains := make([][]database.Block, len(peers))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.maxConcurrency)

	for i, pr := range peers {
		i, pr := i, pr
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
			defer cancel()

			chain, err := r.fetcher.FetchChain(ctx, pr)
			if err != nil {
				r.evHandler("consensus: fetchChains: peer[%s]: WARNING: skipped: %s", pr, err)
				return nil
			}

			r.evHandler("consensus: fetchChains: peer[%s]: length[%d]", pr, len(chain))

			mu.Lock()
			chains[i] = chain
			mu.Unlock()

			return nil
		})
	}

	g.Wait()

	return chains
}

// selectLongest returns the longest valid chain that is strictly longer
// than the local chain. On a tie between peers the first peer wins.
func (r *Resolver) selectLongest(peers []peer.Peer, chains [][]database.Block) []database.Block {
	var best []database.Block
	maxLength := r.ledger.Length()

	for i, chain := range chains {
		if chain == nil || len(chain) <= maxLength {
			continue
		}

		if err := Validate(chain, r.verifier); err != nil {
			r.evHandler("consensus: selectLongest: peer[%s]: WARNING: skipped: %s", peers[i], err)
			continue
		}

		best = chain
		maxLength = len(chain)
	}

	return best
}
