package consensus_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// newLedger constructs a ledger with the specified number of blocks.
func newLedger(t *testing.T, nodeID string, length int) *ledger.Ledger {
	ldg, err := ledger.New(ledger.Config{
		NodeID: nodeID,
		POW:    pow.New(pow.DefaultDifficulty, nil),
	})
	ifErrFailNow(t, err)

	for ldg.Length() < length {
		_, err := ldg.NewTransaction(nodeID, "someone", float64(ldg.Length()))
		ifErrFailNow(t, err)

		_, err = ldg.Mine(context.Background())
		ifErrFailNow(t, err)
	}

	return ldg
}

// fetcher returns canned chains or errors by peer host.
type fetcher struct {
	chains map[string][]database.Block
	errs   map[string]error
	hang   map[string]bool
	calls  atomic.Int32
}

func (f *fetcher) FetchChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	f.calls.Add(1)

	if f.hang[pr.Host] {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if err, exists := f.errs[pr.Host]; exists {
		return nil, err
	}

	return database.Copy(f.chains[pr.Host]), nil
}

func newResolver(t *testing.T, ldg *ledger.Ledger, f *fetcher, hosts ...string) *consensus.Resolver {
	ps := peer.NewPeerSet()
	for _, host := range hosts {
		ps.Add(peer.New(host))
	}

	r, err := consensus.NewResolver(consensus.Config{
		Host:         "local:5000",
		Ledger:       ldg,
		Peers:        ps,
		Fetcher:      f,
		Verifier:     ldg.POW(),
		FetchTimeout: 100 * time.Millisecond,
	})
	ifErrFailNow(t, err)

	return r
}

// =============================================================================

func Test_Validate(t *testing.T) {
	chain := newLedger(t, "node", 5).Chain()
	verifier := pow.New(pow.DefaultDifficulty, nil)

	type table struct {
		name  string
		chain func() []database.Block
		valid bool
	}

	tt := []table{
		{
			name:  "valid",
			chain: func() []database.Block { return database.Copy(chain) },
			valid: true,
		},
		{
			name:  "genesis",
			chain: func() []database.Block { return []database.Block{database.Genesis()} },
			valid: true,
		},
		{
			name:  "empty",
			chain: func() []database.Block { return nil },
		},
		{
			name: "prevhash",
			chain: func() []database.Block {
				c := database.Copy(chain)
				b := []byte(c[2].PreviousHash)
				b[10] ^= 1
				c[2].PreviousHash = string(b)
				return c
			},
		},
		{
			name: "proof",
			chain: func() []database.Block {
				c := database.Copy(chain)
				c[2].Proof++
				return c
			},
		},
		{
			name: "transaction",
			chain: func() []database.Block {
				c := database.Copy(chain)
				c[2].Transactions[0].Amount = 1_000_000
				return c
			},
		},
		{
			name: "truncated",
			chain: func() []database.Block {
				return database.Copy(chain)[1:]
			},
		},
		{
			name: "reordered",
			chain: func() []database.Block {
				c := database.Copy(chain)
				c[2], c[3] = c[3], c[2]
				return c
			},
		},
		{
			name: "index",
			chain: func() []database.Block {
				c := database.Copy(chain)
				c[4].Index = 9
				return c
			},
		},
		{
			name: "genesisaltered",
			chain: func() []database.Block {
				c := database.Copy(chain)
				c[0].Proof = 101
				return c
			},
		},
	}

	t.Log("Given the need to validate chains received from peers.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling the %s chain.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := consensus.Validate(tst.chain(), verifier)

					switch tst.valid {
					case true:
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould accept the chain: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould accept the chain.", success, testID)

					default:
						if !errors.Is(err, consensus.ErrInvalidChain) {
							t.Fatalf("\t%s\tTest %d:\tShould reject the chain: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the chain: %s", success, testID, err)
					}

					if consensus.IsValidChain(tst.chain(), verifier) != tst.valid {
						t.Fatalf("\t%s\tTest %d:\tShould agree with Validate.", failed, testID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ResolveLongest(t *testing.T) {
	t.Log("Given the need to adopt the longest valid chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the local chain is 3 and peers have 4 and 5.", testID)
		{
			local := newLedger(t, "local", 3)
			four := newLedger(t, "four", 4).Chain()
			five := newLedger(t, "five", 5).Chain()

			f := fetcher{
				chains: map[string][]database.Block{
					"a:5000": four,
					"b:5000": five,
				},
			}

			r := newResolver(t, local, &f, "a:5000", "b:5000")

			replaced, err := r.Resolve(context.Background())
			if err != nil || !replaced {
				t.Fatalf("\t%s\tTest %d:\tShould replace the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the chain.", success, testID)

			if local.Length() != 5 || local.LatestBlock().Hash() != five[4].Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould adopt the chain of length 5: got %d", failed, testID, local.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould adopt the chain of length 5.", success, testID)

			replaced, err = r.Resolve(context.Background())
			if err != nil || replaced {
				t.Fatalf("\t%s\tTest %d:\tShould not replace on the second call: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not replace on the second call.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the local and peer chains are both 5.", testID)
		{
			local := newLedger(t, "local", 5)
			before := local.LatestBlock().Hash()

			f := fetcher{
				chains: map[string][]database.Block{
					"a:5000": newLedger(t, "peer", 5).Chain(),
				},
			}

			r := newResolver(t, local, &f, "a:5000")

			replaced, err := r.Resolve(context.Background())
			if err != nil || replaced {
				t.Fatalf("\t%s\tTest %d:\tShould keep the local chain on a tie: %v", failed, testID, err)
			}
			if local.LatestBlock().Hash() != before {
				t.Fatalf("\t%s\tTest %d:\tShould not change the local chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the local chain on a tie.", success, testID)
		}
	}
}

func Test_ResolveSkipsBadPeers(t *testing.T) {
	t.Log("Given the need to ignore peers that fail or lie.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen peers error, hang or return a tampered chain.", testID)
		{
			local := newLedger(t, "local", 1)
			good := newLedger(t, "good", 3).Chain()

			tampered := newLedger(t, "bad", 5).Chain()
			tampered[3].Proof++

			f := fetcher{
				chains: map[string][]database.Block{
					"good:5000":     good,
					"tampered:5000": tampered,
				},
				errs: map[string]error{
					"down:5000": errors.New("connection refused"),
				},
				hang: map[string]bool{
					"slow:5000": true,
				},
			}

			r := newResolver(t, local, &f, "down:5000", "good:5000", "slow:5000", "tampered:5000")

			start := time.Now()
			replaced, err := r.Resolve(context.Background())
			if err != nil || !replaced {
				t.Fatalf("\t%s\tTest %d:\tShould replace with the good chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace with the good chain.", success, testID)

			if local.Length() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould adopt the valid chain of length 3: got %d", failed, testID, local.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould adopt the valid chain of length 3.", success, testID)

			if d := time.Since(start); d > 5*time.Second {
				t.Fatalf("\t%s\tTest %d:\tShould not wait on the slow peer: %v", failed, testID, d)
			}
			t.Logf("\t%s\tTest %d:\tShould not wait on the slow peer.", success, testID)

			if f.calls.Load() != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould ask every peer once: got %d", failed, testID, f.calls.Load())
			}
			t.Logf("\t%s\tTest %d:\tShould ask every peer once.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen every peer is unreachable.", testID)
		{
			local := newLedger(t, "local", 2)

			f := fetcher{
				errs: map[string]error{
					"a:5000": errors.New("timeout"),
					"b:5000": errors.New("timeout"),
				},
			}

			r := newResolver(t, local, &f, "a:5000", "b:5000")

			replaced, err := r.Resolve(context.Background())
			if err != nil || replaced {
				t.Fatalf("\t%s\tTest %d:\tShould keep the local chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the local chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen there are no peers.", testID)
		{
			local := newLedger(t, "local", 1)
			f := fetcher{}

			r := newResolver(t, local, &f)

			replaced, err := r.Resolve(context.Background())
			if err != nil || replaced || f.calls.Load() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould do nothing: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould do nothing.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the only peer is this node.", testID)
		{
			local := newLedger(t, "local", 1)
			f := fetcher{}

			r := newResolver(t, local, &f, "local:5000")

			if _, err := r.Resolve(context.Background()); err != nil || f.calls.Load() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not ask itself: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not ask itself.", success, testID)
		}
	}
}

func Test_ResolveCancelled(t *testing.T) {
	t.Log("Given the need to stop resolving when the caller goes away.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the context is cancelled.", testID)
		{
			local := newLedger(t, "local", 1)
			f := fetcher{hang: map[string]bool{"a:5000": true}}

			r := newResolver(t, local, &f, "a:5000")

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := r.Resolve(ctx); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould get a cancelled error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a cancelled error.", success, testID)
		}
	}
}
