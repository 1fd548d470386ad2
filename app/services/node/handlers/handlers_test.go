package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powchain/app/services/node/handlers"
	"github.com/ardanlabs/powchain/business/sys/metrics"
	"github.com/ardanlabs/powchain/business/web/errs"
	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/blockchain/pow"
	"github.com/ardanlabs/powchain/foundation/events"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fetcher serves canned chains by peer host.
type fetcher map[string][]database.Block

func (f fetcher) FetchChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	chain, exists := f[pr.Host]
	if !exists {
		return nil, context.DeadlineExceeded
	}
	return database.Copy(chain), nil
}

type node struct {
	t      *testing.T
	mux    http.Handler
	ledger *ledger.Ledger
	peers  *peer.PeerSet
}

func newNode(t *testing.T, f fetcher, rl handlers.RateLimit) *node {
	ldg, err := ledger.New(ledger.Config{
		NodeID: "node1",
		POW:    pow.New(pow.DefaultDifficulty, nil),
	})
	require.NoError(t, err)

	peers := peer.NewPeerSet()

	self, err := peer.Advertise("0.0.0.0:5000", "")
	require.NoError(t, err)

	resolver, err := consensus.NewResolver(consensus.Config{
		Host:     self.Host,
		Ledger:   ldg,
		Peers:    peers,
		Fetcher:  f,
		Verifier: ldg.POW(),
	})
	require.NoError(t, err)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        zap.NewNop().Sugar(),
		Metrics:    metrics.New(ldg.Length),
		Ledger:     ldg,
		Peers:      peers,
		Resolver:   resolver,
		Evts:       events.New(),
		CorsOrigin: "*",
		RateLimit:  rl,
	})

	return &node{
		t:      t,
		mux:    mux,
		ledger: ldg,
		peers:  peers,
	}
}

func (n *node) do(method string, path string, body string, out any) int {
	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, path, nil)
	default:
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()

	n.mux.ServeHTTP(w, r)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(n.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}

	return w.Code
}

// =============================================================================

func Test_TransactionAndMine(t *testing.T) {
	n := newNode(t, fetcher{}, handlers.RateLimit{})

	var added struct {
		Message string `json:"message"`
		Index   uint64 `json:"index"`
	}
	status := n.do(http.MethodPost, "/transactions/new", `{"sender":"a","recipient":"b","amount":5}`, &added)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, uint64(2), added.Index)
	require.Equal(t, "Transaction will be added to Block 2", added.Message)

	var pending []database.Tx
	status = n.do(http.MethodGet, "/transactions/pending", "", &pending)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []database.Tx{{Sender: "a", Recipient: "b", Amount: 5}}, pending)

	var mined struct {
		Message      string        `json:"message"`
		Index        uint64        `json:"index"`
		Transactions []database.Tx `json:"transactions"`
		Proof        uint64        `json:"proof"`
		PreviousHash string        `json:"previous_hash"`
	}
	status = n.do(http.MethodGet, "/mine", "", &mined)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "New Block Forged", mined.Message)
	require.Equal(t, uint64(2), mined.Index)
	require.Equal(t, uint64(35293), mined.Proof)
	require.Equal(t, database.Genesis().Hash(), mined.PreviousHash)
	require.Equal(t, []database.Tx{
		{Sender: "a", Recipient: "b", Amount: 5},
		{Sender: database.RewardSender, Recipient: "node1", Amount: database.RewardAmount},
	}, mined.Transactions)

	var chain peer.ChainResponse
	status = n.do(http.MethodGet, "/chain", "", &chain)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, chain.Length)
	require.Len(t, chain.Chain, 2)
	require.True(t, consensus.IsValidChain(chain.Chain, pow.New(pow.DefaultDifficulty, nil)))
}

func Test_TransactionInvalid(t *testing.T) {
	n := newNode(t, fetcher{}, handlers.RateLimit{})

	tt := []struct {
		name  string
		body  string
		field string
	}{
		{name: "noamount", body: `{"sender":"a","recipient":"b"}`, field: "amount"},
		{name: "nosender", body: `{"recipient":"b","amount":1}`, field: "sender"},
		{name: "emptyrecipient", body: `{"sender":"a","recipient":"","amount":1}`, field: "recipient"},
		{name: "notnumber", body: `{"sender":"a","recipient":"b","amount":"ten"}`},
		{name: "malformed", body: `{"sender":`},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			var resp errs.Response
			status := n.do(http.MethodPost, "/transactions/new", tst.body, &resp)

			require.Equal(t, http.StatusBadRequest, status)
			require.NotEmpty(t, resp.Error)
			if tst.field != "" {
				require.Contains(t, resp.Fields, tst.field)
			}
		})
	}

	require.Empty(t, n.ledger.Pending())
}

func Test_RegisterNodes(t *testing.T) {
	n := newNode(t, fetcher{}, handlers.RateLimit{})

	var added struct {
		Message    string   `json:"message"`
		TotalNodes []string `json:"total_nodes"`
	}
	status := n.do(http.MethodPost, "/nodes/register", `{"nodes":["http://10.0.0.2:5000","10.0.0.1:5000","http://10.0.0.2:5000/chain"]}`, &added)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, []string{"10.0.0.1:5000", "10.0.0.2:5000"}, added.TotalNodes)

	var list struct {
		Nodes []string `json:"nodes"`
	}
	status = n.do(http.MethodGet, "/nodes/list", "", &list)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, added.TotalNodes, list.Nodes)

	for _, body := range []string{`{"nodes":[]}`, `{}`, `{"nodes":["http://"]}`, `{"nodes":"10.0.0.3:5000"}`} {
		var resp errs.Response
		status := n.do(http.MethodPost, "/nodes/register", body, &resp)
		require.Equal(t, http.StatusBadRequest, status, body)
	}

	require.Equal(t, 2, n.peers.Len())
}

func Test_Resolve(t *testing.T) {
	remote, err := ledger.New(ledger.Config{
		NodeID: "remote",
		POW:    pow.New(pow.DefaultDifficulty, nil),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := remote.Mine(context.Background())
		require.NoError(t, err)
	}

	n := newNode(t, fetcher{"10.0.0.1:5000": remote.Chain()}, handlers.RateLimit{})

	status := n.do(http.MethodPost, "/nodes/register", `{"nodes":["10.0.0.1:5000","10.0.0.9:5000"]}`, nil)
	require.Equal(t, http.StatusCreated, status)

	var resolved struct {
		Message string           `json:"message"`
		Chain   []database.Block `json:"chain"`
	}
	status = n.do(http.MethodGet, "/nodes/resolve", "", &resolved)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "chain replaced", resolved.Message)
	require.Len(t, resolved.Chain, 3)
	require.Equal(t, remote.LatestBlock().Hash(), n.ledger.LatestBlock().Hash())

	status = n.do(http.MethodGet, "/nodes/resolve", "", &resolved)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "chain authoritative", resolved.Message)
	require.Len(t, resolved.Chain, 3)
}

func Test_ResolveSkipsSelf(t *testing.T) {
	other, err := ledger.New(ledger.Config{
		NodeID: "other",
		POW:    pow.New(pow.DefaultDifficulty, nil),
	})
	require.NoError(t, err)

	_, err = other.Mine(context.Background())
	require.NoError(t, err)

	// A longer chain served under this node's own address must never be
	// fetched.
	n := newNode(t, fetcher{"127.0.0.1:5000": other.Chain()}, handlers.RateLimit{})

	status := n.do(http.MethodPost, "/nodes/register", `{"nodes":["http://127.0.0.1:5000"]}`, nil)
	require.Equal(t, http.StatusCreated, status)

	var resolved struct {
		Message string           `json:"message"`
		Chain   []database.Block `json:"chain"`
	}
	status = n.do(http.MethodGet, "/nodes/resolve", "", &resolved)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "chain authoritative", resolved.Message)
	require.Len(t, resolved.Chain, 1)
	require.Equal(t, 1, n.ledger.Length())
}

func Test_CorsAndRateLimit(t *testing.T) {
	n := newNode(t, fetcher{}, handlers.RateLimit{PerSecond: 0.001, Burst: 1})

	r := httptest.NewRequest(http.MethodOptions, "/transactions/new", nil)
	w := httptest.NewRecorder()
	n.mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	body := `{"sender":"a","recipient":"b","amount":1}`
	require.Equal(t, http.StatusCreated, n.do(http.MethodPost, "/transactions/new", body, nil))

	var resp errs.Response
	require.Equal(t, http.StatusTooManyRequests, n.do(http.MethodPost, "/transactions/new", body, &resp))
	require.Equal(t, "too many requests", resp.Error)

	// Reads are not limited.
	require.Equal(t, http.StatusOK, n.do(http.MethodGet, "/chain", "", nil))
}
