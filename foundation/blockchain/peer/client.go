package peer

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/go-resty/resty/v2"
)

const chainURL = "http://%s/chain"

// ChainResponse is the document a node returns when asked for its chain.
type ChainResponse struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// =============================================================================

// Client retrieves information from peers over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient constructs a client. The timeout bounds every request on top
// of any deadline set on the context. Responses are decoded as JSON
// whatever content type the peer sets.
func NewClient(timeout time.Duration) *Client {
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http: http,
	}
}

// FetchChain asks the peer for its full chain.
func (c *Client) FetchChain(ctx context.Context, pr Peer) ([]database.Block, error) {
	var chain ChainResponse

	resp, err := c.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&chain).
		Get(fmt.Sprintf(chainURL, pr.Host))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pr.Host, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%s: status %d: %s", pr.Host, resp.StatusCode(), resp.String())
	}

	if len(chain.Chain) == 0 {
		return nil, fmt.Errorf("%s: empty chain", pr.Host)
	}

	if chain.Length != len(chain.Chain) {
		return nil, fmt.Errorf("%s: length mismatch, reported %d, received %d", pr.Host, chain.Length, len(chain.Chain))
	}

	return chain.Chain, nil
}
