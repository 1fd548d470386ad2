// Package peer maintains the peer related information such as the set
// of known peers and the client used to talk to them.
package peer

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidAddress is returned when a peer address can't be parsed into
// a network location.
var ErrInvalidAddress = errors.New("invalid peer address")

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New contructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// ParseAddress extracts the network location from an address. Both a full
// url like http://192.168.0.5:5000/path and a bare 192.168.0.5:5000 are
// accepted, and both produce the peer 192.168.0.5:5000.
func ParseAddress(address string) (Peer, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Peer{}, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	raw := address
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: %q: %s", ErrInvalidAddress, address, err)
	}

	if u.Hostname() == "" {
		return Peer{}, fmt.Errorf("%w: %q: missing host", ErrInvalidAddress, address)
	}

	return New(u.Host), nil
}

// Advertise returns the peer other nodes register to reach this node. An
// explicit advertised address wins. Otherwise the listen address is used
// with an unspecified or empty host replaced by the loopback address.
func Advertise(listen string, advertised string) (Peer, error) {
	if strings.TrimSpace(advertised) != "" {
		return ParseAddress(advertised)
	}

	host, port, err := net.SplitHostPort(strings.TrimSpace(listen))
	if err != nil {
		return Peer{}, fmt.Errorf("%w: %q: %s", ErrInvalidAddress, listen, err)
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}

	return ParseAddress(net.JoinHostPort(host, port))
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// String implements the fmt.Stringer interface for logging.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Register parses the address and adds the peer to the set. Registering
// the same network location twice has no effect and reports false.
func (ps *PeerSet) Register(address string) (Peer, bool, error) {
	peer, err := ParseAddress(address)
	if err != nil {
		return Peer{}, false, err
	}

	return peer, ps.Add(peer), nil
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers sorted by host, leaving out the
// specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Host < peers[j].Host
	})

	return peers
}
