// Package ipfscore combines the Bitswap responder and the DHT advertiser
// behind the shape the enclosing node binary attaches to its libp2p host.
package ipfscore

import (
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	kaddht "github.com/libp2p/go-libp2p-kad-dht"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/sc-network/ipfs-bitswap/bitswap"
	"github.com/sc-network/ipfs-bitswap/blockprovider"
	"github.com/sc-network/ipfs-bitswap/dht"
)

// Core wires a Bitswap responder and a DHT advertiser to one host and one
// BlockProvider.
type Core struct {
	bitswap *bitswap.Behaviour
	dht     *dht.Behaviour
}

// New constructs a Core. kad is the caller-supplied *dht.IpfsDHT backing
// this node's Kademlia participation; this package only ever drives it
// through the narrow capability the dht package depends on.
func New(h host.Host, kad *kaddht.IpfsDHT, provider blockprovider.BlockProvider, config Config) *Core {
	bootNodes := make([]dht.BootNode, len(config.BootNodes))
	for i, boot := range config.BootNodes {
		bootNodes[i] = dht.BootNode{PeerID: boot.PeerID, Addr: boot.Addr}
	}

	protocolIDs := config.DHTProtocolIDs
	if len(protocolIDs) == 0 {
		protocolIDs = []protocol.ID{"/ipfs/kad/1.0.0"}
	}

	return &Core{
		bitswap: bitswap.Attach(h, provider),
		dht:     dht.New(h, dht.WrapIpfsDHT(kad), bootNodes, provider, protocolIDs),
	}
}

// AddSelfReportedAddress adds a remote peer's self-reported address to the
// DHT routing table, iff the address is global and the peer's supported
// protocols are compatible with this node's DHT.
func (c *Core) AddSelfReportedAddress(peerID peer.ID, supportedProtocols []protocol.ID, addr ma.Multiaddr) {
	c.dht.AddSelfReportedAddress(peerID, supportedProtocols, addr)
}

// Close tears down both the Bitswap and DHT components.
func (c *Core) Close() {
	c.bitswap.Close()
	c.dht.Close()
}
