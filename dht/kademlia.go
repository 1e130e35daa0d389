package dht

import (
	"context"

	"github.com/ipfs/go-cid"
	kaddht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	ma "github.com/multiformats/go-multiaddr"
)

// peerAddrTTL is used for every address added through AddAddress: both boot
// nodes and self-reported peer addresses are treated as durable until the
// routing table evicts them on its own.
const peerAddrTTL = peerstore.PermanentAddrTTL

// kademlia is the slice of *dht.IpfsDHT this module depends on. Keeping it
// narrow lets tests substitute a fake instead of standing up a real DHT.
type kademlia interface {
	Bootstrap(ctx context.Context) error
	Provide(ctx context.Context, key cid.Cid, announce bool) error
	AddAddress(p peer.ID, addr ma.Multiaddr) bool
}

// ipfsDHT adapts a real *kaddht.IpfsDHT to the kademlia interface.
type ipfsDHT struct {
	inner *kaddht.IpfsDHT
}

// WrapIpfsDHT exposes d through the narrow kademlia capability this
// package's Behaviour depends on.
func WrapIpfsDHT(d *kaddht.IpfsDHT) kademlia {
	return &ipfsDHT{inner: d}
}

func (a *ipfsDHT) Bootstrap(ctx context.Context) error {
	return a.inner.Bootstrap(ctx)
}

func (a *ipfsDHT) Provide(ctx context.Context, key cid.Cid, announce bool) error {
	return a.inner.Provide(ctx, key, announce)
}

func (a *ipfsDHT) AddAddress(p peer.ID, addr ma.Multiaddr) bool {
	a.inner.Host().Peerstore().AddAddr(p, addr, peerAddrTTL)
	if _, err := a.inner.RoutingTable().TryAddPeer(p, true, false); err != nil {
		return false
	}
	return true
}
