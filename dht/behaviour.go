package dht

import (
	"context"
	"sync"
	"time"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/sc-network/ipfs-bitswap/blockprovider"
)

var logger = logging.Logger("ipfs/dht")

// BootstrapPeriod is the interval between routine DHT bootstraps, once
// entered. Regular bootstrapping is recommended upstream; see
// https://github.com/libp2p/rust-libp2p/issues/2122#issuecomment-875050447.
const BootstrapPeriod = 5 * time.Minute

// BootNode is a peer this node's routing table is seeded with at
// construction.
type BootNode struct {
	PeerID peer.ID
	Addr   ma.Multiaddr
}

// isGlobalAddr reports whether addr is (or resolves to) a publicly routable
// address. DNS-based addresses are assumed global, matching the original
// implementation's treatment of Dns/Dns4/Dns6 components.
func isGlobalAddr(addr ma.Multiaddr) bool {
	protocols := addr.Protocols()
	if len(protocols) == 0 {
		return false
	}
	switch protocols[0].Code {
	case ma.P_DNS, ma.P_DNS4, ma.P_DNS6:
		return true
	case ma.P_IP4, ma.P_IP6:
		return manet.IsPublicAddr(addr)
	default:
		return false
	}
}

type stateKind int

const (
	stateWaitingForAddr stateKind = iota
	stateReady
	stateDead
)

// Behaviour is the three-state DHT content-advertiser: it defers all DHT
// participation until a global external address is observed, then drives
// periodic bootstrap and mirrors a BlockProvider's inventory into the DHT
// as provider records.
type Behaviour struct {
	kad         kademlia
	records     *recordStore
	protocolIDs []protocol.ID

	mu    sync.Mutex
	state stateKind

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a Behaviour wrapping kad, seeding its routing table with
// bootNodes and subscribing to h's event bus to detect the node's first
// global address.
func New(h host.Host, kad kademlia, bootNodes []BootNode, provider blockprovider.BlockProvider, protocolIDs []protocol.ID) *Behaviour {
	for _, boot := range bootNodes {
		if !kad.AddAddress(boot.PeerID, boot.Addr) {
			logger.Warnf("failed to add boot node %s with address %s", boot.PeerID, boot.Addr)
		}
	}

	b := &Behaviour{
		kad:         kad,
		records:     newRecordStore(),
		protocolIDs: protocolIDs,
		state:       stateWaitingForAddr,
	}

	sub, err := h.EventBus().Subscribe(new(event.EvtLocalAddressesUpdated))
	if err != nil {
		logger.Warnf("failed to subscribe to local address updates, DHT will never activate: %s", err)
		return b
	}

	go b.watchAddresses(sub, provider)
	return b
}

func (b *Behaviour) watchAddresses(sub event.Subscription, provider blockprovider.BlockProvider) {
	defer sub.Close()

	for raw := range sub.Out() {
		evt, ok := raw.(event.EvtLocalAddressesUpdated)
		if !ok {
			continue
		}

		b.mu.Lock()
		waiting := b.state == stateWaitingForAddr
		b.mu.Unlock()
		if !waiting {
			return
		}

		for _, current := range evt.Current {
			if isGlobalAddr(current.Address) {
				b.enterReady(provider)
				return
			}
		}
	}
}

func (b *Behaviour) enterReady(provider blockprovider.BlockProvider) {
	b.mu.Lock()
	if b.state != stateWaitingForAddr {
		b.mu.Unlock()
		return
	}
	b.state = stateReady
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.run(ctx, provider.Changes())
}

// run is the Ready-state loop: one goroutine driving the bootstrap ticker
// and mirroring block provider changes into DHT provider records, until
// the change channel closes.
func (b *Behaviour) run(ctx context.Context, changes <-chan blockprovider.Change) {
	defer close(b.done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	next := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := b.kad.Bootstrap(ctx); err != nil {
				logger.Warnf("DHT bootstrap failed: %s", err)
			}
			// Step from the previous due time, skipping periods already
			// missed, so a late wake-up does not shift later bootstraps.
			now := time.Now()
			for !next.After(now) {
				next = next.Add(BootstrapPeriod)
			}
			timer.Reset(next.Sub(now))
		case change, ok := <-changes:
			if !ok {
				b.mu.Lock()
				b.state = stateDead
				b.mu.Unlock()
				return
			}
			b.applyChange(ctx, change)
		}
	}
}

func (b *Behaviour) applyChange(ctx context.Context, change blockprovider.Change) {
	switch change.Kind {
	case blockprovider.Added:
		if err := b.records.Put(ctx, change.Multihash); err != nil {
			logger.Debugf("failed to record %s as provided: %s", change.Multihash, err)
			return
		}
		key := cid.NewCidV1(cid.Raw, change.Multihash)
		if err := b.kad.Provide(ctx, key, true); err != nil {
			logger.Debugf("failed to advertise %s in the DHT: %s", change.Multihash, err)
		}
	case blockprovider.Removed:
		if err := b.records.Delete(ctx, change.Multihash); err != nil {
			logger.Debugf("failed to forget %s as provided: %s", change.Multihash, err)
		}
	}
}

// AddSelfReportedAddress adds a remote peer's self-reported address to the
// DHT routing table, iff the address is global and the peer's supported
// protocols intersect this advertiser's configured DHT protocol IDs.
func (b *Behaviour) AddSelfReportedAddress(peerID peer.ID, supportedProtocols []protocol.ID, addr ma.Multiaddr) {
	if !isGlobalAddr(addr) {
		return
	}
	if !protocolsIntersect(supportedProtocols, b.protocolIDs) {
		return
	}
	b.kad.AddAddress(peerID, addr)
}

func protocolsIntersect(a, b []protocol.ID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Close stops the Ready-state loop, if running, and waits for it to exit.
func (b *Behaviour) Close() {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
