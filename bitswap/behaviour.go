package bitswap

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/sc-network/ipfs-bitswap/blockprovider"
)

// Behaviour owns one Handler per connected peer and is the single point
// where this module plugs into a libp2p host. It mirrors server.go's
// AttachBitswapServer entry point, generalized from a single stateless
// stream callback into a stateful per-peer Handler whose lifetime follows
// the peer's connection rather than any one substream.
type Behaviour struct {
	host     host.Host
	provider blockprovider.BlockProvider

	mu       sync.Mutex
	handlers map[peer.ID]*Handler
}

// Attach registers the Bitswap stream handler and a network notifiee on h,
// and returns a Behaviour that owns the lifecycle of every per-peer Handler
// it creates: one Handler is created on a peer's first connection and torn
// down once its last connection closes.
func Attach(h host.Host, provider blockprovider.BlockProvider) *Behaviour {
	b := &Behaviour{
		host:     h,
		provider: provider,
		handlers: make(map[peer.ID]*Handler),
	}
	h.SetStreamHandler(ProtocolID, b.onStream)
	h.Network().Notify(&notifiee{b: b})
	return b
}

func (b *Behaviour) onStream(s network.Stream) {
	handler := b.handlerFor(s.Conn().RemotePeer())
	handler.PushInbound(s)
}

// handlerFor returns the existing Handler for p, creating one if none
// exists yet. Normally the notifiee creates it on connection first, but a
// substream racing ahead of the notification is handled the same way.
func (b *Behaviour) handlerFor(p peer.ID) *Handler {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handler, ok := b.handlers[p]; ok {
		return handler
	}
	handler := NewHandler(b.host, p, b.provider, b.onHandlerDead)
	b.handlers[p] = handler
	return handler
}

// onHandlerDead is passed to every Handler as its onDead callback. A
// Handler can die on its own — idle timeout, an outbound open or write
// error — while the libp2p connection it was serving stays up, since
// nothing here configures a connection manager to trim idle connections.
// Without this, handlers is left pointing at a dead Handler and every
// later onStream/handlerFor call for that peer reuses it instead of
// starting fresh, breaking the peer's responder for the life of the
// connection. Handler.teardown already asks the swarm to close that
// connection, so forgetting the map entry here is just catching up.
func (b *Behaviour) onHandlerDead(h *Handler) {
	b.mu.Lock()
	if b.handlers[h.peer] == h {
		delete(b.handlers, h.peer)
	}
	b.mu.Unlock()
}

// removePeer tears down and forgets the Handler for p, if one exists.
func (b *Behaviour) removePeer(p peer.ID) {
	b.mu.Lock()
	handler, ok := b.handlers[p]
	delete(b.handlers, p)
	b.mu.Unlock()

	if ok {
		handler.Close()
	}
}

// Close tears down every Handler this Behaviour owns.
func (b *Behaviour) Close() {
	b.mu.Lock()
	handlers := b.handlers
	b.handlers = make(map[peer.ID]*Handler)
	b.mu.Unlock()

	for _, handler := range handlers {
		handler.Close()
	}
}

// notifiee creates a Handler on a peer's first connection and removes it
// once the peer has no connections left, matching libp2p's own one-stream-
// handler-per-protocol convention for connection-scoped state.
type notifiee struct {
	b *Behaviour
}

func (n *notifiee) Connected(net network.Network, conn network.Conn) {
	n.b.handlerFor(conn.RemotePeer())
}

func (n *notifiee) Disconnected(net network.Network, conn network.Conn) {
	if len(net.ConnsToPeer(conn.RemotePeer())) == 0 {
		n.b.removePeer(conn.RemotePeer())
	}
}

func (n *notifiee) Listen(network.Network, ma.Multiaddr)      {}
func (n *notifiee) ListenClose(network.Network, ma.Multiaddr) {}
