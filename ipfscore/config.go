package ipfscore

import (
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
)

// BootNode is a peer the DHT routing table is seeded with at startup.
type BootNode struct {
	PeerID peer.ID
	Addr   ma.Multiaddr
}

// Config is the only configuration surface this module exposes; everything
// else (CLI flags, config files, environment variables) belongs to the
// enclosing node binary.
type Config struct {
	BootNodes []BootNode

	// DHTProtocolIDs are the protocol IDs AddSelfReportedAddress checks a
	// remote peer's supported protocols against before adding it to the
	// routing table. Defaults to the standard Kademlia protocol ID if left
	// empty.
	DHTProtocolIDs []protocol.ID
}
