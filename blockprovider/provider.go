// Package blockprovider defines the capability the Bitswap responder and the
// DHT advertiser consume from the node's block store: presence/fetch by
// multihash, plus a feed of inventory changes.
package blockprovider

import (
	mh "github.com/multiformats/go-multihash"
)

// ChangeKind distinguishes the two kinds of inventory change.
type ChangeKind int

const (
	// Added means the multihash is now available from the provider.
	Added ChangeKind = iota
	// Removed means the multihash is no longer available.
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Change is a single inventory event emitted by a BlockProvider.
type Change struct {
	Kind      ChangeKind
	Multihash mh.Multihash
}

// BlockProvider is the boundary capability the core consumes from the node's
// block store. Implementations must be safe for concurrent use by multiple
// Bitswap connection handlers; Changes() has exactly one consumer (the DHT
// advertiser).
type BlockProvider interface {
	// Have reports whether the block with the given multihash is currently
	// available. It must be cheap to call once per inbound want-entry, and
	// may return false on a backend error.
	Have(multihash mh.Multihash) bool

	// Get returns the block body for the given multihash, if still
	// available. It may return ok=false even immediately after Have
	// returned true; callers must tolerate the race.
	Get(multihash mh.Multihash) (data []byte, ok bool)

	// Changes returns a channel of inventory changes. The channel is closed
	// when the backend is gone; there is exactly one consumer for the
	// lifetime of the BlockProvider.
	Changes() <-chan Change
}
