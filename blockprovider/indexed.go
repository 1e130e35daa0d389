package blockprovider

import (
	logging "github.com/ipfs/go-log/v2"
	mh "github.com/multiformats/go-multihash"
)

var logger = logging.Logger("ipfs/blockprovider")

// Blake2b256Code is the multihash function code for Blake2b-256, the hash
// substrate chains commonly key indexed transactions by.
const Blake2b256Code = 0xb220

// Hash is a fixed-size native chain hash. Its length must match the digest
// size of the multihash code the BlockBackend is keyed by.
type Hash [32]byte

// BlockBackend is the narrow slice of the node's indexing layer that
// IndexedTransactions adapts into a BlockProvider.
type BlockBackend interface {
	HasIndexedTransaction(hash Hash) (bool, error)
	IndexedTransaction(hash Hash) ([]byte, error)
}

// IndexedTransactions implements BlockProvider over a BlockBackend keyed by
// chain hash, translating IPFS multihashes to and from that hash type.
type IndexedTransactions struct {
	backend       BlockBackend
	multihashCode uint64
	changes       <-chan Change
}

// NewIndexedTransactions wraps backend as a BlockProvider. multihashCode is
// the multihash function code backend's hashes correspond to (e.g.
// Blake2b256Code). changes is forwarded verbatim as Changes(); it is owned
// by the caller (typically fed by the node's import notification stream).
func NewIndexedTransactions(backend BlockBackend, multihashCode uint64, changes <-chan Change) *IndexedTransactions {
	return &IndexedTransactions{
		backend:       backend,
		multihashCode: multihashCode,
		changes:       changes,
	}
}

func (t *IndexedTransactions) tryFromMultihash(multihash mh.Multihash) (Hash, bool) {
	var zero Hash

	decoded, err := mh.Decode(multihash)
	if err != nil {
		return zero, false
	}
	if uint64(decoded.Code) != t.multihashCode {
		return zero, false
	}
	if len(decoded.Digest) != len(zero) {
		return zero, false
	}

	var hash Hash
	copy(hash[:], decoded.Digest)
	return hash, true
}

// Have implements BlockProvider.
func (t *IndexedTransactions) Have(multihash mh.Multihash) bool {
	hash, ok := t.tryFromMultihash(multihash)
	if !ok {
		return false
	}
	have, err := t.backend.HasIndexedTransaction(hash)
	if err != nil {
		logger.Debugf("error checking for block %x: %s", hash, err)
		return false
	}
	return have
}

// Get implements BlockProvider.
func (t *IndexedTransactions) Get(multihash mh.Multihash) ([]byte, bool) {
	hash, ok := t.tryFromMultihash(multihash)
	if !ok {
		return nil, false
	}
	data, err := t.backend.IndexedTransaction(hash)
	if err != nil {
		logger.Debugf("error getting block %x: %s", hash, err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}

// Changes implements BlockProvider.
func (t *IndexedTransactions) Changes() <-chan Change {
	return t.changes
}
