// Package bptest provides a minimal in-memory BlockProvider for tests,
// mirroring the simplicity of the teacher's own test block store.
package bptest

import (
	"sync"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"

	"github.com/sc-network/ipfs-bitswap/blockprovider"
)

// Memory is a goroutine-safe, map-backed BlockProvider for tests.
type Memory struct {
	mu      sync.Mutex
	byHash  map[string][]byte
	changes chan blockprovider.Change
}

// New returns an empty Memory provider.
func New() *Memory {
	return &Memory{
		byHash:  make(map[string][]byte),
		changes: make(chan blockprovider.Change, 16),
	}
}

// Put stores data and returns its raw-codec, sha2-256 CID, emitting an
// Added change.
func (m *Memory) Put(data []byte) cid.Cid {
	c, err := cid.V1Builder{Codec: uint64(multicodec.Raw), MhType: uint64(multicodec.Sha2_256)}.Sum(data)
	if err != nil {
		panic(err)
	}

	m.mu.Lock()
	m.byHash[string(c.Hash())] = data
	m.mu.Unlock()

	m.changes <- blockprovider.Change{Kind: blockprovider.Added, Multihash: c.Hash()}
	return c
}

// Remove deletes a previously-put block, emitting a Removed change.
func (m *Memory) Remove(c cid.Cid) {
	m.mu.Lock()
	delete(m.byHash, string(c.Hash()))
	m.mu.Unlock()

	m.changes <- blockprovider.Change{Kind: blockprovider.Removed, Multihash: c.Hash()}
}

// Have implements blockprovider.BlockProvider.
func (m *Memory) Have(multihash mh.Multihash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byHash[string(multihash)]
	return ok
}

// Get implements blockprovider.BlockProvider.
func (m *Memory) Get(multihash mh.Multihash) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.byHash[string(multihash)]
	return data, ok
}

// Changes implements blockprovider.BlockProvider.
func (m *Memory) Changes() <-chan blockprovider.Change {
	return m.changes
}

// Close closes the changes channel, simulating backend shutdown.
func (m *Memory) Close() {
	close(m.changes)
}

var _ blockprovider.BlockProvider = (*Memory)(nil)

// NewFixtureBlock builds a go-block-format Block for a piece of fixture
// data, the same construction teacher code uses for store fixtures.
func NewFixtureBlock(data []byte) (blocks.Block, error) {
	c, err := cid.V1Builder{Codec: uint64(multicodec.Raw), MhType: uint64(multicodec.Sha2_256)}.Sum(data)
	if err != nil {
		return nil, err
	}
	return blocks.NewBlockWithCid(data, c)
}
