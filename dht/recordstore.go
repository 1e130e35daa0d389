package dht

import (
	"context"

	datastore "github.com/ipfs/go-datastore"
	mh "github.com/multiformats/go-multihash"
)

// recordStore is the in-memory bookkeeping of which multihashes this node
// currently advertises as a provider. It exists because *dht.IpfsDHT has no
// API to retract an already-announced provider record — those lapse on
// their own via the DHT's record TTL — so handling a Removed change needs
// somewhere else to have an observable, testable effect.
type recordStore struct {
	backing datastore.Datastore
}

func newRecordStore() *recordStore {
	return &recordStore{backing: datastore.NewMapDatastore()}
}

func (r *recordStore) Put(ctx context.Context, m mh.Multihash) error {
	return r.backing.Put(ctx, keyFor(m), []byte{})
}

func (r *recordStore) Delete(ctx context.Context, m mh.Multihash) error {
	return r.backing.Delete(ctx, keyFor(m))
}

func (r *recordStore) Has(ctx context.Context, m mh.Multihash) (bool, error) {
	return r.backing.Has(ctx, keyFor(m))
}

func keyFor(m mh.Multihash) datastore.Key {
	return datastore.NewKey(m.B58String())
}
