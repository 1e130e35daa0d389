package bitswap

import (
	"container/list"

	"github.com/ipfs/go-cid"
)

// presenceEntry is one element of a pendingPresences ordered map.
type presenceEntry struct {
	cid  cid.Cid
	have bool
}

// pendingPresences is an insertion-ordered map from CID to a "have"
// snapshot, with O(1) existence test and O(1) position-preserving replace.
// It is the Go-native rendering of a linked hash map: a doubly-linked list
// carries iteration order, and a CID-keyed index gives constant-time lookup
// of the corresponding list element.
type pendingPresences struct {
	order *list.List
	index map[cid.Cid]*list.Element
}

func newPendingPresences() *pendingPresences {
	return &pendingPresences{
		order: list.New(),
		index: make(map[cid.Cid]*list.Element),
	}
}

func (q *pendingPresences) Len() int {
	return q.order.Len()
}

// Replace inserts (c, have) at the back if c is new, or overwrites have in
// place if c is already queued — its position among the other entries is
// unchanged either way.
func (q *pendingPresences) Replace(c cid.Cid, have bool) {
	if el, ok := q.index[c]; ok {
		el.Value.(*presenceEntry).have = have
		return
	}
	el := q.order.PushBack(&presenceEntry{cid: c, have: have})
	q.index[c] = el
}

// Remove deletes c if present; it is a no-op otherwise.
func (q *pendingPresences) Remove(c cid.Cid) {
	if el, ok := q.index[c]; ok {
		q.order.Remove(el)
		delete(q.index, c)
	}
}

// PopFront removes and returns the oldest entry, if any.
func (q *pendingPresences) PopFront() (c cid.Cid, have bool, ok bool) {
	front := q.order.Front()
	if front == nil {
		return cid.Undef, false, false
	}
	entry := front.Value.(*presenceEntry)
	q.order.Remove(front)
	delete(q.index, entry.cid)
	return entry.cid, entry.have, true
}

func (q *pendingPresences) Clear() {
	q.order.Init()
	for k := range q.index {
		delete(q.index, k)
	}
}

// pendingBlocks is an insertion-ordered set of CIDs with the same
// position-preserving-replace semantics as pendingPresences.
type pendingBlocks struct {
	order *list.List
	index map[cid.Cid]*list.Element
}

func newPendingBlocks() *pendingBlocks {
	return &pendingBlocks{
		order: list.New(),
		index: make(map[cid.Cid]*list.Element),
	}
}

func (q *pendingBlocks) Len() int {
	return q.order.Len()
}

// Replace inserts c at the back if it is new; if c is already queued, its
// position is left unchanged.
func (q *pendingBlocks) Replace(c cid.Cid) {
	if _, ok := q.index[c]; ok {
		return
	}
	el := q.order.PushBack(c)
	q.index[c] = el
}

func (q *pendingBlocks) Remove(c cid.Cid) {
	if el, ok := q.index[c]; ok {
		q.order.Remove(el)
		delete(q.index, c)
	}
}

func (q *pendingBlocks) PopFront() (c cid.Cid, ok bool) {
	front := q.order.Front()
	if front == nil {
		return cid.Undef, false
	}
	c = front.Value.(cid.Cid)
	q.order.Remove(front)
	delete(q.index, c)
	return c, true
}

func (q *pendingBlocks) Clear() {
	q.order.Init()
	for k := range q.index {
		delete(q.index, k)
	}
}
