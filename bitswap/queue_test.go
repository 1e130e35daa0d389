package bitswap

import (
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

func testCid(t *testing.T, s string) cid.Cid {
	t.Helper()
	sum, err := mh.Sum([]byte(s), mh.SHA2_256, -1)
	if err != nil {
		t.Fatal(err)
	}
	return cid.NewCidV1(cid.Raw, sum)
}

func TestPendingPresencesPreservesInsertionOrder(t *testing.T) {
	a, b, c := testCid(t, "a"), testCid(t, "b"), testCid(t, "c")
	q := newPendingPresences()

	q.Replace(a, true)
	q.Replace(b, false)
	q.Replace(c, true)

	gotA, have, ok := q.PopFront()
	if !ok || gotA != a || !have {
		t.Fatalf("expected (a, true), got (%v, %v, %v)", gotA, have, ok)
	}
	gotB, _, ok := q.PopFront()
	if !ok || gotB != b {
		t.Fatalf("expected b next, got %v", gotB)
	}
}

func TestPendingPresencesReplacePreservesPosition(t *testing.T) {
	a, b, c := testCid(t, "a"), testCid(t, "b"), testCid(t, "c")
	q := newPendingPresences()

	q.Replace(a, true)
	q.Replace(b, false)
	q.Replace(c, true)

	// Re-enqueuing a (already at the front) must not move it to the back.
	q.Replace(a, false)

	if q.Len() != 3 {
		t.Fatalf("expected len 3 after replace, got %d", q.Len())
	}

	gotA, have, ok := q.PopFront()
	if !ok || gotA != a {
		t.Fatalf("expected a still at front after replace, got %v", gotA)
	}
	if have {
		t.Fatalf("expected replace to update the have flag in place")
	}
}

func TestPendingPresencesRemove(t *testing.T) {
	a, b := testCid(t, "a"), testCid(t, "b")
	q := newPendingPresences()
	q.Replace(a, true)
	q.Replace(b, true)

	q.Remove(a)
	if q.Len() != 1 {
		t.Fatalf("expected len 1 after remove, got %d", q.Len())
	}
	got, _, ok := q.PopFront()
	if !ok || got != b {
		t.Fatalf("expected b to remain, got %v", got)
	}
}

func TestPendingPresencesClear(t *testing.T) {
	q := newPendingPresences()
	q.Replace(testCid(t, "a"), true)
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after Clear, got len %d", q.Len())
	}
	if _, _, ok := q.PopFront(); ok {
		t.Fatalf("expected PopFront to fail on cleared queue")
	}
}

func TestPendingBlocksReplacePreservesPosition(t *testing.T) {
	a, b := testCid(t, "a"), testCid(t, "b")
	q := newPendingBlocks()
	q.Replace(a)
	q.Replace(b)
	q.Replace(a) // no-op: a already queued

	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}
	got, ok := q.PopFront()
	if !ok || got != a {
		t.Fatalf("expected a at front, got %v", got)
	}
}

func TestPendingBlocksRemoveAndClear(t *testing.T) {
	a, b := testCid(t, "a"), testCid(t, "b")
	q := newPendingBlocks()
	q.Replace(a)
	q.Replace(b)
	q.Remove(a)

	if q.Len() != 1 {
		t.Fatalf("expected len 1 after remove, got %d", q.Len())
	}

	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("expected empty after Clear, got %d", q.Len())
	}
}
