package bitswap

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/sc-network/ipfs-bitswap/bitswap/pb"
	"github.com/sc-network/ipfs-bitswap/blockprovider/bptest"
)

func newTestCore(t *testing.T, provider *bptest.Memory) *Core {
	t.Helper()
	return NewCore(peer.ID("test-peer"), provider)
}

func wantlistMessage(full bool, entries ...*pb.Message_Wantlist_Entry) []byte {
	msg := &pb.Message{Wantlist: &pb.Message_Wantlist{Full: full, Entries: entries}}
	encoded, err := msg.Marshal()
	if err != nil {
		panic(err)
	}
	return encoded
}

func wantHave(c cid.Cid, sendDontHave bool) *pb.Message_Wantlist_Entry {
	return &pb.Message_Wantlist_Entry{Block: c.Bytes(), WantType: pb.Message_Wantlist_Have, SendDontHave: sendDontHave}
}

func wantBlock(c cid.Cid) *pb.Message_Wantlist_Entry {
	return &pb.Message_Wantlist_Entry{Block: c.Bytes(), WantType: pb.Message_Wantlist_Block}
}

func cancelEntry(c cid.Cid) *pb.Message_Wantlist_Entry {
	return &pb.Message_Wantlist_Entry{Block: c.Bytes(), Cancel: true}
}

func decode(t *testing.T, raw []byte) *pb.Message {
	t.Helper()
	msg := &pb.Message{}
	if err := msg.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return msg
}

// Scenario 1: Want-Have hit.
func TestWantHaveHit(t *testing.T) {
	provider := bptest.New()
	blockCid := provider.Put([]byte("hello"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(blockCid, false)))

	raw, ok := core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a message to build")
	}
	msg := decode(t, raw)
	if len(msg.BlockPresences) != 1 || msg.BlockPresences[0].Type != pb.Message_Have {
		t.Fatalf("expected one Have presence, got %+v", msg.BlockPresences)
	}
	if len(msg.Payload) != 0 {
		t.Fatalf("expected no payload, got %+v", msg.Payload)
	}
}

// Scenario 2: Want-Have miss without send_dont_have.
func TestWantHaveMissWithoutSendDontHave(t *testing.T) {
	provider := bptest.New()
	missingCid := fixtureCid(t, "missing")

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(missingCid, false)))

	if _, ok := core.TryBuildMessage(); ok {
		t.Fatalf("expected no message to build")
	}
}

// Scenario 3: Want-Have miss with send_dont_have.
func TestWantHaveMissWithSendDontHave(t *testing.T) {
	provider := bptest.New()
	missingCid := fixtureCid(t, "missing")

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(missingCid, true)))

	raw, ok := core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a message to build")
	}
	msg := decode(t, raw)
	if len(msg.BlockPresences) != 1 || msg.BlockPresences[0].Type != pb.Message_DontHave {
		t.Fatalf("expected one DontHave presence, got %+v", msg.BlockPresences)
	}
}

// Scenario 4: Want-Block hit.
func TestWantBlockHit(t *testing.T) {
	provider := bptest.New()
	blockCid := provider.Put([]byte("the data"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(false, wantBlock(blockCid)))

	raw, ok := core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a message to build")
	}
	msg := decode(t, raw)
	if len(msg.BlockPresences) != 0 {
		t.Fatalf("expected no presences, got %+v", msg.BlockPresences)
	}
	if len(msg.Payload) != 1 || string(msg.Payload[0].Data) != "the data" {
		t.Fatalf("expected one block with data, got %+v", msg.Payload)
	}
}

// Want-Block miss is silently dropped: no message should ever be built.
func TestWantBlockMissIsDropped(t *testing.T) {
	provider := bptest.New()
	missingCid := fixtureCid(t, "missing")

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(false, wantBlock(missingCid)))

	if _, ok := core.TryBuildMessage(); ok {
		t.Fatalf("expected no message to build for a missing want-block")
	}
	if core.AnyPending() {
		t.Fatalf("expected no pending entries for a missing want-block")
	}
}

// Scenario 5: Cancel.
func TestCancelRemovesFromBothQueues(t *testing.T) {
	provider := bptest.New()
	blockCid := provider.Put([]byte("x"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(blockCid, false)))
	if !core.AnyPending() {
		t.Fatalf("expected pending presence before cancel")
	}

	core.HandleMessage(wantlistMessage(false, cancelEntry(blockCid)))
	if core.AnyPending() {
		t.Fatalf("expected no pending entries after cancel")
	}
}

// Scenario 6: Full wipes.
func TestFullWantlistWipesQueues(t *testing.T) {
	provider := bptest.New()
	a := provider.Put([]byte("a"))
	b := provider.Put([]byte("b"))
	c := provider.Put([]byte("c"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(a, false), wantHave(b, false)))
	if core.NumPending() != 2 {
		t.Fatalf("expected 2 pending, got %d", core.NumPending())
	}

	core.HandleMessage(wantlistMessage(true, wantHave(c, false)))
	if core.NumPending() != 1 {
		t.Fatalf("expected only the new entry to survive a full wantlist, got %d pending", core.NumPending())
	}

	raw, ok := core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a message to build")
	}
	msg := decode(t, raw)
	if len(msg.BlockPresences) != 1 || string(msg.BlockPresences[0].Cid) != string(c.Bytes()) {
		t.Fatalf("expected only c's presence to survive, got %+v", msg.BlockPresences)
	}
}

func TestReplacePreservesQueuePosition(t *testing.T) {
	provider := bptest.New()
	a := provider.Put([]byte("a"))
	b := provider.Put([]byte("b"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(a, false), wantHave(b, false)))
	// Re-request a: its position must not move to the back.
	core.HandleMessage(wantlistMessage(false, wantHave(a, false)))

	raw, ok := core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a message to build")
	}
	msg := decode(t, raw)
	if len(msg.BlockPresences) != 2 || string(msg.BlockPresences[0].Cid) != string(a.Bytes()) {
		t.Fatalf("expected a to remain first, got %+v", msg.BlockPresences)
	}
}

func TestBuiltMessageNeverMixesPresencesAndBlocks(t *testing.T) {
	provider := bptest.New()
	presenceCid := provider.Put([]byte("p"))
	blockCid := provider.Put([]byte("blk"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(true, wantHave(presenceCid, false), wantBlock(blockCid)))

	raw, ok := core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a message to build")
	}
	msg := decode(t, raw)
	if len(msg.BlockPresences) == 0 || len(msg.Payload) != 0 {
		t.Fatalf("expected the first message to carry only presences, got %+v", msg)
	}

	raw, ok = core.TryBuildMessage()
	if !ok {
		t.Fatalf("expected a second message to build")
	}
	msg = decode(t, raw)
	if len(msg.Payload) == 0 || len(msg.BlockPresences) != 0 {
		t.Fatalf("expected the second message to carry only the block, got %+v", msg)
	}
}

func TestBlockVanishedBeforeSendIsOmittedNotReenqueued(t *testing.T) {
	provider := bptest.New()
	blockCid := provider.Put([]byte("will vanish"))

	core := newTestCore(t, provider)
	core.HandleMessage(wantlistMessage(false, wantBlock(blockCid)))

	provider.Remove(blockCid)

	if _, ok := core.TryBuildMessage(); ok {
		t.Fatalf("expected no message once the block vanished")
	}
	if core.AnyPending() {
		t.Fatalf("expected the vanished block not to be re-enqueued")
	}
}

func fixtureCid(t *testing.T, s string) cid.Cid {
	t.Helper()
	dummy := bptest.New()
	c := dummy.Put([]byte(s))
	dummy.Remove(c)
	return c
}
