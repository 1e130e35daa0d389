package cidprefix

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

func mustSum(t *testing.T, data []byte) mh.Multihash {
	t.Helper()
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	return sum
}

func TestToBytesV1RoundTripsAsPrefixOfCid(t *testing.T) {
	sum := mustSum(t, []byte("hello world"))
	c := cid.NewCidV1(cid.Raw, sum)

	got := FromCID(c).ToBytes()
	full := c.Bytes()

	if !bytes.Equal(got, full[:len(got)]) {
		t.Fatalf("ToBytes() = %x is not a prefix of CID bytes %x", got, full)
	}
}

func TestToBytesV0OmitsVersionAndCodec(t *testing.T) {
	sum := mustSum(t, []byte("hello world"))
	c := cid.NewCidV0(sum)

	p := FromCID(c)
	if p.Version != 0 {
		t.Fatalf("expected version 0, got %d", p.Version)
	}

	got := p.ToBytes()
	// V0 prefix is just hash-code and hash-size varints; sha2-256 code is
	// 0x12 and digest size is 32, both single-byte varints.
	want := []byte{0x12, 0x20}
	if !bytes.Equal(got, want) {
		t.Fatalf("ToBytes() = %x, want %x", got, want)
	}
}

func TestToBytesV1IncludesVersionAndCodec(t *testing.T) {
	sum := mustSum(t, []byte("data"))
	c := cid.NewCidV1(cid.Raw, sum)

	p := FromCID(c)
	got := p.ToBytes()

	// version(1) codec(raw=0x55) hashcode(sha2-256=0x12) hashsize(32)
	want := []byte{0x01, 0x55, 0x12, 0x20}
	if !bytes.Equal(got, want) {
		t.Fatalf("ToBytes() = %x, want %x", got, want)
	}
}
