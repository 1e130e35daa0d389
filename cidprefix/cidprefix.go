// Package cidprefix serializes and parses the non-digest portion of a CID —
// version, codec, and multihash function/length — as the concatenated
// unsigned-varints Bitswap uses for its Block.prefix field.
package cidprefix

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
)

// CidPrefix is the four-field tuple that identifies everything about a CID
// except its digest bytes.
type CidPrefix struct {
	Version  uint64
	Codec    uint64
	HashCode uint64
	HashSize uint64
}

// FromCID projects the prefix fields out of a CID.
func FromCID(c cid.Cid) CidPrefix {
	p := c.Prefix()
	return CidPrefix{
		Version:  p.Version,
		Codec:    p.Codec,
		HashCode: uint64(p.MhType),
		HashSize: uint64(p.MhLength),
	}
}

// ToBytes encodes the prefix as concatenated unsigned-varints. CID V0 has no
// version or codec varint — both are implicit (DAG-PB, SHA2-256) — so V0
// prefixes omit them entirely to stay bit-exact with the wire format peers
// expect.
func (p CidPrefix) ToBytes() []byte {
	buf := make([]byte, 0, 4*varint.MaxLenUint64)
	if p.Version != 0 {
		buf = append(buf, varint.ToUvarint(p.Version)...)
		buf = append(buf, varint.ToUvarint(p.Codec)...)
	}
	buf = append(buf, varint.ToUvarint(p.HashCode)...)
	buf = append(buf, varint.ToUvarint(p.HashSize)...)
	return buf
}
