// Package pb holds the protobuf Go types for the Bitswap 1.2.0 wire
// message, in the shape protoc-gen-gogo would emit for:
//
//	message Message {
//	  message Wantlist {
//	    message Entry {
//	      bytes block = 1;
//	      int32 priority = 2;
//	      bool cancel = 3;
//	      WantType wantType = 4;
//	      bool sendDontHave = 5;
//	    }
//	    enum WantType { Block = 0; Have = 1; }
//	    repeated Entry entries = 1;
//	    bool full = 2;
//	  }
//	  message Block {
//	    bytes prefix = 1;
//	    bytes data = 2;
//	  }
//	  message BlockPresence {
//	    enum BlockPresenceType { Have = 0; DontHave = 1; }
//	    bytes cid = 1;
//	    BlockPresenceType type = 2;
//	  }
//	  Wantlist wantlist = 1;
//	  repeated bytes blocks = 2;
//	  repeated Block payload = 3;
//	  repeated BlockPresence blockPresences = 4;
//	  int32 pendingBytes = 5;
//	}
//
// Marshal/Unmarshal are implemented via gogo/protobuf's struct-tag
// reflection (proto.Marshal / proto.Unmarshal) rather than hand-rolled wire
// code, the same tradeoff protoc-gen-gogo makes for non-performance-critical
// schemas.
package pb

import (
	"github.com/gogo/protobuf/proto"
)

// Message_Wantlist_WantType selects whether a want-entry is asking for
// presence ("Have") or the block body ("Block").
type Message_Wantlist_WantType int32

const (
	Message_Wantlist_Block Message_Wantlist_WantType = 0
	Message_Wantlist_Have  Message_Wantlist_WantType = 1
)

var Message_Wantlist_WantType_name = map[int32]string{
	0: "Block",
	1: "Have",
}

func (t Message_Wantlist_WantType) String() string {
	if name, ok := Message_Wantlist_WantType_name[int32(t)]; ok {
		return name
	}
	return "Unknown"
}

// Message_BlockPresenceType selects between a positive and negative
// presence response.
type Message_BlockPresenceType int32

const (
	Message_Have     Message_BlockPresenceType = 0
	Message_DontHave Message_BlockPresenceType = 1
)

var Message_BlockPresenceType_name = map[int32]string{
	0: "Have",
	1: "DontHave",
}

func (t Message_BlockPresenceType) String() string {
	if name, ok := Message_BlockPresenceType_name[int32(t)]; ok {
		return name
	}
	return "Unknown"
}

// Message_Wantlist_Entry is one inbound want-list entry.
type Message_Wantlist_Entry struct {
	Block        []byte                    `protobuf:"bytes,1,opt,name=block,proto3" json:"block,omitempty"`
	Priority     int32                     `protobuf:"varint,2,opt,name=priority,proto3" json:"priority,omitempty"`
	Cancel       bool                      `protobuf:"varint,3,opt,name=cancel,proto3" json:"cancel,omitempty"`
	WantType     Message_Wantlist_WantType `protobuf:"varint,4,opt,name=wantType,proto3,enum=pb.Message_Wantlist_WantType" json:"wantType,omitempty"`
	SendDontHave bool                      `protobuf:"varint,5,opt,name=sendDontHave,proto3" json:"sendDontHave,omitempty"`
}

func (m *Message_Wantlist_Entry) Reset()         { *m = Message_Wantlist_Entry{} }
func (m *Message_Wantlist_Entry) String() string { return proto.CompactTextString(m) }
func (*Message_Wantlist_Entry) ProtoMessage()    {}

// Message_Wantlist is the inbound want-list.
type Message_Wantlist struct {
	Entries []*Message_Wantlist_Entry `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty"`
	Full    bool                      `protobuf:"varint,2,opt,name=full,proto3" json:"full,omitempty"`
}

func (m *Message_Wantlist) Reset()         { *m = Message_Wantlist{} }
func (m *Message_Wantlist) String() string { return proto.CompactTextString(m) }
func (*Message_Wantlist) ProtoMessage()    {}

// Message_Block is one outbound block: a CidPrefix encoding plus the raw
// block data.
type Message_Block struct {
	Prefix []byte `protobuf:"bytes,1,opt,name=prefix,proto3" json:"prefix,omitempty"`
	Data   []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *Message_Block) Reset()         { *m = Message_Block{} }
func (m *Message_Block) String() string { return proto.CompactTextString(m) }
func (*Message_Block) ProtoMessage()    {}

// Message_BlockPresence is one outbound presence/absence advertisement.
type Message_BlockPresence struct {
	Cid  []byte                    `protobuf:"bytes,1,opt,name=cid,proto3" json:"cid,omitempty"`
	Type Message_BlockPresenceType `protobuf:"varint,2,opt,name=type,proto3,enum=pb.Message_BlockPresenceType" json:"type,omitempty"`
}

func (m *Message_BlockPresence) Reset()         { *m = Message_BlockPresence{} }
func (m *Message_BlockPresence) String() string { return proto.CompactTextString(m) }
func (*Message_BlockPresence) ProtoMessage()    {}

// Message is the top-level Bitswap 1.2.0 wire message.
type Message struct {
	Wantlist       *Message_Wantlist        `protobuf:"bytes,1,opt,name=wantlist" json:"wantlist,omitempty"`
	Blocks         [][]byte                 `protobuf:"bytes,2,rep,name=blocks,proto3" json:"blocks,omitempty"`
	Payload        []*Message_Block         `protobuf:"bytes,3,rep,name=payload" json:"payload,omitempty"`
	BlockPresences []*Message_BlockPresence `protobuf:"bytes,4,rep,name=blockPresences" json:"blockPresences,omitempty"`
	PendingBytes   int32                    `protobuf:"varint,5,opt,name=pendingBytes,proto3" json:"pendingBytes,omitempty"`
}

func (m *Message) Reset()         { *m = Message{} }
func (m *Message) String() string { return proto.CompactTextString(m) }
func (*Message) ProtoMessage()    {}

// Marshal encodes the message to its protobuf wire form.
func (m *Message) Marshal() ([]byte, error) {
	return proto.Marshal(m)
}

// Unmarshal decodes a protobuf wire message into m.
func (m *Message) Unmarshal(data []byte) error {
	return proto.Unmarshal(data, m)
}
