package bitswap

import (
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/sc-network/ipfs-bitswap/bitswap/pb"
	"github.com/sc-network/ipfs-bitswap/blockprovider"
	"github.com/sc-network/ipfs-bitswap/cidprefix"
)

var logger = logging.Logger("ipfs/bitswap")

// Note that each outbound message carries either a list of block presences
// or a list of blocks, never both — an implementation choice, not something
// the wire protocol requires.
const (
	maxPresencesPerOutMessage = 100
	maxBlocksPerOutMessage    = 1
)

// Core is the per-peer Bitswap responder state machine: it consumes inbound
// want-lists and builds outbound presence/block replies. It holds no
// network state and is not safe for concurrent use — each Connection
// Handler owns exactly one Core.
type Core struct {
	peerID   peer.ID
	provider blockprovider.BlockProvider

	// Queue of block presences to send, front-first. The bool is a
	// have/don't-have snapshot taken at enqueue time; it may be stale by
	// send time, which is tolerated.
	pendingPresences *pendingPresences

	// Queue of blocks to send, front-first. A CID queued here may have
	// disappeared from the provider by send time.
	pendingBlocks *pendingBlocks
}

// NewCore constructs a Core for one peer.
func NewCore(peerID peer.ID, provider blockprovider.BlockProvider) *Core {
	return &Core{
		peerID:           peerID,
		provider:         provider,
		pendingPresences: newPendingPresences(),
		pendingBlocks:    newPendingBlocks(),
	}
}

// PeerID returns the peer this Core is responding to.
func (c *Core) PeerID() peer.ID {
	return c.peerID
}

// NumPending returns the total number of queued presences and blocks.
func (c *Core) NumPending() int {
	return c.pendingPresences.Len() + c.pendingBlocks.Len()
}

// AnyPending reports whether either queue is non-empty.
func (c *Core) AnyPending() bool {
	return c.pendingPresences.Len() > 0 || c.pendingBlocks.Len() > 0
}

// HandleMessage decodes and applies one inbound wire message. Malformed
// messages, missing want-lists, and bad CIDs are logged and otherwise
// ignored — they never fail the connection.
func (c *Core) HandleMessage(raw []byte) {
	msg := &pb.Message{}
	if err := msg.Unmarshal(raw); err != nil {
		logger.Debugf("error decoding message from %s: %s", c.peerID, err)
		return
	}

	if msg.Wantlist == nil {
		logger.Debugf("inbound message from %s without wantlist", c.peerID)
		return
	}

	if msg.Wantlist.Full {
		c.pendingPresences.Clear()
		c.pendingBlocks.Clear()
	}

	for _, entry := range msg.Wantlist.Entries {
		c.handleEntry(entry)
	}
}

func (c *Core) handleEntry(entry *pb.Message_Wantlist_Entry) {
	id, err := cid.Cast(entry.Block)
	if err != nil {
		logger.Debugf("bad CID %x from %s: %s", entry.Block, c.peerID, err)
		return
	}

	if entry.Cancel {
		c.pendingPresences.Remove(id)
		c.pendingBlocks.Remove(id)
		return
	}

	switch entry.WantType {
	case pb.Message_Wantlist_Block:
		if c.provider.Have(id.Hash()) {
			// Already requested: leave it where it is in the queue.
			c.pendingBlocks.Replace(id)
		} else {
			logger.Debugf("block %s requested by %s not found", id, c.peerID)
		}
	case pb.Message_Wantlist_Have:
		have := c.provider.Have(id.Hash())
		if have || entry.SendDontHave {
			// Already requested: leave it where it is in the queue.
			c.pendingPresences.Replace(id, have)
		}
	default:
		logger.Debugf("unrecognised want type %d from %s", entry.WantType, c.peerID)
	}
}

// TryBuildMessage drains the pending queues into one outbound wire message.
// It returns (nil, false) if there is nothing to send.
func (c *Core) TryBuildMessage() ([]byte, bool) {
	msg := &pb.Message{}

	for len(msg.BlockPresences) < maxPresencesPerOutMessage {
		id, have, ok := c.pendingPresences.PopFront()
		if !ok {
			break
		}
		presenceType := pb.Message_DontHave
		if have {
			presenceType = pb.Message_Have
		}
		msg.BlockPresences = append(msg.BlockPresences, &pb.Message_BlockPresence{
			Cid:  id.Bytes(),
			Type: presenceType,
		})
	}

	if len(msg.BlockPresences) == 0 {
		for len(msg.Payload) < maxBlocksPerOutMessage {
			id, ok := c.pendingBlocks.PopFront()
			if !ok {
				break
			}
			data, ok := c.provider.Get(id.Hash())
			if !ok {
				logger.Debugf("block %s has disappeared, cannot send to %s", id, c.peerID)
				continue
			}
			msg.Payload = append(msg.Payload, &pb.Message_Block{
				Prefix: cidprefix.FromCID(id).ToBytes(),
				Data:   data,
			})
		}
	}

	if len(msg.BlockPresences) == 0 && len(msg.Payload) == 0 {
		return nil, false
	}

	encoded, err := msg.Marshal()
	if err != nil {
		// Marshal only fails on unrepresentable values, which this
		// message never contains; treat it as "nothing to send" rather
		// than panicking the connection.
		logger.Debugf("error encoding outbound message to %s: %s", c.peerID, err)
		return nil, false
	}
	return encoded, true
}
