package bitswap

import (
	"io"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-msgio"
)

// Maximum number of inbound substreams open at once on one connection.
// Additional substreams are simply reset; no one should be opening more
// than a handful of concurrent requests to us.
const maxSubstreams = 4

// Maximum size of any inbound message. The Bitswap spec allows up to 4MiB,
// but nobody should be sending us blocks on an inbound stream, so a much
// smaller cap avoids large allocations from a misbehaving peer.
const maxMessageSize = 32 * 1024

// inSubstreams fans frames from up to maxSubstreams concurrent inbound
// substreams into a single channel. Order across substreams is
// unspecified; within one substream, frames arrive in order.
type inSubstreams struct {
	frames chan []byte
	count  chan struct{} // one token per live substream, capacity maxSubstreams
	done   <-chan struct{}
}

// newInSubstreams builds an inSubstreams whose frame delivery aborts once
// done is closed. done is the owning Handler's ctx.Done(): once the
// handler's run loop has exited, nothing is left to drain frames, and
// without this escape a read loop's send on frames would block forever.
func newInSubstreams(done <-chan struct{}) *inSubstreams {
	return &inSubstreams{
		frames: make(chan []byte),
		count:  make(chan struct{}, maxSubstreams),
		done:   done,
	}
}

// Frames returns the channel frames from every live substream are
// delivered on.
func (s *inSubstreams) Frames() <-chan []byte {
	return s.frames
}

// Push registers a newly opened inbound substream. If the substream limit
// is already reached, or the owning handler is already gone, the stream is
// reset instead.
func (s *inSubstreams) Push(peerID string, stream network.Stream) {
	select {
	case <-s.done:
		_ = stream.Reset()
		return
	default:
	}

	select {
	case s.count <- struct{}{}:
	default:
		logger.Debugf("already at inbound substream limit; resetting new substream from %s", peerID)
		_ = stream.Reset()
		return
	}

	go s.readLoop(peerID, stream)
}

func (s *inSubstreams) readLoop(peerID string, stream network.Stream) {
	defer func() { <-s.count }()

	reader := msgio.NewVarintReaderSize(stream, maxMessageSize)
	for {
		frame, err := reader.ReadMsg()
		if err != nil {
			if err != io.EOF {
				logger.Debugf("error on inbound substream from %s, resetting: %s", peerID, err)
			}
			_ = stream.Reset()
			return
		}

		// The frame crosses into the handler goroutine via the channel, so
		// it is not returned to msgio's buffer pool here — reusing it
		// before the consumer is done would race. If the handler is gone,
		// nothing will ever receive it, so fall back to resetting the
		// stream instead of blocking forever.
		select {
		case s.frames <- frame:
		case <-s.done:
			logger.Debugf("handler for %s gone, resetting inbound substream", peerID)
			_ = stream.Reset()
			return
		}
	}
}
