package bitswap

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/libp2p/go-msgio"

	"github.com/sc-network/ipfs-bitswap/blockprovider"
)

// ProtocolID is the only Bitswap wire version this responder speaks.
const ProtocolID = protocol.ID("/ipfs/bitswap/1.2.0")

// SoftMaxPending is the "soft" ceiling on queued presences/blocks per
// connection: inbound reads pause once NumPending reaches this, and resume
// once it drops back below. Because the gate is only checked between
// messages, a single multi-entry wantlist can push pending well past it.
const SoftMaxPending = 1000

// IdleKeepAlive is how long the handler keeps a connection open once it
// has nothing left to do. A var, not a const, so tests can shrink it to
// exercise the idle-timeout path without waiting out the real duration.
var IdleKeepAlive = 5 * time.Second

// outState is the state of the handler's single outbound substream.
type outState int

const (
	outNone outState = iota
	outOpening
	outIdle
	outWriting
)

// writeResult is posted back to the run loop once a spawned write
// completes.
type writeResult struct {
	stream network.Stream
	err    error
}

// Handler couples one Core with one inbound substream multiplexer and one
// outbound substream, driving the whole per-connection protocol state
// machine from a single goroutine. Because exactly one goroutine ever
// touches core, in, or the outbound substream fields below, none of them
// need a mutex — this is the Go-idiomatic analogue of the poll-based
// single-threaded state machine the spec describes.
type Handler struct {
	core *Core
	in   *inSubstreams
	host host.Host
	peer peer.ID

	out        outState
	outStream  network.Stream
	writeDone  chan writeResult
	openDone   chan openResult

	// onDead is called exactly once, from run's own goroutine, as it
	// returns for any reason. It must not call Close — run is still on
	// the stack and done is not yet closed, so that would deadlock.
	onDead func(*Handler)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type openResult struct {
	stream network.Stream
	err    error
}

// NewHandler constructs a Handler for one peer and starts its run loop. The
// caller is responsible for calling PushInbound for every inbound substream
// the swarm negotiates for this peer, and Close when the connection ends.
//
// onDead, if non-nil, is called once run's loop exits for any reason —
// idle timeout, an outbound open/write error, or an external Close — so a
// caller tracking handlers by peer (Behaviour) can forget this one even
// when it died on its own rather than via Close.
func NewHandler(h host.Host, peerID peer.ID, provider blockprovider.BlockProvider, onDead func(*Handler)) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	handler := &Handler{
		core:      NewCore(peerID, provider),
		in:        newInSubstreams(ctx.Done()),
		host:      h,
		peer:      peerID,
		out:       outNone,
		writeDone: make(chan writeResult, 1),
		openDone:  make(chan openResult, 1),
		onDead:    onDead,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go handler.run()
	return handler
}

// PushInbound registers a newly negotiated inbound substream.
func (h *Handler) PushInbound(stream network.Stream) {
	h.in.Push(h.peer.String(), stream)
}

// Close stops the handler's run loop and waits for it to exit. Handler
// death is connection death: run's own exit tears down both the outbound
// substream and the underlying libp2p connection to the peer, so Close
// (like any other way run can end) leaves no dangling connection behind.
func (h *Handler) Close() {
	h.cancel()
	<-h.done
}

func (h *Handler) run() {
	defer close(h.done)
	defer func() {
		if h.onDead != nil {
			h.onDead(h)
		}
	}()
	// teardown runs for every exit path, not just explicit Close: a
	// handler that gives up on its own (idle timeout, outbound error)
	// must not leave the swarm holding a connection nothing drives.
	defer h.teardown()
	// Cancelling here too (not just in Close) guarantees that a
	// still-in-flight open/write goroutine sees ctx.Done() and resets its
	// stream, even when run exits on its own (idle timeout, write error)
	// rather than via an external Close call.
	defer h.cancel()

	idleTimer := time.NewTimer(IdleKeepAlive)
	defer idleTimer.Stop()
	h.refreshKeepAlive(idleTimer)

	for {
		progressed := h.step(idleTimer)
		if !progressed {
			select {
			case <-h.ctx.Done():
				return
			case frame := <-h.inboundFramesOrNil():
				h.core.HandleMessage(frame)
				stopIdleTimer(idleTimer)
			case res := <-h.openDone:
				if res.err != nil {
					logger.Debugf("failed to open outbound bitswap stream to %s, closing connection: %s", h.peer, res.err)
					return
				}
				h.out = outIdle
				h.outStream = res.stream
			case res := <-h.writeDone:
				if res.err != nil {
					logger.Debugf("outbound write to %s failed, closing connection: %s", h.peer, res.err)
					return
				}
				h.out = outIdle
				h.outStream = res.stream
			case <-idleTimer.C:
				if !h.core.AnyPending() && h.out != outWriting {
					logger.Debugf("closing idle connection to %s", h.peer)
					return
				}
			}
		}
		h.refreshKeepAlive(idleTimer)
	}
}

// step performs as many synchronous state transitions as possible without
// blocking, mirroring the spec's poll_step fixed point. It returns true if
// it made progress (so run should call it again immediately) and false once
// everything is quiescent and run should block in its select.
func (h *Handler) step(idleTimer *time.Timer) bool {
	if h.core.NumPending() < SoftMaxPending {
		select {
		case frame := <-h.in.Frames():
			h.core.HandleMessage(frame)
			stopIdleTimer(idleTimer)
			return true
		default:
		}
	}

	switch h.out {
	case outNone:
		if h.core.AnyPending() {
			h.out = outOpening
			go h.openOutbound()
		}
	case outIdle:
		if raw, ok := h.core.TryBuildMessage(); ok {
			h.out = outWriting
			go h.writeOutbound(h.outStream, raw)
			h.outStream = nil
			return true
		}
	}

	return false
}

func (h *Handler) inboundFramesOrNil() <-chan []byte {
	if h.core.NumPending() >= SoftMaxPending {
		return nil
	}
	return h.in.Frames()
}

func (h *Handler) openOutbound() {
	stream, err := h.host.NewStream(h.ctx, h.peer, ProtocolID)
	select {
	case h.openDone <- openResult{stream: stream, err: err}:
	case <-h.ctx.Done():
		if stream != nil {
			_ = stream.Reset()
		}
	}
}

func (h *Handler) writeOutbound(stream network.Stream, raw []byte) {
	writer := msgio.NewVarintWriter(stream)
	err := writer.WriteMsg(raw)
	select {
	case h.writeDone <- writeResult{stream: stream, err: err}:
	case <-h.ctx.Done():
		_ = stream.Reset()
	}
}

func (h *Handler) closeOutbound() {
	if h.outStream != nil {
		_ = h.outStream.Close()
		h.outStream = nil
	}
}

// teardown closes the outbound substream and asks the swarm to close the
// underlying connection to the peer. spec.md's Close(...) event is a
// request to the swarm to tear the connection down, not just stop this
// substream; ClosePeer is the Go equivalent of that request.
func (h *Handler) teardown() {
	h.closeOutbound()
	if err := h.host.Network().ClosePeer(h.peer); err != nil {
		logger.Debugf("error closing connection to %s: %s", h.peer, err)
	}
}

// refreshKeepAlive arms or suppresses the idle timer based on current
// state: any pending work or an in-flight write means the connection stays
// up; otherwise the idle countdown (re)starts once quiescent.
func (h *Handler) refreshKeepAlive(idleTimer *time.Timer) {
	if h.core.AnyPending() || h.out == outWriting {
		stopIdleTimer(idleTimer)
		return
	}
	resetIdleTimer(idleTimer, IdleKeepAlive)
}

func stopIdleTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetIdleTimer(t *time.Timer, d time.Duration) {
	stopIdleTimer(t)
	t.Reset(d)
}
