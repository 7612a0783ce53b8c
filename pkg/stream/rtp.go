// Package stream exports sensor frames as RTP packet streams.
//
// Raw depth/RGB frames are larger than any sane datagram, so each
// frame is chunked into MTU-bounded RTP packets sharing one timestamp,
// with the marker bit set on the final packet of the frame. The
// payload is the raw frame bytes; mode geometry travels out of band.
package stream

import (
	"math/rand"
	"time"

	"github.com/pion/rtp"
)

const (
	// PayloadType is the dynamic RTP payload type used for raw frames.
	PayloadType = 96

	// ClockRate is the RTP timestamp clock, the standard 90 kHz video
	// clock.
	ClockRate = 90000

	// DefaultMTU bounds the marshaled packet size, headers included.
	DefaultMTU = 1200

	// headerSize is the fixed RTP header size without CSRCs or
	// extensions, which this packetizer never emits.
	headerSize = 12
)

// Packetizer splits frames into RTP packets with monotonic sequence
// numbers and a stable random SSRC. Not safe for concurrent use; one
// packetizer per stream.
type Packetizer struct {
	mtu  int
	ssrc uint32
	seq  uint16
}

// NewPacketizer creates a packetizer with the given MTU. Values
// smaller than the RTP header plus one payload byte fall back to
// DefaultMTU.
func NewPacketizer(mtu int) *Packetizer {
	if mtu <= headerSize {
		mtu = DefaultMTU
	}
	return &Packetizer{
		mtu:  mtu,
		ssrc: rand.Uint32(),
		seq:  uint16(rand.Uint32()),
	}
}

// SSRC returns the packetizer's synchronization source identifier.
func (p *Packetizer) SSRC() uint32 { return p.ssrc }

// Packetize splits one frame into RTP packets. All packets of the
// frame carry the same timestamp (ts on the 90 kHz clock); the last
// packet has the marker bit set.
func (p *Packetizer) Packetize(frame []byte, ts time.Time) []*rtp.Packet {
	if len(frame) == 0 {
		return nil
	}
	clock := uint32(ts.UnixNano() / (int64(time.Second) / ClockRate))
	payloadSize := p.mtu - headerSize

	packets := make([]*rtp.Packet, 0, (len(frame)+payloadSize-1)/payloadSize)
	for off := 0; off < len(frame); off += payloadSize {
		end := off + payloadSize
		if end > len(frame) {
			end = len(frame)
		}
		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         end == len(frame),
				PayloadType:    PayloadType,
				SequenceNumber: p.seq,
				Timestamp:      clock,
				SSRC:           p.ssrc,
			},
			Payload: frame[off:end],
		})
		p.seq++
	}
	return packets
}

// Reassembler rebuilds frames from a packet stream. Packets lost
// mid-frame invalidate the partial frame; reassembly resumes at the
// next frame boundary.
type Reassembler struct {
	buf     []byte
	lastSeq uint16
	started bool
	broken  bool
}

// Push feeds one packet. When the packet completes a frame, the frame
// bytes are returned with ok=true; a frame with missing packets is
// discarded.
func (r *Reassembler) Push(pkt *rtp.Packet) (frame []byte, ok bool) {
	if r.started && pkt.SequenceNumber != r.lastSeq+1 {
		// Gap: whatever is accumulated belongs to a damaged frame.
		r.buf = r.buf[:0]
		r.broken = true
	}
	r.lastSeq = pkt.SequenceNumber
	r.started = true

	if !r.broken {
		r.buf = append(r.buf, pkt.Payload...)
	}

	if !pkt.Marker {
		return nil, false
	}

	// Frame boundary: emit if intact, then reset for the next frame.
	defer func() {
		r.buf = nil
		r.broken = false
	}()
	if r.broken || len(r.buf) == 0 {
		return nil, false
	}
	return r.buf, true
}
