package stream

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kestrelsense/go-kestrel/internal/log"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
)

// Sender pushes packetized frames to a UDP peer.
type Sender struct {
	mu   sync.Mutex
	conn net.Conn
	pk   *Packetizer
	sent uint64
}

// NewSender dials the UDP target (host:port) and prepares a
// packetizer with the given MTU (0 means DefaultMTU).
func NewSender(addr string, mtu int) (*Sender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("stream: dial %s: %w", addr, err)
	}
	if mtu == 0 {
		mtu = DefaultMTU
	}
	return &Sender{conn: conn, pk: NewPacketizer(mtu)}, nil
}

// SendFrame packetizes one frame and writes all packets to the peer.
func (s *Sender) SendFrame(frame []byte, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pkt := range s.pk.Packetize(frame, ts) {
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("stream: marshal packet: %w", err)
		}
		if _, err := s.conn.Write(raw); err != nil {
			return fmt.Errorf("stream: write packet: %w", err)
		}
	}
	s.sent++
	return nil
}

// Handler adapts the sender to a sensor.FrameHandler. Send errors are
// logged, not propagated; there is no caller on the delivery
// goroutine to return them to.
func (s *Sender) Handler() sensor.FrameHandler {
	return func(ev sensor.FrameEvent) {
		if err := s.SendFrame(ev.Frame.Bytes(), ev.Timestamp); err != nil {
			log.Warn("rtp export failed", "serial", ev.Serial, "seq", ev.Seq, "err", err)
		}
	}
}

// Sent returns how many frames were exported.
func (s *Sender) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Close releases the UDP socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
