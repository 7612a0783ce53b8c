package stream

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
)

func TestSender_SendsCompleteFrame(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	sender, err := NewSender(pc.LocalAddr().String(), 100)
	if err != nil {
		t.Fatalf("NewSender: %v", err)
	}
	defer sender.Close()

	frame := bytes.Repeat([]byte{42}, 300)
	if err := sender.SendFrame(frame, time.Unix(5, 0)); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}
	if sender.Sent() != 1 {
		t.Errorf("Sent: got %d, want 1", sender.Sent())
	}

	var re Reassembler
	buf := make([]byte, 2048)
	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got, ok := re.Push(&pkt); ok {
			if !bytes.Equal(got, frame) {
				t.Error("received frame differs from sent frame")
			}
			return
		}
	}
}
