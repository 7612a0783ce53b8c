package stream

import (
	"bytes"
	"testing"
	"time"

	"github.com/pion/rtp"
)

func TestPacketizer_SplitsAndMarks(t *testing.T) {
	pk := NewPacketizer(100) // 88 payload bytes per packet
	frame := make([]byte, 250)
	for i := range frame {
		frame[i] = byte(i)
	}

	packets := pk.Packetize(frame, time.Unix(100, 0))
	if len(packets) != 3 {
		t.Fatalf("packets: got %d, want 3", len(packets))
	}

	for i, pkt := range packets {
		if pkt.PayloadType != PayloadType {
			t.Errorf("packet %d payload type: got %d", i, pkt.PayloadType)
		}
		if pkt.Timestamp != packets[0].Timestamp {
			t.Errorf("packet %d timestamp differs within frame", i)
		}
		if pkt.SSRC != pk.SSRC() {
			t.Errorf("packet %d ssrc: got %d, want %d", i, pkt.SSRC, pk.SSRC())
		}
		wantMarker := i == len(packets)-1
		if pkt.Marker != wantMarker {
			t.Errorf("packet %d marker: got %v, want %v", i, pkt.Marker, wantMarker)
		}
	}

	for i := 1; i < len(packets); i++ {
		if packets[i].SequenceNumber != packets[i-1].SequenceNumber+1 {
			t.Errorf("sequence gap between packets %d and %d", i-1, i)
		}
	}
}

func TestPacketizer_TimestampAdvances(t *testing.T) {
	pk := NewPacketizer(DefaultMTU)
	a := pk.Packetize([]byte{1}, time.Unix(10, 0))
	b := pk.Packetize([]byte{2}, time.Unix(11, 0))
	if b[0].Timestamp-a[0].Timestamp != ClockRate {
		t.Errorf("one second should advance the clock by %d, got %d",
			ClockRate, b[0].Timestamp-a[0].Timestamp)
	}
}

func TestReassembler_RoundTrip(t *testing.T) {
	pk := NewPacketizer(100)
	var re Reassembler

	for n := 0; n < 3; n++ {
		frame := bytes.Repeat([]byte{byte(n + 1)}, 300)
		packets := pk.Packetize(frame, time.Unix(int64(n), 0))

		var got []byte
		var complete bool
		for _, pkt := range packets {
			// Marshal/Unmarshal to exercise the wire form.
			raw, err := pkt.Marshal()
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var decoded rtp.Packet
			if err := decoded.Unmarshal(raw); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, complete = re.Push(&decoded)
		}
		if !complete {
			t.Fatalf("frame %d not complete after final packet", n)
		}
		if !bytes.Equal(got, frame) {
			t.Fatalf("frame %d corrupted in round trip", n)
		}
	}
}

func TestReassembler_DropsFrameWithGap(t *testing.T) {
	pk := NewPacketizer(100)
	var re Reassembler

	packets := pk.Packetize(make([]byte, 300), time.Unix(0, 0))
	if len(packets) < 3 {
		t.Fatalf("need at least 3 packets, got %d", len(packets))
	}

	// Lose the middle packet.
	if _, ok := re.Push(packets[0]); ok {
		t.Fatal("incomplete frame reported complete")
	}
	if frame, ok := re.Push(packets[2]); ok || frame != nil {
		t.Fatal("damaged frame emitted")
	}

	// The next intact frame comes through.
	next := bytes.Repeat([]byte{7}, 150)
	var got []byte
	var complete bool
	for _, pkt := range pk.Packetize(next, time.Unix(1, 0)) {
		got, complete = re.Push(pkt)
	}
	if !complete || !bytes.Equal(got, next) {
		t.Error("reassembly did not recover after a lost packet")
	}
}
