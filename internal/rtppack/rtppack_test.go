package rtppack

import (
	"bytes"
	"testing"

	"github.com/pion/rtp"
)

func flatten(nalus [][]byte) [][]byte {
	var out [][]byte
	for _, n := range nalus {
		out = append(out, append([]byte(nil), n...))
	}
	return out
}

func roundTrip(t *testing.T, packets []*rtp.Packet) [][]byte {
	t.Helper()
	d := NewDepacketizer()
	var got [][]byte
	for _, pkt := range packets {
		nalus, err := d.Push(pkt)
		if err != nil {
			t.Fatalf("Push: %v", err)
		}
		got = append(got, nalus...)
	}
	return got
}

func TestPacketizeSmallSliceSingleNAL(t *testing.T) {
	t.Parallel()

	slice := append([]byte{0x41}, bytes.Repeat([]byte{0xAB}, 50)...)
	p := NewPacketizer(96, 0xCAFE, DefaultMTU)

	packets, err := p.Packetize([][]byte{slice}, 1000)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("got %d packets, want 1", len(packets))
	}
	if !packets[0].Marker {
		t.Fatal("marker bit not set on only packet of access unit")
	}
	if !bytes.Equal(packets[0].Payload, slice) {
		t.Fatal("single NAL packet payload does not match source NAL")
	}

	got := roundTrip(t, packets)
	if len(got) != 1 || !bytes.Equal(got[0], slice) {
		t.Fatalf("round trip mismatch: got %v, want [%v]", got, slice)
	}
}

func TestPacketizeFragmentsLargeNAL(t *testing.T) {
	t.Parallel()

	large := append([]byte{0x65}, bytes.Repeat([]byte{0x11, 0x22, 0x33, 0x44}, 1000)...)
	p := NewPacketizer(96, 1, 200)

	packets, err := p.Packetize([][]byte{large}, 42)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	if len(packets) < 2 {
		t.Fatalf("got %d packets, want multiple FU-A fragments", len(packets))
	}
	for i, pkt := range packets {
		wantMarker := i == len(packets)-1
		if pkt.Marker != wantMarker {
			t.Fatalf("packet %d marker = %v, want %v", i, pkt.Marker, wantMarker)
		}
	}

	got := roundTrip(t, packets)
	if len(got) != 1 || !bytes.Equal(got[0], large) {
		t.Fatal("fragmented round trip did not reproduce the original NAL")
	}
}

func TestPacketizeAggregatesSPSPPS(t *testing.T) {
	t.Parallel()

	sps := []byte{0x67, 0x01, 0x02, 0x03}
	pps := []byte{0x68, 0x04, 0x05}
	idr := append([]byte{0x65}, bytes.Repeat([]byte{0xFF}, 20)...)

	p := NewPacketizer(96, 7, DefaultMTU)
	packets, err := p.Packetize([][]byte{sps, pps, idr}, 99)
	if err != nil {
		t.Fatalf("Packetize: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 1 STAP-A + 1 single NAL", len(packets))
	}
	if packets[0].Payload[0]&0x1F != typeSTAPA {
		t.Fatalf("first packet type = %d, want STAP-A (%d)", packets[0].Payload[0]&0x1F, typeSTAPA)
	}

	got := roundTrip(t, packets)
	want := flatten([][]byte{sps, pps, idr})
	if len(got) != len(want) {
		t.Fatalf("got %d NALUs, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("NALU %d mismatch: got % x, want % x", i, got[i], want[i])
		}
	}
}

func TestDepacketizerRejectsOrphanFUAContinuation(t *testing.T) {
	t.Parallel()

	d := NewDepacketizer()
	pkt := &rtp.Packet{Payload: []byte{typeFUA | (1 << 5), 0x05, 0xAA}}
	if _, err := d.Push(pkt); err == nil {
		t.Fatal("expected error for FU-A continuation with no start fragment")
	}
}
