package h264

import (
	"bytes"
	"testing"
)

func TestAccumulatorBuffersEverything(t *testing.T) {
	var nals [][]byte
	handler := AccumulatedNALHandlerFunc(func(nal NAL) Interest {
		if nal.IsComplete() {
			buf := make([]byte, len(nal.Bytes()))
			copy(buf, nal.Bytes())
			nals = append(nals, buf)
		}
		return InterestBuffer
	})
	acc := NewAccumulator(handler)
	acc.NALFragment(nil, false)
	acc.NALFragment(nil, true)
	acc.NALFragment([][]byte{{0b0101_0001}, {1}}, true)
	acc.NALFragment([][]byte{{0b0101_0001}}, false)
	acc.NALFragment(nil, false)
	acc.NALFragment([][]byte{{2}}, true)
	acc.NALFragment([][]byte{{0b0101_0001}}, false)
	acc.NALFragment(nil, false)
	acc.NALFragment([][]byte{{3}}, false)
	acc.NALFragment(nil, true)

	want := [][]byte{
		{0b0101_0001, 1},
		{0b0101_0001, 2},
		{0b0101_0001, 3},
	}
	if len(nals) != len(want) {
		t.Fatalf("got %d nals, want %d", len(nals), len(want))
	}
	for i := range want {
		if !bytes.Equal(nals[i], want[i]) {
			t.Fatalf("nal %d = %x, want %x", i, nals[i], want[i])
		}
	}
}

func TestAccumulatorIgnoreStopsBuffering(t *testing.T) {
	var seen [][]byte
	handler := AccumulatedNALHandlerFunc(func(nal NAL) Interest {
		buf := make([]byte, len(nal.Bytes()))
		copy(buf, nal.Bytes())
		seen = append(seen, buf)
		return InterestIgnore
	})
	acc := NewAccumulator(handler)
	acc.NALFragment(nil, false)
	acc.NALFragment(nil, true)
	acc.NALFragment([][]byte{{0b0101_0001, 1}}, true)
	acc.NALFragment([][]byte{{0b0101_0001}}, false)
	acc.NALFragment(nil, false)
	acc.NALFragment([][]byte{{2}}, true)

	want := [][]byte{
		{0b0101_0001, 1},
		{0b0101_0001},
	}
	if len(seen) != len(want) {
		t.Fatalf("got %d calls, want %d", len(seen), len(want))
	}
	for i := range want {
		if !bytes.Equal(seen[i], want[i]) {
			t.Fatalf("call %d = %x, want %x", i, seen[i], want[i])
		}
	}
}

func TestAccumulatorEndToEndThroughFramer(t *testing.T) {
	var types []UnitType
	var completes []bool
	acc := NewAccumulator(AccumulatedNALHandlerFunc(func(nal NAL) Interest {
		h, err := nal.Header()
		if err != nil {
			t.Fatalf("Header: %v", err)
		}
		types = append(types, h.UnitType())
		completes = append(completes, nal.IsComplete())
		if h.UnitType() == UnitTypeSPS {
			return InterestBuffer
		}
		return InterestIgnore
	}))
	framer := NewAnnexBFramer(acc, nil)
	framer.Push([]byte{0, 0})
	framer.Push([]byte{0x01, 0x67, 0x64, 0x00, 0x0A, 0xAC, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00})
	framer.Push([]byte{0x03, 0x00, 0x04, 0x00, 0x00, 0x03, 0x00, 0xCA, 0x3C, 0x48, 0x96, 0x11, 0x80, 0x00, 0x00, 0x01})
	framer.Push([]byte{0x68})
	framer.Push([]byte{0xE8, 0x43, 0x8F, 0x13, 0x21, 0x30})
	framer.Reset()

	wantTypes := []UnitType{UnitTypeSPS, UnitTypeSPS, UnitTypePPS}
	wantComplete := []bool{false, true, false}
	if len(types) != len(wantTypes) {
		t.Fatalf("got %d callbacks, want %d: %v", len(types), len(wantTypes), types)
	}
	for i := range wantTypes {
		if types[i] != wantTypes[i] || completes[i] != wantComplete[i] {
			t.Fatalf("callback %d = (%v,%v), want (%v,%v)", i, types[i], completes[i], wantTypes[i], wantComplete[i])
		}
	}
}
