package h264

import "bytes"

import "testing"

func TestDecodeRBSPStripsEmulationPrevention(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"no emulation bytes", []byte{0x12, 0x34, 0x56}, []byte{0x12, 0x34, 0x56}},
		{"single strip", []byte{0x00, 0x00, 0x03, 0x01}, []byte{0x00, 0x00, 0x01}},
		{"trailing strip", []byte{0x00, 0x00, 0x03, 0x00}, []byte{0x00, 0x00, 0x00}},
		{"example from nal header doc", []byte{0x12, 0x34, 0x00, 0x00, 0x03, 0x00, 0x86}, []byte{0x12, 0x34, 0x00, 0x00, 0x00, 0x86}},
		{"not a real escape", []byte{0x00, 0x00, 0x01}, []byte{0x00, 0x00, 0x01}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DecodeRBSP(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("DecodeRBSP(%x) = %x, want %x", tt.in, got, tt.want)
			}
		})
	}
}

func TestRBSPReaderAcrossSplitChunks(t *testing.T) {
	// 0x00 0x00 0x03 0x01 split right in the middle of the zero run must
	// strip identically to the unsplit case.
	whole := DecodeRBSP([]byte{0x00, 0x00, 0x03, 0x01})

	r := NewRBSPReader()
	var out []byte
	out = r.Filter(out, []byte{0x00, 0x00})
	out = r.Filter(out, []byte{0x03, 0x01})

	if !bytes.Equal(out, whole) {
		t.Fatalf("split filter = %x, want %x", out, whole)
	}
}
