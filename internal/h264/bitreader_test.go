package h264

import (
	"errors"
	"testing"
)

func TestBitReaderReadBits(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		n    uint
		want uint32
	}{
		{"single byte nibble", []byte{0b1010_0000}, 4, 0b1010},
		{"cross byte boundary", []byte{0b0000_0001, 0b1000_0000}, 9, 0b0_0000_0011},
		{"full word", []byte{0xDE, 0xAD, 0xBE, 0xEF}, 32, 0xDEADBEEF},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewBitReader(tt.data)
			got, err := r.ReadBits(tt.n, "field")
			if err != nil {
				t.Fatalf("ReadBits: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ReadBits = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestBitReaderReadUE(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"zero", []byte{0b1000_0000}, 0},
		{"one", []byte{0b0100_0000}, 1},
		{"two", []byte{0b0110_0000}, 2},
		{"six", []byte{0b0011_1000}, 6},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewBitReader(tt.data)
			got, err := r.ReadUE("ue_field")
			if err != nil {
				t.Fatalf("ReadUE: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ReadUE = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBitReaderReadSE(t *testing.T) {
	// ue values 0,1,2,3,4 map to se values 0,1,-1,2,-2.
	tests := []struct {
		ue   []byte
		want int32
	}{
		{[]byte{0b1000_0000}, 0},
		{[]byte{0b0100_0000}, 1},
		{[]byte{0b0110_0000}, -1},
		{[]byte{0b0010_0000}, 2},
		{[]byte{0b0010_1000}, -2},
	}
	for _, tt := range tests {
		r := NewBitReader(tt.ue)
		got, err := r.ReadSE("se_field")
		if err != nil {
			t.Fatalf("ReadSE: %v", err)
		}
		if got != tt.want {
			t.Fatalf("ReadSE = %d, want %d", got, tt.want)
		}
	}
}

func TestBitReaderWouldBlockVsTruncated(t *testing.T) {
	t.Run("incomplete buffer blocks", func(t *testing.T) {
		r := NewIncompleteBitReader([]byte{0xFF})
		if _, err := r.ReadBits(8, "a"); err != nil {
			t.Fatalf("first read: %v", err)
		}
		if _, err := r.ReadBits(1, "b"); !errors.Is(err, ErrWouldBlock) {
			t.Fatalf("got %v, want ErrWouldBlock", err)
		}
	})
	t.Run("complete buffer truncates", func(t *testing.T) {
		r := NewBitReader([]byte{0xFF})
		if _, err := r.ReadBits(8, "a"); err != nil {
			t.Fatalf("first read: %v", err)
		}
		if _, err := r.ReadBits(1, "b"); !errors.Is(err, ErrTruncated) {
			t.Fatalf("got %v, want ErrTruncated", err)
		}
	})
}

func TestBitReaderHasMoreRBSPData(t *testing.T) {
	// 0xA8 = 1010_1000: after reading the first 4 bits (1010), the
	// remaining bits 1000 are the stop bit at position 4 followed only by
	// zero padding, so more_rbsp_data is false there.
	r := NewBitReader([]byte{0b1010_1000})
	if _, err := r.ReadBits(4, "first"); err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	more, err := r.HasMoreRBSPData("check")
	if err != nil {
		t.Fatalf("HasMoreRBSPData: %v", err)
	}
	if more {
		t.Fatalf("HasMoreRBSPData = true, want false at stop bit")
	}
	if err := r.FinishRBSP(); err != nil {
		t.Fatalf("FinishRBSP: %v", err)
	}
}

func TestBitReaderFinishSEIPayloadByteAligned(t *testing.T) {
	r := NewBitReader([]byte{0xFF})
	if _, err := r.ReadBits(8, "all"); err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	if err := r.FinishSEIPayload(); err != nil {
		t.Fatalf("FinishSEIPayload: %v", err)
	}
}
