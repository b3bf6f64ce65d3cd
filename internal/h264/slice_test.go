package h264

import "testing"

// Example from fuzz testing of the original reference parser: a slice
// header whose num_ref_idx_l0_active_minus1 exceeds 31.
func TestParseSliceHeaderInvalidNumRefIdx(t *testing.T) {
	store := NewStore()
	// The SPS and PPS vectors are whole NAL units; their header byte is
	// skipped as it is for the slice below.
	spsRBSP := DecodeRBSP([]byte{0x27, 0xd2, 0xd2, 0xd6, 0xd2, 0x27, 0x50, 0xaa, 0x27, 0x01, 0x56, 0x56, 0x08, 0x41, 0xc5}[1:])
	sps, err := ParseSPS(spsRBSP)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	store.PutSPS(sps)

	ppsRBSP := DecodeRBSP([]byte{0x28, 0xc5, 0x56, 0x6a, 0x08, 0x41, 0x00, 0xfd}[1:])
	pps, err := ParsePPS(ppsRBSP, store)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	store.PutPPS(pps)

	nalBytes := []byte{0x41, 0x3f, 0x3f, 0x00, 0x00, 0x03, 0x00, 0x03, 0xed, 0x60, 0xbb, 0xbb, 0xbb}
	header, err := NewHeader(nalBytes[0])
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	rbsp := DecodeRBSP(nalBytes[1:])

	_, _, _, err = ParseSliceHeader(rbsp, header, store)
	if err == nil {
		t.Fatalf("expected InvalidNumRefIdx error")
	}
}

func TestParseSliceHeaderUnresolvedPPS(t *testing.T) {
	store := NewStore()
	header, err := NewHeader(0x41)
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	_, _, _, err = ParseSliceHeader([]byte{0x80}, header, store)
	if err == nil {
		t.Fatalf("expected unresolved pic_parameter_set_id error")
	}
}

func TestSliceTypeFromID(t *testing.T) {
	st, err := sliceTypeFromID(7)
	if err != nil {
		t.Fatalf("sliceTypeFromID: %v", err)
	}
	if st.Family != SliceFamilyI || !st.Exclusive {
		t.Fatalf("got %+v, want exclusive I", st)
	}
	if _, err := sliceTypeFromID(10); err == nil {
		t.Fatalf("expected error for slice_type 10")
	}
}
