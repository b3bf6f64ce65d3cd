package h264

import "testing"

func TestParsePPSBasic(t *testing.T) {
	spsRBSP := DecodeRBSP([]byte{0x64, 0x00, 0x0A, 0xAC, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00, 0x00, 0xCA, 0x3C, 0x48, 0x96, 0x11, 0x80})
	sps, err := ParseSPS(spsRBSP)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	store := NewStore()
	store.PutSPS(sps)

	ppsRBSP := DecodeRBSP([]byte{0xE8, 0x43, 0x8F, 0x13, 0x21, 0x30})
	pps, err := ParsePPS(ppsRBSP, store)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if pps.PicParameterSetID != 0 {
		t.Fatalf("PicParameterSetID = %d, want 0", pps.PicParameterSetID)
	}
	if pps.SeqParameterSetID != 0 {
		t.Fatalf("SeqParameterSetID = %d, want 0", pps.SeqParameterSetID)
	}
}

func TestParsePPSUnresolvedSPS(t *testing.T) {
	store := NewStore()
	ppsRBSP := DecodeRBSP([]byte{0xE8, 0x43, 0x8F, 0x13, 0x21, 0x30})
	_, err := ParsePPS(ppsRBSP, store)
	if err == nil {
		t.Fatalf("expected unresolved reference error")
	}
}

func TestParsePPSIDGreaterThan32(t *testing.T) {
	// test SPS/PPS values courtesy of the original h264-reader test suite,
	// exercising a PPS id that exceeds the 32 some earlier parsers wrongly
	// capped it at (the field is ue(v) with no upper bound besides 255).
	spsRBSP := DecodeRBSP([]byte{0x42, 0xc0, 0x16, 0x43, 0x23, 0x50, 0x10, 0x02, 0x0b, 0x3c, 0xf0, 0x0f, 0x08, 0x84, 0x6a})
	sps, err := ParseSPS(spsRBSP)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	store := NewStore()
	store.PutSPS(sps)

	ppsRBSP := DecodeRBSP([]byte{0x04, 0x48, 0xe3, 0xc8})
	pps, err := ParsePPS(ppsRBSP, store)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if pps.PicParameterSetID != 33 {
		t.Fatalf("PicParameterSetID = %d, want 33", pps.PicParameterSetID)
	}
}

func TestParsePPSTransform8x8WithScalingMatrix(t *testing.T) {
	// The SPS bytes are already RBSP and are parsed as given; the
	// 0x00 0x00 0x03 0xe9 run in them is data, not an emulation-prevention
	// escape.
	spsRBSP := []byte{
		0x64, 0x00, 0x29, 0xac, 0x1b, 0x1a, 0x50, 0x1e, 0x00, 0x89, 0xf9, 0x70, 0x11, 0x00, 0x00, 0x03,
		0xe9, 0x00, 0x00, 0xbb, 0x80, 0xe2, 0x60, 0x00, 0x04, 0xc3, 0x7a, 0x00, 0x00, 0x72, 0x70, 0xe8,
		0xc4, 0xb8, 0xc4, 0xc0, 0x00, 0x09, 0x86, 0xf4, 0x00, 0x00, 0xe4, 0xe1, 0xd1, 0x89, 0x70, 0xf8,
		0xe1, 0x85, 0x2c,
	}
	sps, err := ParseSPS(spsRBSP)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	store := NewStore()
	store.PutSPS(sps)

	ppsRBSP := DecodeRBSP([]byte{
		0xea, 0x8d, 0xce, 0x50, 0x94, 0x8d, 0x18, 0xb2, 0x5a, 0x55, 0x28, 0x4a, 0x46, 0x8c, 0x59, 0x2d,
		0x2a, 0x50, 0xc9, 0x1a, 0x31, 0x64, 0xb4, 0xaa, 0x85, 0x48, 0xd2, 0x75, 0xd5, 0x25, 0x1d, 0x23,
		0x49, 0xd2, 0x7a, 0x23, 0x74, 0x93, 0x7a, 0x49, 0xbe, 0x95, 0xda, 0xad, 0xd5, 0x3d, 0x7a, 0x6b,
		0x54, 0x22, 0x9a, 0x4e, 0x93, 0xd6, 0xea, 0x9f, 0xa4, 0xee, 0xaa, 0xfd, 0x6e, 0xbf, 0xf5, 0xf7,
	})
	pps, err := ParsePPS(ppsRBSP, store)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if pps.Extension == nil || !pps.Extension.Transform8x8ModeFlag || pps.Extension.PicScalingMatrix == nil {
		t.Fatalf("got %+v, want transform_8x8_mode_flag=true with a scaling matrix", pps.Extension)
	}
}
