package h264

import "testing"

func TestMirrorSplitAnnexBAndHeader(t *testing.T) {
	stream := []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0xAA, 0xBB, 0x00, 0x00, 0x01, 0x68, 0xCC}
	nals := SplitAnnexB(stream)
	if len(nals) != 2 {
		t.Fatalf("got %d NALs, want 2", len(nals))
	}

	hdr, err := NewHeader(nals[0][0])
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	if hdr.UnitType() != UnitTypeSPS {
		t.Fatalf("got unit type %v, want SPS", hdr.UnitType())
	}
}

// fixtureSPSNAL is the NAL body (header byte stripped) of a real encoder's
// SPS: High profile, level 1.0, 64x64 luma samples, VUI present with timing
// info. It holds no emulation-prevention bytes, so DecodeRBSP returns it
// unchanged. Mirrors internal/h264's own sps_test.go fixture.
func fixtureSPSNAL() []byte {
	return []byte{0x64, 0x00, 0x0A, 0xAC, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00, 0x00, 0xCA, 0x3C, 0x48, 0x96, 0x11, 0x80}
}

func TestMirrorParseSPSRoundTrip(t *testing.T) {
	rbsp := DecodeRBSP(fixtureSPSNAL())
	sps, err := ParseSPS(rbsp)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	out := WriteSPS(sps)
	reparsed, err := ParseSPS(out)
	if err != nil {
		t.Fatalf("ParseSPS(WriteSPS(sps)): %v", err)
	}
	if reparsed.ProfileIDC != sps.ProfileIDC || reparsed.LevelIDC != sps.LevelIDC {
		t.Fatalf("round trip mismatch: got %+v, want %+v", reparsed, sps)
	}
}

func TestMirrorNewStore(t *testing.T) {
	store := NewStore()
	if store == nil {
		t.Fatal("NewStore returned nil")
	}
}
