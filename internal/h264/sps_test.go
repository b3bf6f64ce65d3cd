package h264

import "testing"

// fixtureSPSRBSP is the RBSP body (header byte already stripped, emulation
// prevention already removed by DecodeRBSP) of a real encoder's SPS: High
// profile, level 1.0, 64x64 luma samples, VUI present with timing info.
func fixtureSPSRBSP() []byte {
	nal := []byte{0x64, 0x00, 0x0A, 0xAC, 0x72, 0x84, 0x44, 0x26, 0x84, 0x00, 0x00,
		0x00, 0x04, 0x00, 0x00, 0x00, 0xCA, 0x3C, 0x48, 0x96, 0x11, 0x80}
	return DecodeRBSP(nal)
}

func TestParseSPSFields(t *testing.T) {
	sps, err := ParseSPS(fixtureSPSRBSP())
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	if sps.ProfileIDC != 100 {
		t.Fatalf("ProfileIDC = %d, want 100", sps.ProfileIDC)
	}
	if got := sps.Profile(); got != ProfileHigh {
		t.Fatalf("Profile() = %v, want ProfileHigh", got)
	}
	if sps.LevelIDC != 10 {
		t.Fatalf("LevelIDC = %d, want 10", sps.LevelIDC)
	}
	if got := sps.Level(); got != Level1 {
		t.Fatalf("Level() = %v, want Level1", got)
	}
	if sps.SeqParameterSetID != 0 {
		t.Fatalf("SeqParameterSetID = %d, want 0", sps.SeqParameterSetID)
	}
	if sps.ChromaInfo.ChromaFormat != ChromaYUV420 {
		t.Fatalf("ChromaFormat = %v, want YUV420", sps.ChromaInfo.ChromaFormat)
	}
}

func TestParseSPSDimensions(t *testing.T) {
	sps, err := ParseSPS(fixtureSPSRBSP())
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	w, h, err := sps.PixelDimensions()
	if err != nil {
		t.Fatalf("PixelDimensions: %v", err)
	}
	if w == 0 || h == 0 {
		t.Fatalf("PixelDimensions = (%d, %d), want nonzero", w, h)
	}
}

func TestLevelLimits(t *testing.T) {
	lim, ok := Level3.Limits()
	if !ok {
		t.Fatalf("Level3.Limits() missing")
	}
	if lim.MaxDPBMBs != 8100 || lim.MaxMVsPer2MB != 32 {
		t.Fatalf("Level3 limits = %+v, unexpected", lim)
	}
	if _, ok := LevelUnknown.Limits(); ok {
		t.Fatalf("LevelUnknown should have no limits")
	}
}

func TestProfileFromIDCDisambiguatesOnConstraintFlags(t *testing.T) {
	baseline := ProfileFromIDC(66, ConstraintFlags{raw: 0})
	if baseline != ProfileBaseline {
		t.Fatalf("got %v, want ProfileBaseline", baseline)
	}
	constrained := ProfileFromIDC(66, ConstraintFlags{raw: 0x40})
	if constrained != ProfileConstrainedBaseline {
		t.Fatalf("got %v, want ProfileConstrainedBaseline", constrained)
	}
}

func TestLevelFromIDCDisambiguatesLevel11(t *testing.T) {
	if got := LevelFromIDC(ConstraintFlags{raw: 0}, 11); got != Level1_1 {
		t.Fatalf("got %v, want Level1_1", got)
	}
	if got := LevelFromIDC(ConstraintFlags{raw: 0x10}, 11); got != Level1b {
		t.Fatalf("got %v, want Level1b", got)
	}
}

func TestReadScalingListExplicit(t *testing.T) {
	// Four delta_scale se(v) codes "1", each decoding to 0: next_scale stays
	// at 8 for every entry, so it never lands on 0 at j==0 (UseDefault) and
	// the list is explicit with four values of 8.
	r := NewBitReader([]byte{0b1111_0000})
	sl, err := readScalingList(r, 4, true)
	if err != nil {
		t.Fatalf("readScalingList: %v", err)
	}
	if sl.Presence != ScalingExplicit || len(sl.Values) != 4 {
		t.Fatalf("got %+v, want explicit 4-entry list", sl)
	}
}

func TestBitstreamRestrictionsRejectsReorderExceedingBuffering(t *testing.T) {
	sps := &SPS{MaxNumRefFrames: 0}
	// bitstream_restriction_flag=1, motion_vectors_over_pic_boundaries_flag=1,
	// max_bytes_per_pic_denom=ue(0), max_bits_per_mb_denom=ue(0),
	// log2_max_mv_length_horizontal=ue(0), log2_max_mv_length_vertical=ue(0),
	// max_num_reorder_frames=ue(1), max_dec_frame_buffering=ue(0)
	// ue(0) = "1", ue(1) = "010"
	r := NewBitReader([]byte{0b1111_1101, 0b0100_0000})
	_, err := readBitstreamRestrictions(r, sps)
	if err == nil {
		t.Fatalf("expected error when max_num_reorder_frames > max_dec_frame_buffering")
	}
}
