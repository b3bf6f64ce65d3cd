package h264

import (
	"bytes"
	"testing"
)

func sameSPS(a, b *SPS) bool {
	if a.ProfileIDC != b.ProfileIDC || a.ConstraintFlags.Byte() != b.ConstraintFlags.Byte() ||
		a.LevelIDC != b.LevelIDC || a.SeqParameterSetID != b.SeqParameterSetID {
		return false
	}
	if a.ChromaInfo.ChromaFormat != b.ChromaInfo.ChromaFormat ||
		a.ChromaInfo.BitDepthLumaMinus8 != b.ChromaInfo.BitDepthLumaMinus8 ||
		a.ChromaInfo.BitDepthChromaMinus8 != b.ChromaInfo.BitDepthChromaMinus8 {
		return false
	}
	if a.Log2MaxFrameNumMinus4 != b.Log2MaxFrameNumMinus4 || a.PicOrderCnt.Type != b.PicOrderCnt.Type {
		return false
	}
	if a.MaxNumRefFrames != b.MaxNumRefFrames || a.PicWidthInMbsMinus1 != b.PicWidthInMbsMinus1 ||
		a.PicHeightInMapUnitsMinus1 != b.PicHeightInMapUnitsMinus1 {
		return false
	}
	if a.FrameMbsFlags != b.FrameMbsFlags || a.Direct8x8InferenceFlag != b.Direct8x8InferenceFlag {
		return false
	}
	if (a.VUIParameters == nil) != (b.VUIParameters == nil) {
		return false
	}
	if a.VUIParameters != nil {
		afps, aok := a.FPS()
		bfps, bok := b.FPS()
		if aok != bok || afps != bfps {
			return false
		}
	}
	return true
}

func TestWriteSPSRoundTripBytes(t *testing.T) {
	rbsp := fixtureSPSRBSP()
	sps, err := ParseSPS(rbsp)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	out := WriteSPS(sps)
	if !bytes.Equal(out, rbsp) {
		t.Fatalf("WriteSPS round-trip mismatch:\n got  % x\n want % x", out, rbsp)
	}
}

func TestWriteSPSRoundTripFields(t *testing.T) {
	rbsp := fixtureSPSRBSP()
	sps, err := ParseSPS(rbsp)
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	out := WriteSPS(sps)
	reparsed, err := ParseSPS(out)
	if err != nil {
		t.Fatalf("ParseSPS(WriteSPS(sps)): %v", err)
	}
	if !sameSPS(sps, reparsed) {
		t.Fatalf("round-tripped SPS differs:\n got  %+v\n want %+v", reparsed, sps)
	}
}

func TestWriteSPSNoVUI(t *testing.T) {
	sps := &SPS{
		ProfileIDC:                66,
		ConstraintFlags:           ConstraintFlags{raw: 0xC0},
		LevelIDC:                  30,
		SeqParameterSetID:         0,
		ChromaInfo:                ChromaInfo{ChromaFormat: ChromaYUV420},
		Log2MaxFrameNumMinus4:     2,
		PicOrderCnt:               PicOrderCntType{Type: 2},
		MaxNumRefFrames:           4,
		PicWidthInMbsMinus1:       19,
		PicHeightInMapUnitsMinus1: 14,
		Direct8x8InferenceFlag:    true,
	}
	out := WriteSPS(sps)
	reparsed, err := ParseSPS(out)
	if err != nil {
		t.Fatalf("ParseSPS(WriteSPS(sps)): %v", err)
	}
	if !sameSPS(sps, reparsed) {
		t.Fatalf("round-tripped SPS differs:\n got  %+v\n want %+v", reparsed, sps)
	}
}

func TestWriteSPSWithFrameCroppingAndPicOrderCntType1(t *testing.T) {
	sps := &SPS{
		ProfileIDC:        100,
		ConstraintFlags:   ConstraintFlags{raw: 0},
		LevelIDC:          31,
		SeqParameterSetID: 1,
		ChromaInfo: ChromaInfo{
			ChromaFormat:         ChromaYUV420,
			BitDepthLumaMinus8:   0,
			BitDepthChromaMinus8: 0,
		},
		Log2MaxFrameNumMinus4: 0,
		PicOrderCnt: PicOrderCntType{
			Type:                        1,
			DeltaPicOrderAlwaysZeroFlag: false,
			OffsetForNonRefPic:          -1,
			OffsetForTopToBottomField:   1,
			OffsetsForRefFrame:          []int32{2, -2},
		},
		MaxNumRefFrames:           2,
		PicWidthInMbsMinus1:       79,
		PicHeightInMapUnitsMinus1: 44,
		Direct8x8InferenceFlag:    true,
		FrameCropping: &FrameCropping{
			LeftOffset: 0, RightOffset: 0, TopOffset: 0, BottomOffset: 4,
		},
	}
	out := WriteSPS(sps)
	reparsed, err := ParseSPS(out)
	if err != nil {
		t.Fatalf("ParseSPS(WriteSPS(sps)): %v", err)
	}
	if reparsed.PicOrderCnt.Type != 1 ||
		reparsed.PicOrderCnt.OffsetForNonRefPic != -1 ||
		reparsed.PicOrderCnt.OffsetForTopToBottomField != 1 ||
		len(reparsed.PicOrderCnt.OffsetsForRefFrame) != 2 ||
		reparsed.PicOrderCnt.OffsetsForRefFrame[0] != 2 ||
		reparsed.PicOrderCnt.OffsetsForRefFrame[1] != -2 {
		t.Fatalf("pic_order_cnt_type 1 fields mismatch: %+v", reparsed.PicOrderCnt)
	}
	if reparsed.FrameCropping == nil || reparsed.FrameCropping.BottomOffset != 4 {
		t.Fatalf("frame_cropping mismatch: %+v", reparsed.FrameCropping)
	}
}
