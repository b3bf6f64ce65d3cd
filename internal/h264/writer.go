package h264

// WriteSPS re-encodes a parsed SPS back into RBSP bytes (component M),
// mirroring the field order of [ReadSeqParameterSetData]/[ParseSPS]. It is
// the inverse used to validate that parsing and re-emission round-trip: for
// an SPS whose source RBSP carried no trailing zero padding beyond
// rbsp_trailing_bits, WriteSPS(ParseSPS(rbsp)) reproduces rbsp exactly,
// except for an explicit scaling list that the source ended early by
// driving next_scale to 0 after its first entry: WriteSPS codes every
// entry of such a list with its own delta_scale, so those bytes differ
// while the list parses back to the same values.
//
// It does not attempt to re-derive values the parser never retains (e.g.
// the original emulation-prevention byte placement); callers comparing
// round-trip output must compare RBSP bytes, not NAL bytes.
func WriteSPS(sps *SPS) []byte {
	w := NewBitWriter()
	w.WriteBits(8, uint32(sps.ProfileIDC))
	w.WriteBits(8, uint32(sps.ConstraintFlags.Byte()))
	w.WriteBits(8, uint32(sps.LevelIDC))
	w.WriteUE(uint32(sps.SeqParameterSetID))
	writeChromaInfo(w, sps.ProfileIDC, sps.ChromaInfo)
	w.WriteUE(uint32(sps.Log2MaxFrameNumMinus4))
	writePicOrderCntType(w, sps.PicOrderCnt)
	w.WriteUE(sps.MaxNumRefFrames)
	w.WriteBool(sps.GapsInFrameNumValueAllowedFlag)
	w.WriteUE(sps.PicWidthInMbsMinus1)
	w.WriteUE(sps.PicHeightInMapUnitsMinus1)
	writeFrameMbsFlags(w, sps.FrameMbsFlags)
	w.WriteBool(sps.Direct8x8InferenceFlag)
	writeFrameCropping(w, sps.FrameCropping)
	writeVUIParameters(w, sps.VUIParameters)
	w.FinishRBSP()
	return w.Bytes()
}

func writeChromaInfo(w *BitWriter, profileIDC uint8, c ChromaInfo) {
	if !profileIDCHasChromaInfo(profileIDC) {
		return
	}
	chromaFormatIDC := uint32(c.ChromaFormat)
	w.WriteUE(chromaFormatIDC)
	if chromaFormatIDC == 3 {
		w.WriteBool(c.SeparateColourPlaneFlag)
	}
	w.WriteUE(uint32(c.BitDepthLumaMinus8))
	w.WriteUE(uint32(c.BitDepthChromaMinus8))
	w.WriteBool(c.QpprimeYZeroTransformBypassFlag)
	w.WriteBool(c.ScalingMatrix != nil)
	if c.ScalingMatrix != nil {
		writeSeqScalingMatrix(w, *c.ScalingMatrix)
	}
}

func writeScalingList(w *BitWriter, sl ScalingList) {
	present := sl.Presence != ScalingNotPresent
	w.WriteBool(present)
	if !present {
		return
	}
	if sl.Presence == ScalingUseDefault {
		// A single delta_scale of -8 drives next_scale to 0 on the first
		// entry, the condition [readScalingList] recognizes as "use default".
		w.WriteSE(-8)
		return
	}
	lastScale := int32(8)
	for _, v := range sl.Values {
		delta := int32(v) - lastScale
		if delta > 127 {
			delta -= 256
		} else if delta < -128 {
			delta += 256
		}
		w.WriteSE(delta)
		lastScale = int32(v)
	}
}

func writeSeqScalingMatrix(w *BitWriter, m SeqScalingMatrix) {
	for _, sl := range m.List4x4 {
		writeScalingList(w, sl)
	}
	for _, sl := range m.List8x8 {
		writeScalingList(w, sl)
	}
}

func writePicOrderCntType(w *BitWriter, p PicOrderCntType) {
	w.WriteUE(uint32(p.Type))
	switch p.Type {
	case 0:
		w.WriteUE(uint32(p.Log2MaxPicOrderCntLsbMinus4))
	case 1:
		w.WriteBool(p.DeltaPicOrderAlwaysZeroFlag)
		w.WriteSE(p.OffsetForNonRefPic)
		w.WriteSE(p.OffsetForTopToBottomField)
		w.WriteUE(uint32(len(p.OffsetsForRefFrame)))
		for _, off := range p.OffsetsForRefFrame {
			w.WriteSE(off)
		}
	}
}

func writeFrameMbsFlags(w *BitWriter, f FrameMbsFlags) {
	w.WriteBool(!f.FieldsInUse)
	if f.FieldsInUse {
		w.WriteBool(f.MbAdaptiveFrameFieldFlag)
	}
}

func writeFrameCropping(w *BitWriter, c *FrameCropping) {
	w.WriteBool(c != nil)
	if c == nil {
		return
	}
	w.WriteUE(c.LeftOffset)
	w.WriteUE(c.RightOffset)
	w.WriteUE(c.TopOffset)
	w.WriteUE(c.BottomOffset)
}

func writeAspectRatioInfo(w *BitWriter, a *AspectRatioInfo) {
	w.WriteBool(a != nil)
	if a == nil {
		return
	}
	w.WriteBits(8, uint32(a.IDC))
	if a.IDC == 255 {
		w.WriteBits(16, uint32(a.ExtendedWidth))
		w.WriteBits(16, uint32(a.ExtendedHeight))
	}
}

func writeOverscanAppropriate(w *BitWriter, o OverscanAppropriate) {
	w.WriteBool(o != OverscanUnspecified)
	if o == OverscanUnspecified {
		return
	}
	w.WriteBool(o == OverscanAppropriateFlag)
}

func writeColourDescription(w *BitWriter, c *ColourDescription) {
	w.WriteBool(c != nil)
	if c == nil {
		return
	}
	w.WriteBits(8, uint32(c.ColourPrimaries))
	w.WriteBits(8, uint32(c.TransferCharacteristics))
	w.WriteBits(8, uint32(c.MatrixCoefficients))
}

func writeVideoSignalType(w *BitWriter, v *VideoSignalType) {
	w.WriteBool(v != nil)
	if v == nil {
		return
	}
	w.WriteBits(3, uint32(v.VideoFormat))
	w.WriteBool(v.VideoFullRangeFlag)
	writeColourDescription(w, v.ColourDescription)
}

func writeChromaLocInfo(w *BitWriter, c *ChromaLocInfo) {
	w.WriteBool(c != nil)
	if c == nil {
		return
	}
	w.WriteUE(c.ChromaSampleLocTypeTopField)
	w.WriteUE(c.ChromaSampleLocTypeBottomField)
}

func writeTimingInfo(w *BitWriter, t *TimingInfo) {
	w.WriteBool(t != nil)
	if t == nil {
		return
	}
	w.WriteBits(32, t.NumUnitsInTick)
	w.WriteBits(32, t.TimeScale)
	w.WriteBool(t.FixedFrameRateFlag)
}

func writeCpbSpec(w *BitWriter, c CpbSpec) {
	w.WriteUE(c.BitRateValueMinus1)
	w.WriteUE(c.CpbSizeValueMinus1)
	w.WriteBool(c.CbrFlag)
}

func writeHrdParameters(w *BitWriter, h *HrdParameters) {
	w.WriteBool(h != nil)
	if h == nil {
		return
	}
	w.WriteUE(uint32(len(h.CpbSpecs) - 1))
	w.WriteBits(4, uint32(h.BitRateScale))
	w.WriteBits(4, uint32(h.CpbSizeScale))
	for _, c := range h.CpbSpecs {
		writeCpbSpec(w, c)
	}
	w.WriteBits(5, uint32(h.InitialCpbRemovalDelayLengthMinus1))
	w.WriteBits(5, uint32(h.CpbRemovalDelayLengthMinus1))
	w.WriteBits(5, uint32(h.DpbOutputDelayLengthMinus1))
	w.WriteBits(5, uint32(h.TimeOffsetLength))
}

func writeBitstreamRestrictions(w *BitWriter, b *BitstreamRestrictions) {
	w.WriteBool(b != nil)
	if b == nil {
		return
	}
	w.WriteBool(b.MotionVectorsOverPicBoundariesFlag)
	w.WriteUE(b.MaxBytesPerPicDenom)
	w.WriteUE(b.MaxBitsPerMbDenom)
	w.WriteUE(b.Log2MaxMvLengthHorizontal)
	w.WriteUE(b.Log2MaxMvLengthVertical)
	w.WriteUE(b.MaxNumReorderFrames)
	w.WriteUE(b.MaxDecFrameBuffering)
}

func writeVUIParameters(w *BitWriter, v *VUIParameters) {
	w.WriteBool(v != nil)
	if v == nil {
		return
	}
	writeAspectRatioInfo(w, v.AspectRatioInfo)
	writeOverscanAppropriate(w, v.OverscanAppropriate)
	writeVideoSignalType(w, v.VideoSignalType)
	writeChromaLocInfo(w, v.ChromaLocInfo)
	writeTimingInfo(w, v.TimingInfo)
	writeHrdParameters(w, v.NalHrdParameters)
	writeHrdParameters(w, v.VclHrdParameters)
	if v.LowDelayHrdFlag != nil {
		w.WriteBool(*v.LowDelayHrdFlag)
	}
	w.WriteBool(v.PicStructPresentFlag)
	writeBitstreamRestrictions(w, v.BitstreamRestrictions)
}
