package h264

import "fmt"

// Profile identifies a named H.264 profile derived from profile_idc and the
// constraint flag bits that disambiguate profiles sharing a profile_idc
// value (Constrained Baseline vs Baseline, Progressive/Constrained High vs
// High, etc).
type Profile int

const (
	ProfileUnknown Profile = iota
	ProfileBaseline
	ProfileConstrainedBaseline
	ProfileMain
	ProfileHigh
	ProfileProgressiveHigh
	ProfileConstrainedHigh
	ProfileHigh422
	ProfileHigh422Intra
	ProfileHigh10
	ProfileHigh10Intra
	ProfileHigh444
	ProfileHigh444Intra
	ProfileExtended
	ProfileScalableBase
	ProfileScalableConstrainedBaseline
	ProfileScalableHigh
	ProfileScalableConstrainedHigh
	ProfileScalableHighIntra
	ProfileMultiviewHigh
	ProfileStereoHigh
	ProfileCavlcIntra444
	ProfileMFCHigh
	ProfileMFCDepthHigh
	ProfileMultiviewDepthHigh
	ProfileEnhancedMultiviewDepthHigh
)

// ProfileFromIDC derives a Profile from profile_idc and the constraint flag
// byte, disambiguating the profile_idc values that are shared between
// multiple named profiles.
func ProfileFromIDC(profileIDC uint8, flags ConstraintFlags) Profile {
	switch profileIDC {
	case 66:
		if flags.Flag1() {
			return ProfileConstrainedBaseline
		}
		return ProfileBaseline
	case 77:
		return ProfileMain
	case 100:
		switch {
		case flags.Flag4() && flags.Flag5():
			return ProfileConstrainedHigh
		case flags.Flag4():
			return ProfileProgressiveHigh
		default:
			return ProfileHigh
		}
	case 110:
		if flags.Flag3() {
			return ProfileHigh10Intra
		}
		return ProfileHigh10
	case 122:
		if flags.Flag3() {
			return ProfileHigh422Intra
		}
		return ProfileHigh422
	case 244:
		if flags.Flag3() {
			return ProfileHigh444Intra
		}
		return ProfileHigh444
	case 88:
		return ProfileExtended
	case 83:
		if flags.Flag5() {
			return ProfileScalableConstrainedBaseline
		}
		return ProfileScalableBase
	case 86:
		switch {
		case flags.Flag3():
			return ProfileScalableHighIntra
		case flags.Flag5():
			return ProfileScalableConstrainedHigh
		default:
			return ProfileScalableHigh
		}
	case 118:
		return ProfileMultiviewHigh
	case 128:
		return ProfileStereoHigh
	case 44:
		return ProfileCavlcIntra444
	case 134:
		return ProfileMFCHigh
	case 135:
		return ProfileMFCDepthHigh
	case 138:
		return ProfileMultiviewDepthHigh
	case 139:
		return ProfileEnhancedMultiviewDepthHigh
	default:
		return ProfileUnknown
	}
}

// profileIDCHasChromaInfo reports whether this profile_idc value carries the
// chroma/bit-depth/scaling-matrix fields in seq_parameter_set_data().
func profileIDCHasChromaInfo(profileIDC uint8) bool {
	switch profileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 134, 135, 138, 139:
		return true
	default:
		return false
	}
}

// ConstraintFlags is the second byte of an SPS: six per-profile constraint
// flags (bits 7-2, MSB first) plus two reserved zero bits.
type ConstraintFlags struct{ raw uint8 }

func (f ConstraintFlags) Flag0() bool               { return f.raw&0x80 != 0 }
func (f ConstraintFlags) Flag1() bool               { return f.raw&0x40 != 0 }
func (f ConstraintFlags) Flag2() bool               { return f.raw&0x20 != 0 }
func (f ConstraintFlags) Flag3() bool               { return f.raw&0x10 != 0 }
func (f ConstraintFlags) Flag4() bool               { return f.raw&0x08 != 0 }
func (f ConstraintFlags) Flag5() bool               { return f.raw&0x04 != 0 }
func (f ConstraintFlags) ReservedZeroTwoBits() uint8 { return f.raw & 0x03 }
func (f ConstraintFlags) Byte() uint8               { return f.raw }

// Level identifies an H.264 level, carrying its own Table A-1 limits via
// [Level.Limits].
type Level int

const (
	LevelUnknown Level = iota
	Level1
	Level1b
	Level1_1
	Level1_2
	Level1_3
	Level2
	Level2_1
	Level2_2
	Level3
	Level3_1
	Level3_2
	Level4
	Level4_1
	Level4_2
	Level5
	Level5_1
	Level5_2
	Level6
	Level6_1
	Level6_2
)

// LevelFromIDC derives a Level from level_idc, disambiguating level_idc 11
// between Level1b and Level1_1 using constraint flag 3.
func LevelFromIDC(flags ConstraintFlags, levelIDC uint8) Level {
	switch levelIDC {
	case 10:
		return Level1
	case 11:
		if flags.Flag3() {
			return Level1b
		}
		return Level1_1
	case 12:
		return Level1_2
	case 13:
		return Level1_3
	case 20:
		return Level2
	case 21:
		return Level2_1
	case 22:
		return Level2_2
	case 30:
		return Level3
	case 31:
		return Level3_1
	case 32:
		return Level3_2
	case 40:
		return Level4
	case 41:
		return Level4_1
	case 42:
		return Level4_2
	case 50:
		return Level5
	case 51:
		return Level5_1
	case 52:
		return Level5_2
	case 60:
		return Level6
	case 61:
		return Level6_1
	case 62:
		return Level6_2
	default:
		return LevelUnknown
	}
}

// LevelLimit holds the Table A-1 processing and buffer limits for a level.
// MaxMVsPer2MB is 0 where Table A-1 leaves it unconstrained.
type LevelLimit struct {
	MaxMBPS        uint32
	MaxFS          uint32
	MaxDPBMBs      uint32
	MaxBR          uint32
	MaxCPB         uint32
	MaxVmvR        uint32
	MinCR          uint32
	MaxMVsPer2MB   uint32
}

var levelLimits = map[Level]LevelLimit{
	Level1:    {1485, 99, 396, 64, 175, 64, 2, 0},
	Level1b:   {1485, 99, 396, 128, 350, 64, 2, 0},
	Level1_1:  {3000, 396, 900, 192, 500, 128, 2, 0},
	Level1_2:  {6000, 396, 2376, 384, 1000, 128, 2, 0},
	Level1_3:  {11880, 396, 2376, 768, 2000, 128, 2, 0},
	Level2:    {11880, 396, 2376, 2000, 2000, 128, 2, 0},
	Level2_1:  {19800, 792, 4752, 4000, 4000, 256, 2, 0},
	Level2_2:  {20250, 1620, 8100, 4000, 4000, 256, 2, 0},
	Level3:    {40500, 1620, 8100, 10000, 10000, 256, 2, 32},
	Level3_1:  {108000, 3600, 18000, 14000, 14000, 512, 4, 16},
	Level3_2:  {216000, 5120, 20480, 20000, 20000, 512, 4, 16},
	Level4:    {245760, 8192, 32768, 20000, 25000, 512, 4, 16},
	Level4_1:  {245760, 8192, 32768, 50000, 62500, 512, 2, 16},
	Level4_2:  {522240, 8704, 34816, 50000, 62500, 512, 2, 16},
	Level5:    {589824, 22080, 110400, 135000, 135000, 512, 2, 16},
	Level5_1:  {983040, 36864, 184320, 240000, 240000, 512, 2, 16},
	Level5_2:  {2073600, 36864, 184320, 240000, 240000, 512, 2, 16},
	Level6:    {4177920, 139264, 696320, 240000, 240000, 8192, 2, 16},
	Level6_1:  {8355840, 139264, 696320, 480000, 480000, 8192, 2, 16},
	Level6_2:  {16711680, 139264, 696320, 800000, 800000, 8192, 2, 16},
}

// Limits returns the Table A-1 limits for the level, or false for
// [LevelUnknown].
func (l Level) Limits() (LevelLimit, bool) {
	lim, ok := levelLimits[l]
	return lim, ok
}

// ChromaFormat identifies chroma_format_idc.
type ChromaFormat uint8

const (
	ChromaMonochrome ChromaFormat = 0
	ChromaYUV420     ChromaFormat = 1
	ChromaYUV422     ChromaFormat = 2
	ChromaYUV444     ChromaFormat = 3
)

// ScalingMatrixPresence distinguishes whether a 4x4/8x8 scaling list was
// absent, present with the flat default substituted, or present with
// explicit values.
type ScalingMatrixPresence int

const (
	ScalingNotPresent ScalingMatrixPresence = iota
	ScalingUseDefault
	ScalingExplicit
)

// ScalingList holds one 4x4 (16-entry) or 8x8 (64-entry) scaling list.
type ScalingList struct {
	Presence ScalingMatrixPresence
	Values   []uint8 // only meaningful when Presence == ScalingExplicit
}

func readScalingList(r *BitReader, size int, present bool) (ScalingList, error) {
	if !present {
		return ScalingList{Presence: ScalingNotPresent}, nil
	}
	values := make([]uint8, size)
	lastScale := int32(8)
	nextScale := int32(8)
	useDefault := false
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta, err := r.ReadSE("delta_scale")
			if err != nil {
				return ScalingList{}, err
			}
			if delta < -128 || delta > 127 {
				return ScalingList{}, &SyntaxError{Field: "delta_scale", Value: int64(delta), Reason: "must be in [-128, 127]"}
			}
			nextScale = (lastScale + delta + 256) % 256
			useDefault = j == 0 && nextScale == 0
		}
		if nextScale == 0 {
			values[j] = uint8(lastScale)
		} else {
			values[j] = uint8(nextScale)
		}
		lastScale = int32(values[j])
	}
	if useDefault {
		return ScalingList{Presence: ScalingUseDefault}, nil
	}
	return ScalingList{Presence: ScalingExplicit, Values: values}, nil
}

// SeqScalingMatrix holds the six 4x4 and the two-or-six 8x8 scaling lists
// of seq_scaling_matrix_present_flag's payload.
type SeqScalingMatrix struct {
	List4x4 []ScalingList
	List8x8 []ScalingList
}

func readSeqScalingMatrix(r *BitReader, chromaFormatIDC uint32) (SeqScalingMatrix, error) {
	count := 8
	if chromaFormatIDC == 3 {
		count = 12
	}
	m := SeqScalingMatrix{}
	for i := 0; i < count; i++ {
		present, err := r.ReadBool("seq_scaling_list_present_flag")
		if err != nil {
			return SeqScalingMatrix{}, err
		}
		if i < 6 {
			sl, err := readScalingList(r, 16, present)
			if err != nil {
				return SeqScalingMatrix{}, err
			}
			m.List4x4 = append(m.List4x4, sl)
		} else {
			sl, err := readScalingList(r, 64, present)
			if err != nil {
				return SeqScalingMatrix{}, err
			}
			m.List8x8 = append(m.List8x8, sl)
		}
	}
	return m, nil
}

// ChromaInfo carries chroma_format_idc and the bit-depth/scaling-matrix
// fields, present only for profile_idc values that carry them.
type ChromaInfo struct {
	ChromaFormat                    ChromaFormat
	SeparateColourPlaneFlag         bool
	BitDepthLumaMinus8              uint8
	BitDepthChromaMinus8            uint8
	QpprimeYZeroTransformBypassFlag bool
	ScalingMatrix                   *SeqScalingMatrix
}

// ChromaArrayType is 0 when SeparateColourPlaneFlag is set, else equal to
// ChromaFormat.
func (c ChromaInfo) ChromaArrayType() uint8 {
	if c.SeparateColourPlaneFlag {
		return 0
	}
	return uint8(c.ChromaFormat)
}

func readChromaInfo(r *BitReader, profileIDC uint8) (ChromaInfo, error) {
	if !profileIDCHasChromaInfo(profileIDC) {
		return ChromaInfo{ChromaFormat: ChromaYUV420}, nil
	}
	chromaFormatIDC, err := r.ReadUE("chroma_format_idc")
	if err != nil {
		return ChromaInfo{}, err
	}
	info := ChromaInfo{ChromaFormat: ChromaFormat(chromaFormatIDC)}
	if chromaFormatIDC == 3 {
		info.SeparateColourPlaneFlag, err = r.ReadBool("separate_colour_plane_flag")
		if err != nil {
			return ChromaInfo{}, err
		}
	}
	if info.BitDepthLumaMinus8, err = readBitDepthMinus8(r); err != nil {
		return ChromaInfo{}, err
	}
	if info.BitDepthChromaMinus8, err = readBitDepthMinus8(r); err != nil {
		return ChromaInfo{}, err
	}
	if info.QpprimeYZeroTransformBypassFlag, err = r.ReadBool("qpprime_y_zero_transform_bypass_flag"); err != nil {
		return ChromaInfo{}, err
	}
	present, err := r.ReadBool("scaling_matrix_present_flag")
	if err != nil {
		return ChromaInfo{}, err
	}
	if present {
		m, err := readSeqScalingMatrix(r, chromaFormatIDC)
		if err != nil {
			return ChromaInfo{}, err
		}
		info.ScalingMatrix = &m
	}
	return info, nil
}

func readBitDepthMinus8(r *BitReader) (uint8, error) {
	v, err := r.ReadUE("bit_depth_minus8")
	if err != nil {
		return 0, err
	}
	if v > 6 {
		return 0, outOfRange("bit_depth_minus8", int64(v), 6)
	}
	return uint8(v), nil
}

// PicOrderCntType is the discriminated union of pic_order_cnt_type values
// 0, 1, and 2, each carrying its own field set.
type PicOrderCntType struct {
	Type                          uint8
	Log2MaxPicOrderCntLsbMinus4   uint8   // type 0
	DeltaPicOrderAlwaysZeroFlag   bool    // type 1
	OffsetForNonRefPic            int32   // type 1
	OffsetForTopToBottomField     int32   // type 1
	OffsetsForRefFrame            []int32 // type 1
}

func readPicOrderCntType(r *BitReader) (PicOrderCntType, error) {
	t, err := r.ReadUE("pic_order_cnt_type")
	if err != nil {
		return PicOrderCntType{}, err
	}
	switch t {
	case 0:
		v, err := r.ReadUE("log2_max_pic_order_cnt_lsb_minus4")
		if err != nil {
			return PicOrderCntType{}, err
		}
		if v > 12 {
			return PicOrderCntType{}, outOfRange("log2_max_pic_order_cnt_lsb_minus4", int64(v), 12)
		}
		return PicOrderCntType{Type: 0, Log2MaxPicOrderCntLsbMinus4: uint8(v)}, nil
	case 1:
		p := PicOrderCntType{Type: 1}
		if p.DeltaPicOrderAlwaysZeroFlag, err = r.ReadBool("delta_pic_order_always_zero_flag"); err != nil {
			return PicOrderCntType{}, err
		}
		if p.OffsetForNonRefPic, err = r.ReadSE("offset_for_non_ref_pic"); err != nil {
			return PicOrderCntType{}, err
		}
		if p.OffsetForTopToBottomField, err = r.ReadSE("offset_for_top_to_bottom_field"); err != nil {
			return PicOrderCntType{}, err
		}
		count, err := r.ReadUE("num_ref_frames_in_pic_order_cnt_cycle")
		if err != nil {
			return PicOrderCntType{}, err
		}
		if count > 255 {
			return PicOrderCntType{}, outOfRange("num_ref_frames_in_pic_order_cnt_cycle", int64(count), 255)
		}
		p.OffsetsForRefFrame = make([]int32, count)
		for i := range p.OffsetsForRefFrame {
			if p.OffsetsForRefFrame[i], err = r.ReadSE("offset_for_ref_frame"); err != nil {
				return PicOrderCntType{}, err
			}
		}
		return p, nil
	case 2:
		return PicOrderCntType{Type: 2}, nil
	default:
		return PicOrderCntType{}, &SyntaxError{Field: "pic_order_cnt_type", Value: int64(t), Reason: "must be 0, 1, or 2"}
	}
}

// FrameMbsFlags is frame_mbs_only_flag plus, when fields are in use,
// mb_adaptive_frame_field_flag.
type FrameMbsFlags struct {
	FieldsInUse                bool
	MbAdaptiveFrameFieldFlag   bool
}

func readFrameMbsFlags(r *BitReader) (FrameMbsFlags, error) {
	frameOnly, err := r.ReadBool("frame_mbs_only_flag")
	if err != nil {
		return FrameMbsFlags{}, err
	}
	if frameOnly {
		return FrameMbsFlags{}, nil
	}
	adaptive, err := r.ReadBool("mb_adaptive_frame_field_flag")
	if err != nil {
		return FrameMbsFlags{}, err
	}
	return FrameMbsFlags{FieldsInUse: true, MbAdaptiveFrameFieldFlag: adaptive}, nil
}

// FrameCropping is the optional frame_crop_*_offset field set.
type FrameCropping struct {
	LeftOffset, RightOffset, TopOffset, BottomOffset uint32
}

func readFrameCropping(r *BitReader) (*FrameCropping, error) {
	present, err := r.ReadBool("frame_cropping_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var c FrameCropping
	if c.LeftOffset, err = r.ReadUE("frame_crop_left_offset"); err != nil {
		return nil, err
	}
	if c.RightOffset, err = r.ReadUE("frame_crop_right_offset"); err != nil {
		return nil, err
	}
	if c.TopOffset, err = r.ReadUE("frame_crop_top_offset"); err != nil {
		return nil, err
	}
	if c.BottomOffset, err = r.ReadUE("frame_crop_bottom_offset"); err != nil {
		return nil, err
	}
	return &c, nil
}

// AspectRatioInfo is the decoded aspect_ratio_idc, with Extended carrying
// an explicit sar_width/sar_height pair for idc 255.
type AspectRatioInfo struct {
	IDC               uint8
	ExtendedWidth     uint16
	ExtendedHeight    uint16
}

var aspectRatioTable = map[uint8][2]uint16{
	1: {1, 1}, 2: {12, 11}, 3: {10, 11}, 4: {16, 11}, 5: {40, 33},
	6: {24, 11}, 7: {20, 11}, 8: {32, 11}, 9: {80, 33}, 10: {18, 11},
	11: {15, 11}, 12: {64, 33}, 13: {160, 99}, 14: {4, 3}, 15: {3, 2}, 16: {2, 1},
}

// Ratio returns (width, height), or false if the ratio is unspecified,
// reserved, or an Extended ratio with a zero component (both of which
// ISO/IEC 14496-10 E.2.1 treats as unspecified).
func (a AspectRatioInfo) Ratio() (uint16, uint16, bool) {
	if a.IDC == 255 {
		if a.ExtendedWidth == 0 || a.ExtendedHeight == 0 {
			return 0, 0, false
		}
		return a.ExtendedWidth, a.ExtendedHeight, true
	}
	if wh, ok := aspectRatioTable[a.IDC]; ok {
		return wh[0], wh[1], true
	}
	return 0, 0, false
}

func readAspectRatioInfo(r *BitReader) (*AspectRatioInfo, error) {
	present, err := r.ReadBool("aspect_ratio_info_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	idc, err := r.ReadBits(8, "aspect_ratio_idc")
	if err != nil {
		return nil, err
	}
	a := &AspectRatioInfo{IDC: uint8(idc)}
	if idc == 255 {
		w, err := r.ReadBits(16, "sar_width")
		if err != nil {
			return nil, err
		}
		h, err := r.ReadBits(16, "sar_height")
		if err != nil {
			return nil, err
		}
		a.ExtendedWidth, a.ExtendedHeight = uint16(w), uint16(h)
	}
	return a, nil
}

// OverscanAppropriate is overscan_info_present_flag/overscan_appropriate_flag.
type OverscanAppropriate int

const (
	OverscanUnspecified OverscanAppropriate = iota
	OverscanAppropriateFlag
	OverscanInappropriate
)

func readOverscanAppropriate(r *BitReader) (OverscanAppropriate, error) {
	present, err := r.ReadBool("overscan_info_present_flag")
	if err != nil {
		return OverscanUnspecified, err
	}
	if !present {
		return OverscanUnspecified, nil
	}
	appropriate, err := r.ReadBool("overscan_appropriate_flag")
	if err != nil {
		return OverscanUnspecified, err
	}
	if appropriate {
		return OverscanAppropriateFlag, nil
	}
	return OverscanInappropriate, nil
}

// VideoFormat is the 3-bit video_format field.
type VideoFormat uint8

const (
	VideoFormatComponent VideoFormat = iota
	VideoFormatPAL
	VideoFormatNTSC
	VideoFormatSECAM
	VideoFormatMAC
	VideoFormatUnspecified
)

// ColourDescription is the optional colour_primaries/transfer/matrix triple.
type ColourDescription struct {
	ColourPrimaries, TransferCharacteristics, MatrixCoefficients uint8
}

func readColourDescription(r *BitReader) (*ColourDescription, error) {
	present, err := r.ReadBool("colour_description_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var c ColourDescription
	v, err := r.ReadBits(8, "colour_primaries")
	if err != nil {
		return nil, err
	}
	c.ColourPrimaries = uint8(v)
	if v, err = r.ReadBits(8, "transfer_characteristics"); err != nil {
		return nil, err
	}
	c.TransferCharacteristics = uint8(v)
	if v, err = r.ReadBits(8, "matrix_coefficients"); err != nil {
		return nil, err
	}
	c.MatrixCoefficients = uint8(v)
	return &c, nil
}

// VideoSignalType is the optional video_format/full_range/colour_description
// triple.
type VideoSignalType struct {
	VideoFormat         VideoFormat
	VideoFullRangeFlag  bool
	ColourDescription   *ColourDescription
}

func readVideoSignalType(r *BitReader) (*VideoSignalType, error) {
	present, err := r.ReadBool("video_signal_type_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := r.ReadBits(3, "video_format")
	if err != nil {
		return nil, err
	}
	vs := &VideoSignalType{VideoFormat: VideoFormat(v)}
	if vs.VideoFullRangeFlag, err = r.ReadBool("video_full_range_flag"); err != nil {
		return nil, err
	}
	if vs.ColourDescription, err = readColourDescription(r); err != nil {
		return nil, err
	}
	return vs, nil
}

// ChromaLocInfo is the optional chroma sample location pair.
type ChromaLocInfo struct {
	ChromaSampleLocTypeTopField, ChromaSampleLocTypeBottomField uint32
}

func readChromaLocInfo(r *BitReader) (*ChromaLocInfo, error) {
	present, err := r.ReadBool("chroma_loc_info_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var c ChromaLocInfo
	if c.ChromaSampleLocTypeTopField, err = r.ReadUE("chroma_sample_loc_type_top_field"); err != nil {
		return nil, err
	}
	if c.ChromaSampleLocTypeBottomField, err = r.ReadUE("chroma_sample_loc_type_bottom_field"); err != nil {
		return nil, err
	}
	return &c, nil
}

// TimingInfo carries num_units_in_tick/time_scale/fixed_frame_rate_flag.
type TimingInfo struct {
	NumUnitsInTick    uint32
	TimeScale         uint32
	FixedFrameRateFlag bool
}

func readTimingInfo(r *BitReader) (*TimingInfo, error) {
	present, err := r.ReadBool("timing_info_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var t TimingInfo
	v, err := r.ReadBits(32, "num_units_in_tick")
	if err != nil {
		return nil, err
	}
	t.NumUnitsInTick = v
	if v, err = r.ReadBits(32, "time_scale"); err != nil {
		return nil, err
	}
	t.TimeScale = v
	if t.FixedFrameRateFlag, err = r.ReadBool("fixed_frame_rate_flag"); err != nil {
		return nil, err
	}
	return &t, nil
}

// CpbSpec is one entry of an HRD parameter set's cpb_cnt_minus1+1 CPB specs.
type CpbSpec struct {
	BitRateValueMinus1, CpbSizeValueMinus1 uint32
	CbrFlag                                bool
}

func readCpbSpec(r *BitReader) (CpbSpec, error) {
	var c CpbSpec
	v, err := r.ReadUE("bit_rate_value_minus1")
	if err != nil {
		return CpbSpec{}, err
	}
	c.BitRateValueMinus1 = v
	if v, err = r.ReadUE("cpb_size_value_minus1"); err != nil {
		return CpbSpec{}, err
	}
	c.CpbSizeValueMinus1 = v
	if c.CbrFlag, err = r.ReadBool("cbr_flag"); err != nil {
		return CpbSpec{}, err
	}
	return c, nil
}

// HrdParameters is one of the (nal_hrd_parameters, vcl_hrd_parameters) VUI
// elements.
type HrdParameters struct {
	BitRateScale, CpbSizeScale                                                          uint8
	CpbSpecs                                                                            []CpbSpec
	InitialCpbRemovalDelayLengthMinus1, CpbRemovalDelayLengthMinus1, DpbOutputDelayLengthMinus1, TimeOffsetLength uint8
}

func readHrdParameters(r *BitReader, hrdParametersPresent *bool) (*HrdParameters, error) {
	present, err := r.ReadBool("hrd_parameters_present_flag")
	if err != nil {
		return nil, err
	}
	*hrdParametersPresent = *hrdParametersPresent || present
	if !present {
		return nil, nil
	}
	cpbCntMinus1, err := r.ReadUE("cpb_cnt_minus1")
	if err != nil {
		return nil, err
	}
	if cpbCntMinus1 > 31 {
		return nil, outOfRange("cpb_cnt_minus1", int64(cpbCntMinus1), 31)
	}
	h := &HrdParameters{}
	v, err := r.ReadBits(4, "bit_rate_scale")
	if err != nil {
		return nil, err
	}
	h.BitRateScale = uint8(v)
	if v, err = r.ReadBits(4, "cpb_size_scale"); err != nil {
		return nil, err
	}
	h.CpbSizeScale = uint8(v)
	h.CpbSpecs = make([]CpbSpec, cpbCntMinus1+1)
	for i := range h.CpbSpecs {
		if h.CpbSpecs[i], err = readCpbSpec(r); err != nil {
			return nil, err
		}
	}
	for _, dst := range []*uint8{
		&h.InitialCpbRemovalDelayLengthMinus1,
		&h.CpbRemovalDelayLengthMinus1,
		&h.DpbOutputDelayLengthMinus1,
		&h.TimeOffsetLength,
	} {
		v, err := r.ReadBits(5, "hrd_length_field")
		if err != nil {
			return nil, err
		}
		*dst = uint8(v)
	}
	return h, nil
}

// BitstreamRestrictions is the optional VUI trailer bounding reorder and
// decoded-picture-buffer behavior.
type BitstreamRestrictions struct {
	MotionVectorsOverPicBoundariesFlag                    bool
	MaxBytesPerPicDenom, MaxBitsPerMbDenom                 uint32
	Log2MaxMvLengthHorizontal, Log2MaxMvLengthVertical     uint32
	MaxNumReorderFrames, MaxDecFrameBuffering              uint32
}

func readBitstreamRestrictions(r *BitReader, sps *SPS) (*BitstreamRestrictions, error) {
	present, err := r.ReadBool("bitstream_restriction_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var b BitstreamRestrictions
	if b.MotionVectorsOverPicBoundariesFlag, err = r.ReadBool("motion_vectors_over_pic_boundaries_flag"); err != nil {
		return nil, err
	}
	if b.MaxBytesPerPicDenom, err = r.ReadUE("max_bytes_per_pic_denom"); err != nil {
		return nil, err
	}
	if b.MaxBytesPerPicDenom > 16 {
		return nil, outOfRange("max_bytes_per_pic_denom", int64(b.MaxBytesPerPicDenom), 16)
	}
	if b.MaxBitsPerMbDenom, err = r.ReadUE("max_bits_per_mb_denom"); err != nil {
		return nil, err
	}
	if b.MaxBitsPerMbDenom > 16 {
		return nil, outOfRange("max_bits_per_mb_denom", int64(b.MaxBitsPerMbDenom), 16)
	}
	// The written spec since some revisions says 0-15 for the two fields
	// below, but earlier revisions say 0-16 and real streams present 16;
	// the more permissive bound is applied to avoid rejecting real files.
	if b.Log2MaxMvLengthHorizontal, err = r.ReadUE("log2_max_mv_length_horizontal"); err != nil {
		return nil, err
	}
	if b.Log2MaxMvLengthHorizontal > 16 {
		return nil, outOfRange("log2_max_mv_length_horizontal", int64(b.Log2MaxMvLengthHorizontal), 16)
	}
	if b.Log2MaxMvLengthVertical, err = r.ReadUE("log2_max_mv_length_vertical"); err != nil {
		return nil, err
	}
	if b.Log2MaxMvLengthVertical > 16 {
		return nil, outOfRange("log2_max_mv_length_vertical", int64(b.Log2MaxMvLengthVertical), 16)
	}
	if b.MaxNumReorderFrames, err = r.ReadUE("max_num_reorder_frames"); err != nil {
		return nil, err
	}
	if b.MaxDecFrameBuffering, err = r.ReadUE("max_dec_frame_buffering"); err != nil {
		return nil, err
	}
	if b.MaxNumReorderFrames > b.MaxDecFrameBuffering {
		return nil, outOfRange("max_num_reorder_frames", int64(b.MaxNumReorderFrames), int64(b.MaxDecFrameBuffering))
	}
	if b.MaxDecFrameBuffering < sps.MaxNumRefFrames {
		return nil, &SyntaxError{Field: "max_dec_frame_buffering", Value: int64(b.MaxDecFrameBuffering), Reason: fmt.Sprintf("must be >= max_num_ref_frames (%d)", sps.MaxNumRefFrames)}
	}
	if max, ok := maxValForMaxDecFrameBuffering(sps); ok && b.MaxDecFrameBuffering > max {
		return nil, outOfRange("max_dec_frame_buffering", int64(b.MaxDecFrameBuffering), int64(max))
	}
	return &b, nil
}

// maxValForMaxDecFrameBuffering computes the profile/level derived bound on
// max_dec_frame_buffering (Annex A.3.1/A.3.2/G.10.2.1). It returns false for
// Multiview/Stereo/MFC/MultiviewDepth profiles, whose bound additionally
// depends on NumViews from MVC extension data this parser does not decode.
func maxValForMaxDecFrameBuffering(sps *SPS) (uint32, bool) {
	limits, ok := sps.Level().Limits()
	if !ok {
		return 0, false
	}
	frameHeightInMbs := sps.PicHeightInMapUnits()
	if sps.FrameMbsFlags.FieldsInUse {
		frameHeightInMbs *= 2
	}
	denom := sps.PicWidthInMbs() * frameHeightInMbs
	if denom == 0 {
		return 0, false
	}
	switch sps.Profile() {
	case ProfileBaseline, ProfileConstrainedBaseline, ProfileMain, ProfileExtended,
		ProfileHigh, ProfileProgressiveHigh, ProfileConstrainedHigh, ProfileHigh10, ProfileHigh10Intra,
		ProfileHigh422, ProfileHigh422Intra, ProfileHigh444, ProfileHigh444Intra, ProfileCavlcIntra444,
		ProfileScalableBase, ProfileScalableConstrainedBaseline, ProfileScalableHigh, ProfileScalableConstrainedHigh,
		ProfileScalableHighIntra:
		max := limits.MaxDPBMBs / denom
		if max > 16 {
			max = 16
		}
		return max, true
	default:
		return 0, false
	}
}

// VUIParameters is the optional vui_parameters() syntax structure.
type VUIParameters struct {
	AspectRatioInfo        *AspectRatioInfo
	OverscanAppropriate    OverscanAppropriate
	VideoSignalType        *VideoSignalType
	ChromaLocInfo          *ChromaLocInfo
	TimingInfo             *TimingInfo
	NalHrdParameters       *HrdParameters
	VclHrdParameters       *HrdParameters
	LowDelayHrdFlag        *bool
	PicStructPresentFlag   bool
	BitstreamRestrictions  *BitstreamRestrictions
}

func readVUIParameters(r *BitReader, sps *SPS) (*VUIParameters, error) {
	present, err := r.ReadBool("vui_parameters_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v := &VUIParameters{}
	if v.AspectRatioInfo, err = readAspectRatioInfo(r); err != nil {
		return nil, err
	}
	if v.OverscanAppropriate, err = readOverscanAppropriate(r); err != nil {
		return nil, err
	}
	if v.VideoSignalType, err = readVideoSignalType(r); err != nil {
		return nil, err
	}
	if v.ChromaLocInfo, err = readChromaLocInfo(r); err != nil {
		return nil, err
	}
	if v.TimingInfo, err = readTimingInfo(r); err != nil {
		return nil, err
	}
	var hrdPresent bool
	if v.NalHrdParameters, err = readHrdParameters(r, &hrdPresent); err != nil {
		return nil, err
	}
	if v.VclHrdParameters, err = readHrdParameters(r, &hrdPresent); err != nil {
		return nil, err
	}
	if hrdPresent {
		flag, err := r.ReadBool("low_delay_hrd_flag")
		if err != nil {
			return nil, err
		}
		v.LowDelayHrdFlag = &flag
	}
	if v.PicStructPresentFlag, err = r.ReadBool("pic_struct_present_flag"); err != nil {
		return nil, err
	}
	if v.BitstreamRestrictions, err = readBitstreamRestrictions(r, sps); err != nil {
		return nil, err
	}
	return v, nil
}

// SPS is a decoded sequence parameter set (component F), covering
// seq_parameter_set_data() from profile_idc through the optional VUI.
type SPS struct {
	ProfileIDC                  uint8
	ConstraintFlags             ConstraintFlags
	LevelIDC                    uint8
	SeqParameterSetID           uint8
	ChromaInfo                  ChromaInfo
	Log2MaxFrameNumMinus4       uint8
	PicOrderCnt                 PicOrderCntType
	MaxNumRefFrames              uint32
	GapsInFrameNumValueAllowedFlag bool
	PicWidthInMbsMinus1          uint32
	PicHeightInMapUnitsMinus1    uint32
	FrameMbsFlags                FrameMbsFlags
	Direct8x8InferenceFlag       bool
	FrameCropping                *FrameCropping
	VUIParameters                *VUIParameters
}

// ReadSeqParameterSetData parses seq_parameter_set_data() (ITU-T H.264
// §7.3.2.1.1) without consuming rbsp_trailing_bits, so it can be shared
// between SPS and subset SPS (SVC/MVC) parsing.
func ReadSeqParameterSetData(r *BitReader) (*SPS, error) {
	profileIDC, err := r.ReadBits(8, "profile_idc")
	if err != nil {
		return nil, err
	}
	constraintFlagsRaw, err := r.ReadBits(8, "constraint_flags")
	if err != nil {
		return nil, err
	}
	levelIDC, err := r.ReadBits(8, "level_idc")
	if err != nil {
		return nil, err
	}
	sps := &SPS{
		ProfileIDC:       uint8(profileIDC),
		ConstraintFlags:  ConstraintFlags{raw: uint8(constraintFlagsRaw)},
		LevelIDC:         uint8(levelIDC),
	}
	id, err := r.ReadUE("seq_parameter_set_id")
	if err != nil {
		return nil, err
	}
	if id > 31 {
		return nil, outOfRange("seq_parameter_set_id", int64(id), 31)
	}
	sps.SeqParameterSetID = uint8(id)
	if sps.ChromaInfo, err = readChromaInfo(r, sps.ProfileIDC); err != nil {
		return nil, err
	}
	logMinus4, err := r.ReadUE("log2_max_frame_num_minus4")
	if err != nil {
		return nil, err
	}
	if logMinus4 > 12 {
		return nil, outOfRange("log2_max_frame_num_minus4", int64(logMinus4), 12)
	}
	sps.Log2MaxFrameNumMinus4 = uint8(logMinus4)
	if sps.PicOrderCnt, err = readPicOrderCntType(r); err != nil {
		return nil, err
	}
	if sps.MaxNumRefFrames, err = r.ReadUE("max_num_ref_frames"); err != nil {
		return nil, err
	}
	if sps.GapsInFrameNumValueAllowedFlag, err = r.ReadBool("gaps_in_frame_num_value_allowed_flag"); err != nil {
		return nil, err
	}
	if sps.PicWidthInMbsMinus1, err = r.ReadUE("pic_width_in_mbs_minus1"); err != nil {
		return nil, err
	}
	if sps.PicHeightInMapUnitsMinus1, err = r.ReadUE("pic_height_in_map_units_minus1"); err != nil {
		return nil, err
	}
	if sps.FrameMbsFlags, err = readFrameMbsFlags(r); err != nil {
		return nil, err
	}
	if sps.Direct8x8InferenceFlag, err = r.ReadBool("direct_8x8_inference_flag"); err != nil {
		return nil, err
	}
	if sps.FrameCropping, err = readFrameCropping(r); err != nil {
		return nil, err
	}
	// VUI parsing happens after the rest of the struct is populated,
	// because bitstream-restriction bound checks need the SPS built so far.
	if sps.VUIParameters, err = readVUIParameters(r, sps); err != nil {
		return nil, err
	}
	return sps, nil
}

// ParseSPS decodes a complete seq_parameter_set_rbsp() from RBSP bytes
// (header byte already stripped), including finish_rbsp() trailing-bits
// validation.
func ParseSPS(rbsp []byte) (*SPS, error) {
	r := NewBitReader(rbsp)
	sps, err := ReadSeqParameterSetData(r)
	if err != nil {
		return nil, err
	}
	if err := r.FinishRBSP(); err != nil {
		return nil, err
	}
	return sps, nil
}

// Profile derives the named profile from ProfileIDC and ConstraintFlags.
func (s *SPS) Profile() Profile { return ProfileFromIDC(s.ProfileIDC, s.ConstraintFlags) }

// Level derives the named level from ConstraintFlags and LevelIDC.
func (s *SPS) Level() Level { return LevelFromIDC(s.ConstraintFlags, s.LevelIDC) }

// Log2MaxFrameNum is Log2MaxFrameNumMinus4 + 4, in the range 4 to 16.
func (s *SPS) Log2MaxFrameNum() uint8 { return s.Log2MaxFrameNumMinus4 + 4 }

// PicWidthInMbs is PicWidthInMbsMinus1 + 1.
func (s *SPS) PicWidthInMbs() uint32 { return s.PicWidthInMbsMinus1 + 1 }

// PicHeightInMapUnits is PicHeightInMapUnitsMinus1 + 1.
func (s *SPS) PicHeightInMapUnits() uint32 { return s.PicHeightInMapUnitsMinus1 + 1 }

// PicSizeInMapUnits is PicWidthInMbs * PicHeightInMapUnits.
func (s *SPS) PicSizeInMapUnits() uint32 { return s.PicWidthInMbs() * s.PicHeightInMapUnits() }

// PixelDimensions computes the displayed picture size, accounting for
// frame/field mode, chroma subsampling, and frame cropping. Crop offsets
// that would underflow either dimension are a [SyntaxError], not a panic.
func (s *SPS) PixelDimensions() (width, height uint32, err error) {
	width = s.PicWidthInMbs() * 16
	mul := uint32(1)
	if s.FrameMbsFlags.FieldsInUse {
		mul = 2
	}
	vsub := uint32(0)
	if s.ChromaInfo.ChromaFormat == ChromaYUV420 {
		vsub = 1
	}
	hsub := uint32(0)
	if s.ChromaInfo.ChromaFormat == ChromaYUV420 || s.ChromaInfo.ChromaFormat == ChromaYUV422 {
		hsub = 1
	}
	stepX := uint32(1) << hsub
	stepY := mul << vsub
	height = s.PicHeightInMapUnits() * mul * 16
	if s.FrameCropping == nil {
		return width, height, nil
	}
	c := s.FrameCropping
	left := c.LeftOffset * stepX
	right := c.RightOffset * stepX
	top := c.TopOffset * stepY
	bottom := c.BottomOffset * stepY
	if left+right >= width || top+bottom >= height {
		return 0, 0, &SyntaxError{Field: "frame_cropping", Reason: "crop exceeds coded picture dimensions"}
	}
	return width - left - right, height - top - bottom, nil
}

// FPS derives the nominal frame rate from VUI timing_info, if present:
// time_scale / (2 * num_units_in_tick), following the convention that
// num_units_in_tick counts field periods.
func (s *SPS) FPS() (float64, bool) {
	if s.VUIParameters == nil || s.VUIParameters.TimingInfo == nil {
		return 0, false
	}
	t := s.VUIParameters.TimingInfo
	if t.NumUnitsInTick == 0 {
		return 0, false
	}
	return float64(t.TimeScale) / (2.0 * float64(t.NumUnitsInTick)), true
}
