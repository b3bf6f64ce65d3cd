package h264

import "fmt"

// PrimaryPicType indicates which slice types may be present in the primary
// coded picture of an access unit (Table 7-5).
type PrimaryPicType uint8

const (
	PrimaryPicTypeI       PrimaryPicType = 0
	PrimaryPicTypeIP      PrimaryPicType = 1
	PrimaryPicTypeIPB     PrimaryPicType = 2
	PrimaryPicTypeSI      PrimaryPicType = 3
	PrimaryPicTypeSISP    PrimaryPicType = 4
	PrimaryPicTypeISI     PrimaryPicType = 5
	PrimaryPicTypeISIPSP  PrimaryPicType = 6
	PrimaryPicTypeISIPSPB PrimaryPicType = 7
)

func primaryPicTypeFromID(id uint32) (PrimaryPicType, error) {
	if id > 7 {
		return 0, outOfRange("primary_pic_type", int64(id), 7)
	}
	return PrimaryPicType(id), nil
}

// AccessUnitDelimiter is a parsed access_unit_delimiter_rbsp() (NAL unit
// type 9, spec 7.3.2.4).
type AccessUnitDelimiter struct {
	PrimaryPicType PrimaryPicType
}

// ParseAccessUnitDelimiter decodes an access_unit_delimiter_rbsp from RBSP
// bytes.
func ParseAccessUnitDelimiter(rbsp []byte) (*AccessUnitDelimiter, error) {
	r := NewBitReader(rbsp)
	val, err := r.ReadBits(3, "primary_pic_type")
	if err != nil {
		return nil, err
	}
	ppt, err := primaryPicTypeFromID(val)
	if err != nil {
		return nil, err
	}
	if err := r.FinishRBSP(); err != nil {
		return nil, err
	}
	return &AccessUnitDelimiter{PrimaryPicType: ppt}, nil
}

// AuxFormatInfo carries auxiliary picture format parameters, present in a
// SeqParameterSetExtension when aux_format_idc != 0.
type AuxFormatInfo struct {
	BitDepthAuxMinus8  uint8
	AlphaIncrFlag      bool
	AlphaOpaqueValue   uint32
	AlphaTransparentValue uint32
}

// SeqParameterSetExtension is a parsed seq_parameter_set_extension_rbsp()
// (NAL unit type 13, spec 7.3.2.1.2).
type SeqParameterSetExtension struct {
	SeqParameterSetID        uint8
	AuxFormatIDC             uint32
	AuxFormatInfo            *AuxFormatInfo
	AdditionalExtensionFlag  bool
}

// ParseSeqParameterSetExtension decodes a seq_parameter_set_extension_rbsp
// from RBSP bytes.
func ParseSeqParameterSetExtension(rbsp []byte) (*SeqParameterSetExtension, error) {
	r := NewBitReader(rbsp)
	spsID, err := r.ReadUE("seq_parameter_set_id")
	if err != nil {
		return nil, err
	}
	if spsID > 31 {
		return nil, outOfRange("seq_parameter_set_id", int64(spsID), 31)
	}
	auxFormatIDC, err := r.ReadUE("aux_format_idc")
	if err != nil {
		return nil, err
	}
	var auxInfo *AuxFormatInfo
	if auxFormatIDC != 0 {
		bitDepthAuxMinus8, err := r.ReadUE("bit_depth_aux_minus8")
		if err != nil {
			return nil, err
		}
		if bitDepthAuxMinus8 > 4 {
			return nil, outOfRange("bit_depth_aux_minus8", int64(bitDepthAuxMinus8), 4)
		}
		alphaIncrFlag, err := r.ReadBool("alpha_incr_flag")
		if err != nil {
			return nil, err
		}
		v := uint(bitDepthAuxMinus8) + 9
		alphaOpaqueValue, err := r.ReadBits(v, "alpha_opaque_value")
		if err != nil {
			return nil, err
		}
		alphaTransparentValue, err := r.ReadBits(v, "alpha_transparent_value")
		if err != nil {
			return nil, err
		}
		auxInfo = &AuxFormatInfo{
			BitDepthAuxMinus8:     uint8(bitDepthAuxMinus8),
			AlphaIncrFlag:         alphaIncrFlag,
			AlphaOpaqueValue:      alphaOpaqueValue,
			AlphaTransparentValue: alphaTransparentValue,
		}
	}
	additionalExtensionFlag, err := r.ReadBool("additional_extension_flag")
	if err != nil {
		return nil, err
	}
	if err := r.FinishRBSP(); err != nil {
		return nil, err
	}
	return &SeqParameterSetExtension{
		SeqParameterSetID:       uint8(spsID),
		AuxFormatIDC:            auxFormatIDC,
		AuxFormatInfo:           auxInfo,
		AdditionalExtensionFlag: additionalExtensionFlag,
	}, nil
}

// HeaderExtensionKind distinguishes the two 3-byte NAL header extension
// layouts carried by a prefix NAL unit or coded slice extension.
type HeaderExtensionKind int

const (
	HeaderExtensionSVC HeaderExtensionKind = iota
	HeaderExtensionMVC
)

// SVCExtension is the 3-byte nal_unit_header_svc_extension (spec
// F.7.3.1.1), present when svc_extension_flag == 1.
type SVCExtension struct {
	IDRFlag              bool
	PriorityID           uint8
	NoInterLayerPredFlag bool
	DependencyID         uint8
	QualityID            uint8
	TemporalID           uint8
	UseRefBasePicFlag    bool
	DiscardableFlag      bool
	OutputFlag           bool
}

// MVCExtension is the 3-byte nal_unit_header_mvc_extension (spec
// G.7.3.1.1), present when svc_extension_flag == 0.
type MVCExtension struct {
	NonIDRFlag     bool
	PriorityID     uint8
	ViewID         uint16
	TemporalID     uint8
	AnchorPicFlag  bool
	InterViewFlag  bool
}

// HeaderExtension is the decoded 3-byte NAL header extension that follows
// the 1-byte nal_unit_header on a prefix NAL unit (type 14) or a coded
// slice extension (types 20/21).
type HeaderExtension struct {
	Kind HeaderExtensionKind
	SVC  *SVCExtension
	MVC  *MVCExtension
}

// parseHeaderExtension decodes the 3 raw bytes following a NAL header byte
// into a SVC or MVC extension, selected by the leading svc_extension_flag
// bit. These bytes are not Exp-Golomb coded and are read directly rather
// than through a [BitReader], matching how the reference parser treats
// them as a fixed bit layout outside the RBSP proper.
func parseHeaderExtension(b [3]byte) HeaderExtension {
	svcExtensionFlag := b[0]&0x80 != 0
	if svcExtensionFlag {
		return HeaderExtension{
			Kind: HeaderExtensionSVC,
			SVC: &SVCExtension{
				IDRFlag:              b[0]&0x40 != 0,
				PriorityID:           b[0] & 0x3F,
				NoInterLayerPredFlag: b[1]&0x80 != 0,
				DependencyID:         (b[1] >> 4) & 0x07,
				QualityID:            b[1] & 0x0F,
				TemporalID:           (b[2] >> 5) & 0x07,
				UseRefBasePicFlag:    b[2]&0x10 != 0,
				DiscardableFlag:      b[2]&0x08 != 0,
				OutputFlag:           b[2]&0x04 != 0,
			},
		}
	}
	viewID := uint16(b[1])<<2 | uint16(b[2]>>6)
	return HeaderExtension{
		Kind: HeaderExtensionMVC,
		MVC: &MVCExtension{
			NonIDRFlag:    b[0]&0x40 != 0,
			PriorityID:    b[0] & 0x3F,
			ViewID:        viewID,
			TemporalID:    (b[2] >> 3) & 0x07,
			AnchorPicFlag: b[2]&0x04 != 0,
			InterViewFlag: b[2]&0x02 != 0,
		},
	}
}

// DecRefBasePicMarkingOpKind identifies an operation within
// dec_ref_base_pic_marking() (spec G.7.3.3.5).
type DecRefBasePicMarkingOpKind int

const (
	DecRefBaseShortTermUnusedForRef DecRefBasePicMarkingOpKind = iota + 1
	DecRefBaseLongTermUnusedForRef
)

// DecRefBasePicMarkingOp is one memory_management_base_control_operation.
type DecRefBasePicMarkingOp struct {
	Kind                            DecRefBasePicMarkingOpKind
	DifferenceOfBasePicNumsMinus1   uint32
	LongTermBasePicNum              uint32
}

// DecRefBasePicMarking is the decoded dec_ref_base_pic_marking() syntax.
type DecRefBasePicMarking struct {
	Operations []DecRefBasePicMarkingOp
}

func readDecRefBasePicMarking(r *BitReader) (DecRefBasePicMarking, error) {
	var marking DecRefBasePicMarking
	for {
		op, err := r.ReadUE("memory_management_base_control_operation")
		if err != nil {
			return DecRefBasePicMarking{}, err
		}
		switch op {
		case 0:
			return marking, nil
		case 1:
			diff, err := r.ReadUE("difference_of_base_pic_nums_minus1")
			if err != nil {
				return DecRefBasePicMarking{}, err
			}
			marking.Operations = append(marking.Operations, DecRefBasePicMarkingOp{
				Kind: DecRefBaseShortTermUnusedForRef, DifferenceOfBasePicNumsMinus1: diff,
			})
		case 2:
			num, err := r.ReadUE("long_term_base_pic_num")
			if err != nil {
				return DecRefBasePicMarking{}, err
			}
			marking.Operations = append(marking.Operations, DecRefBasePicMarkingOp{
				Kind: DecRefBaseLongTermUnusedForRef, LongTermBasePicNum: num,
			})
		default:
			return DecRefBasePicMarking{}, outOfRange("memory_management_base_control_operation", int64(op), 2)
		}
	}
}

// PrefixNALUnitRef is the reference base picture marking information
// carried by an SVC prefix NAL unit when nal_ref_idc != 0 (spec
// F.7.3.2.12.1).
type PrefixNALUnitRef struct {
	StoreRefBasePicFlag                     bool
	DecRefBasePicMarking                    *DecRefBasePicMarking
	AdditionalPrefixNALUnitExtensionFlag    bool
}

// PrefixNALUnit is a parsed prefix_nal_unit_rbsp() (NAL unit type 14, spec
// 7.3.2.12). MVC prefix NALs carry an empty RBSP body; SVC prefix NALs
// carry RefBasePic only when the NAL's nal_ref_idc is nonzero.
type PrefixNALUnit struct {
	HeaderExtension HeaderExtension
	RefBasePic      *PrefixNALUnitRef
}

// ParsePrefixNALUnit parses a complete prefix NAL unit (NAL header byte,
// 3-byte header extension, and RBSP body) given the decoded header of
// nalBytes[0]. header.UnitType() must be [UnitTypePrefixNALUnit].
func ParsePrefixNALUnit(nalBytes []byte, header Header) (*PrefixNALUnit, error) {
	if len(nalBytes) < 4 {
		return nil, fmt.Errorf("%w: prefix NAL unit needs at least 4 bytes, have %d", ErrTruncated, len(nalBytes))
	}
	var extBytes [3]byte
	copy(extBytes[:], nalBytes[1:4])
	ext := parseHeaderExtension(extBytes)

	var refBasePic *PrefixNALUnitRef
	if ext.Kind == HeaderExtensionSVC && header.RefIdc() != 0 {
		rbsp := DecodeRBSP(nalBytes[4:])
		r := NewBitReader(rbsp)
		storeRefBasePicFlag, err := r.ReadBool("store_ref_base_pic_flag")
		if err != nil {
			return nil, err
		}
		var marking *DecRefBasePicMarking
		if storeRefBasePicFlag {
			m, err := readDecRefBasePicMarking(r)
			if err != nil {
				return nil, err
			}
			marking = &m
		}
		additionalFlag, err := r.ReadBool("additional_prefix_nal_unit_extension_flag")
		if err != nil {
			return nil, err
		}
		refBasePic = &PrefixNALUnitRef{
			StoreRefBasePicFlag:                  storeRefBasePicFlag,
			DecRefBasePicMarking:                 marking,
			AdditionalPrefixNALUnitExtensionFlag: additionalFlag,
		}
	}

	return &PrefixNALUnit{HeaderExtension: ext, RefBasePic: refBasePic}, nil
}

// SVCSeqParameterSetExtension is the SVC SPS extension carried by a subset
// SPS whose base profile_idc is 83 or 86 (spec F.7.3.2.1.4).
type SVCSeqParameterSetExtension struct {
	InterLayerDeblockingFilterControlPresentFlag bool
	ExtendedSpatialScalabilityIDC                uint8
	ChromaPhaseXPlus1Flag                        bool
	ChromaPhaseYPlus1                            uint8
	SeqRefLayerChromaPhaseXPlus1Flag             bool
	SeqRefLayerChromaPhaseYPlus1                 uint8
	SeqScaledRefLayerLeftOffset                  int32
	SeqScaledRefLayerTopOffset                   int32
	SeqScaledRefLayerRightOffset                 int32
	SeqScaledRefLayerBottomOffset                int32
	SeqTcoeffLevelPredictionFlag                 bool
	AdaptiveTcoeffLevelPredictionFlag             bool
	SliceHeaderRestrictionFlag                   bool
	SVCVUIParametersPresentFlag                  bool
}

func readSVCSeqParameterSetExtension(r *BitReader, sps *SPS) (*SVCSeqParameterSetExtension, error) {
	interLayerDeblock, err := r.ReadBool("inter_layer_deblocking_filter_control_present_flag")
	if err != nil {
		return nil, err
	}
	essIDC, err := r.ReadBits(2, "extended_spatial_scalability_idc")
	if err != nil {
		return nil, err
	}
	chromaArrayType := sps.ChromaInfo.ChromaArrayType()

	var chromaPhaseXFlag bool
	if chromaArrayType == 1 || chromaArrayType == 2 {
		chromaPhaseXFlag, err = r.ReadBool("chroma_phase_x_plus1_flag")
		if err != nil {
			return nil, err
		}
	}
	chromaPhaseY, err := readChromaPhaseYPlus1(r, chromaArrayType)
	if err != nil {
		return nil, err
	}

	var refPhaseXFlag bool
	var refPhaseY uint8
	var left, top, right, bottom int32
	if essIDC == 1 {
		if chromaArrayType == 1 || chromaArrayType == 2 {
			refPhaseXFlag, err = r.ReadBool("seq_ref_layer_chroma_phase_x_plus1_flag")
			if err != nil {
				return nil, err
			}
		}
		refPhaseY, err = readChromaPhaseYPlus1(r, chromaArrayType)
		if err != nil {
			return nil, err
		}
		if left, err = r.ReadSE("seq_scaled_ref_layer_left_offset"); err != nil {
			return nil, err
		}
		if top, err = r.ReadSE("seq_scaled_ref_layer_top_offset"); err != nil {
			return nil, err
		}
		if right, err = r.ReadSE("seq_scaled_ref_layer_right_offset"); err != nil {
			return nil, err
		}
		if bottom, err = r.ReadSE("seq_scaled_ref_layer_bottom_offset"); err != nil {
			return nil, err
		}
	} else if chromaArrayType != 0 {
		refPhaseY = 1
	}

	tcoeffFlag, err := r.ReadBool("seq_tcoeff_level_prediction_flag")
	if err != nil {
		return nil, err
	}
	var adaptiveTcoeffFlag bool
	if tcoeffFlag {
		adaptiveTcoeffFlag, err = r.ReadBool("adaptive_tcoeff_level_prediction_flag")
		if err != nil {
			return nil, err
		}
	}
	sliceHeaderRestrictionFlag, err := r.ReadBool("slice_header_restriction_flag")
	if err != nil {
		return nil, err
	}
	vuiPresent, err := r.ReadBool("svc_vui_parameters_present_flag")
	if err != nil {
		return nil, err
	}

	return &SVCSeqParameterSetExtension{
		InterLayerDeblockingFilterControlPresentFlag: interLayerDeblock,
		ExtendedSpatialScalabilityIDC:                uint8(essIDC),
		ChromaPhaseXPlus1Flag:                        chromaPhaseXFlag,
		ChromaPhaseYPlus1:                            chromaPhaseY,
		SeqRefLayerChromaPhaseXPlus1Flag:              refPhaseXFlag,
		SeqRefLayerChromaPhaseYPlus1:                  refPhaseY,
		SeqScaledRefLayerLeftOffset:                   left,
		SeqScaledRefLayerTopOffset:                     top,
		SeqScaledRefLayerRightOffset:                   right,
		SeqScaledRefLayerBottomOffset:                  bottom,
		SeqTcoeffLevelPredictionFlag:                   tcoeffFlag,
		AdaptiveTcoeffLevelPredictionFlag:              adaptiveTcoeffFlag,
		SliceHeaderRestrictionFlag:                      sliceHeaderRestrictionFlag,
		SVCVUIParametersPresentFlag:                     vuiPresent,
	}, nil
}

func readChromaPhaseYPlus1(r *BitReader, chromaArrayType uint8) (uint8, error) {
	if chromaArrayType == 1 {
		v, err := r.ReadBits(2, "chroma_phase_y_plus1")
		if err != nil {
			return 0, err
		}
		return uint8(v), nil
	}
	if chromaArrayType == 0 {
		return 0, nil
	}
	return 1, nil
}

// MVCView is a single view entry within the MVC SPS extension.
type MVCView struct {
	ViewID         uint16
	AnchorRefsL0   []uint16
	AnchorRefsL1   []uint16
	NonAnchorRefsL0 []uint16
	NonAnchorRefsL1 []uint16
}

// MVCApplicableOp is an applicable operation within an MVC level value.
type MVCApplicableOp struct {
	TemporalID          uint8
	NumTargetViewsMinus1 uint16
	TargetViewIDs        []uint16
	NumViewsMinus1       uint16
}

// MVCLevelValue is a single level-value entry with its applicable
// operations, within the MVC SPS extension.
type MVCLevelValue struct {
	LevelIDC        uint8
	ApplicableOps   []MVCApplicableOp
}

// MVCSeqParameterSetExtension is the MVC SPS extension carried by a subset
// SPS whose base profile_idc is 118, 128, or 134 (spec G.7.3.2.1.4).
type MVCSeqParameterSetExtension struct {
	Views       []MVCView
	LevelValues []MVCLevelValue
}

func readUEBounded(r *BitReader, label string, max uint32) (uint16, error) {
	val, err := r.ReadUE(label)
	if err != nil {
		return 0, err
	}
	if val > max {
		return 0, outOfRange(label, int64(val), int64(max))
	}
	return uint16(val), nil
}

func readMVCSeqParameterSetExtension(r *BitReader) (*MVCSeqParameterSetExtension, error) {
	numViewsMinus1, err := r.ReadUE("num_views_minus1")
	if err != nil {
		return nil, err
	}
	if numViewsMinus1 > 1023 {
		return nil, outOfRange("num_views_minus1", int64(numViewsMinus1), 1023)
	}

	views := make([]MVCView, numViewsMinus1+1)
	for i := range views {
		viewID, err := readUEBounded(r, "view_id", 1023)
		if err != nil {
			return nil, err
		}
		views[i] = MVCView{ViewID: viewID}
	}

	for i := 1; i <= int(numViewsMinus1); i++ {
		n0, err := r.ReadUE("num_anchor_refs_l0")
		if err != nil {
			return nil, err
		}
		if n0 > 15 {
			return nil, outOfRange("num_anchor_refs_l0", int64(n0), 15)
		}
		for j := uint32(0); j < n0; j++ {
			ref, err := readUEBounded(r, "anchor_ref_l0", 1023)
			if err != nil {
				return nil, err
			}
			views[i].AnchorRefsL0 = append(views[i].AnchorRefsL0, ref)
		}
		n1, err := r.ReadUE("num_anchor_refs_l1")
		if err != nil {
			return nil, err
		}
		if n1 > 15 {
			return nil, outOfRange("num_anchor_refs_l1", int64(n1), 15)
		}
		for j := uint32(0); j < n1; j++ {
			ref, err := readUEBounded(r, "anchor_ref_l1", 1023)
			if err != nil {
				return nil, err
			}
			views[i].AnchorRefsL1 = append(views[i].AnchorRefsL1, ref)
		}
	}

	for i := 1; i <= int(numViewsMinus1); i++ {
		n0, err := r.ReadUE("num_non_anchor_refs_l0")
		if err != nil {
			return nil, err
		}
		if n0 > 15 {
			return nil, outOfRange("num_non_anchor_refs_l0", int64(n0), 15)
		}
		for j := uint32(0); j < n0; j++ {
			ref, err := readUEBounded(r, "non_anchor_ref_l0", 1023)
			if err != nil {
				return nil, err
			}
			views[i].NonAnchorRefsL0 = append(views[i].NonAnchorRefsL0, ref)
		}
		n1, err := r.ReadUE("num_non_anchor_refs_l1")
		if err != nil {
			return nil, err
		}
		if n1 > 15 {
			return nil, outOfRange("num_non_anchor_refs_l1", int64(n1), 15)
		}
		for j := uint32(0); j < n1; j++ {
			ref, err := readUEBounded(r, "non_anchor_ref_l1", 1023)
			if err != nil {
				return nil, err
			}
			views[i].NonAnchorRefsL1 = append(views[i].NonAnchorRefsL1, ref)
		}
	}

	numLevelValuesMinus1, err := r.ReadUE("num_level_values_signalled_minus1")
	if err != nil {
		return nil, err
	}
	if numLevelValuesMinus1 > 63 {
		return nil, outOfRange("num_level_values_signalled_minus1", int64(numLevelValuesMinus1), 63)
	}

	levelValues := make([]MVCLevelValue, numLevelValuesMinus1+1)
	for i := range levelValues {
		levelIDC, err := r.ReadBits(8, "level_idc")
		if err != nil {
			return nil, err
		}
		numOpsMinus1, err := r.ReadUE("num_applicable_ops_minus1")
		if err != nil {
			return nil, err
		}
		if numOpsMinus1 > 1023 {
			return nil, outOfRange("num_applicable_ops_minus1", int64(numOpsMinus1), 1023)
		}
		ops := make([]MVCApplicableOp, numOpsMinus1+1)
		for j := range ops {
			temporalID, err := r.ReadBits(3, "applicable_op_temporal_id")
			if err != nil {
				return nil, err
			}
			numTargetViewsMinus1, err := readUEBounded(r, "applicable_op_num_target_views_minus1", 1023)
			if err != nil {
				return nil, err
			}
			targetViewIDs := make([]uint16, numTargetViewsMinus1+1)
			for k := range targetViewIDs {
				id, err := readUEBounded(r, "applicable_op_target_view_id", 1023)
				if err != nil {
					return nil, err
				}
				targetViewIDs[k] = id
			}
			numViewsMinus1, err := readUEBounded(r, "applicable_op_num_views_minus1", 1023)
			if err != nil {
				return nil, err
			}
			ops[j] = MVCApplicableOp{
				TemporalID:           uint8(temporalID),
				NumTargetViewsMinus1: numTargetViewsMinus1,
				TargetViewIDs:        targetViewIDs,
				NumViewsMinus1:       numViewsMinus1,
			}
		}
		levelValues[i] = MVCLevelValue{LevelIDC: uint8(levelIDC), ApplicableOps: ops}
	}

	return &MVCSeqParameterSetExtension{Views: views, LevelValues: levelValues}, nil
}

// SubsetSPSExtensionKind identifies which profile-dependent extension a
// subset SPS carries.
type SubsetSPSExtensionKind int

const (
	SubsetSPSExtensionSVC SubsetSPSExtensionKind = iota
	SubsetSPSExtensionMVC
	// SubsetSPSExtensionMVCD marks an MVCD extension (profiles 135/138/139)
	// whose fields are not decoded; callers must not assume the RBSP has
	// been consumed to its trailing bits.
	SubsetSPSExtensionMVCD
)

// SubsetSPSExtension is the profile-dependent extension data within a
// subset SPS.
type SubsetSPSExtension struct {
	Kind                         SubsetSPSExtensionKind
	SVC                          *SVCSeqParameterSetExtension
	MVC                          *MVCSeqParameterSetExtension
	MVCVUIParametersPresentFlag  bool
}

// SubsetSPS is a parsed subset_seq_parameter_set_rbsp() (NAL unit type 15,
// spec 7.3.2.1.3). VUI parameter extensions nested inside the SVC/MVC
// extension are detected (by their presence flag) but not decoded; when
// present, additional_extension2_flag defaults to false and
// rbsp_trailing_bits validation is skipped, since the unparsed VUI
// extension data precedes it in the bitstream.
type SubsetSPS struct {
	SPS                      *SPS
	Extension                *SubsetSPSExtension
	AdditionalExtension2Flag bool
}

// ParseSubsetSPS decodes a subset_seq_parameter_set_rbsp from RBSP bytes.
func ParseSubsetSPS(rbsp []byte) (*SubsetSPS, error) {
	r := NewBitReader(rbsp)
	sps, err := ReadSeqParameterSetData(r)
	if err != nil {
		return nil, err
	}

	var extension *SubsetSPSExtension
	hasUnparsedVUI := false
	switch sps.ProfileIDC {
	case 83, 86:
		if _, err := r.ReadBool("bit_equal_to_one"); err != nil {
			return nil, err
		}
		ext, err := readSVCSeqParameterSetExtension(r, sps)
		if err != nil {
			return nil, err
		}
		extension = &SubsetSPSExtension{Kind: SubsetSPSExtensionSVC, SVC: ext}
		hasUnparsedVUI = ext.SVCVUIParametersPresentFlag
	case 118, 128, 134:
		if _, err := r.ReadBool("bit_equal_to_one"); err != nil {
			return nil, err
		}
		ext, err := readMVCSeqParameterSetExtension(r)
		if err != nil {
			return nil, err
		}
		vuiPresent, err := r.ReadBool("mvc_vui_parameters_present_flag")
		if err != nil {
			return nil, err
		}
		extension = &SubsetSPSExtension{Kind: SubsetSPSExtensionMVC, MVC: ext, MVCVUIParametersPresentFlag: vuiPresent}
		hasUnparsedVUI = vuiPresent
	case 135, 138, 139:
		if _, err := r.ReadBool("bit_equal_to_one"); err != nil {
			return nil, err
		}
		extension = &SubsetSPSExtension{Kind: SubsetSPSExtensionMVCD}
		hasUnparsedVUI = true
	}

	var additionalExtension2Flag bool
	if !hasUnparsedVUI {
		additionalExtension2Flag, err = r.ReadBool("additional_extension2_flag")
		if err != nil {
			return nil, err
		}
		if err := r.FinishRBSP(); err != nil {
			return nil, err
		}
	}

	return &SubsetSPS{SPS: sps, Extension: extension, AdditionalExtension2Flag: additionalExtension2Flag}, nil
}
