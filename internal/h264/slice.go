package h264

// SliceFamily is the P/B/I/SP/SI classification a slice_type value encodes,
// independent of whether it applies to every slice in the picture.
type SliceFamily int

const (
	SliceFamilyP SliceFamily = iota
	SliceFamilyB
	SliceFamilyI
	SliceFamilySP
	SliceFamilySI
)

// SliceType is a decoded slice_type: a [SliceFamily] plus whether the type
// applies to every slice in the picture (values 5-9 vs 0-4).
type SliceType struct {
	Family    SliceFamily
	Exclusive bool
}

func sliceTypeFromID(id uint32) (SliceType, error) {
	switch id {
	case 0:
		return SliceType{Family: SliceFamilyP}, nil
	case 1:
		return SliceType{Family: SliceFamilyB}, nil
	case 2:
		return SliceType{Family: SliceFamilyI}, nil
	case 3:
		return SliceType{Family: SliceFamilySP}, nil
	case 4:
		return SliceType{Family: SliceFamilySI}, nil
	case 5:
		return SliceType{Family: SliceFamilyP, Exclusive: true}, nil
	case 6:
		return SliceType{Family: SliceFamilyB, Exclusive: true}, nil
	case 7:
		return SliceType{Family: SliceFamilyI, Exclusive: true}, nil
	case 8:
		return SliceType{Family: SliceFamilySP, Exclusive: true}, nil
	case 9:
		return SliceType{Family: SliceFamilySI, Exclusive: true}, nil
	default:
		return SliceType{}, &SyntaxError{Field: "slice_type", Value: int64(id), Reason: "must be 0-9"}
	}
}

// ColourPlane identifies colour_plane_id, present only when
// separate_colour_plane_flag is set.
type ColourPlane uint8

const (
	ColourPlaneY ColourPlane = iota
	ColourPlaneCb
	ColourPlaneCr
)

func colourPlaneFromID(id uint32) (ColourPlane, error) {
	switch id {
	case 0:
		return ColourPlaneY, nil
	case 1:
		return ColourPlaneCb, nil
	case 2:
		return ColourPlaneCr, nil
	default:
		return 0, &SyntaxError{Field: "colour_plane_id", Value: int64(id), Reason: "must be 0, 1, or 2"}
	}
}

// Field identifies top or bottom field parity.
type Field int

const (
	FieldTop Field = iota
	FieldBottom
)

// FieldPic is field_pic_flag/bottom_field_flag, collapsed to either a whole
// frame or a single named field.
type FieldPic struct {
	IsField bool
	Field   Field
}

// PicOrderCountLsb is the decoded picture-order-count fields, whose shape
// depends on the referenced SPS's pic_order_cnt_type.
type PicOrderCountLsb struct {
	HasValue                  bool
	PicOrderCntLsb            uint32
	HasDeltaBottom             bool
	DeltaPicOrderCntBottom     int32
	FieldsDelta                [2]int32
	IsFieldsDelta              bool
}

// NumRefIdxActive is the optional override of num_ref_idx_l{0,1}_active_minus1.
type NumRefIdxActive struct {
	IsB                            bool
	NumRefIdxL0ActiveMinus1         uint32
	NumRefIdxL1ActiveMinus1         uint32
}

// ModificationOfPicNumsKind identifies one entry of a ref_pic_list
// modification loop.
type ModificationOfPicNumsKind int

const (
	ModifyPicNumsSubtract ModificationOfPicNumsKind = iota
	ModifyPicNumsAdd
	ModifyPicNumsLongTermRef
)

// ModificationOfPicNums is one modification_of_pic_nums_idc entry.
type ModificationOfPicNums struct {
	Kind  ModificationOfPicNumsKind
	Value uint32
}

func readModificationList(r *BitReader) ([]ModificationOfPicNums, error) {
	present, err := r.ReadBool("ref_pic_list_modification_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var result []ModificationOfPicNums
	for {
		idc, err := r.ReadUE("modification_of_pic_nums_idc")
		if err != nil {
			return nil, err
		}
		switch idc {
		case 0:
			v, err := r.ReadUE("abs_diff_pic_num_minus1")
			if err != nil {
				return nil, err
			}
			result = append(result, ModificationOfPicNums{Kind: ModifyPicNumsSubtract, Value: v})
		case 1:
			v, err := r.ReadUE("abs_diff_pic_num_minus1")
			if err != nil {
				return nil, err
			}
			result = append(result, ModificationOfPicNums{Kind: ModifyPicNumsAdd, Value: v})
		case 2:
			v, err := r.ReadUE("long_term_pic_num")
			if err != nil {
				return nil, err
			}
			result = append(result, ModificationOfPicNums{Kind: ModifyPicNumsLongTermRef, Value: v})
		case 3:
			return result, nil
		default:
			return nil, &SyntaxError{Field: "modification_of_pic_nums_idc", Value: int64(idc), Reason: "must be 0-3"}
		}
	}
}

// RefPicListModifications is the decoded ref_pic_list_modification() for
// one or two reference lists, depending on slice family.
type RefPicListModifications struct {
	IsI  bool
	IsB  bool
	L0   []ModificationOfPicNums
	L1   []ModificationOfPicNums
}

func readRefPicListModifications(r *BitReader, family SliceFamily) (RefPicListModifications, error) {
	switch family {
	case SliceFamilyI, SliceFamilySI:
		return RefPicListModifications{IsI: true}, nil
	case SliceFamilyB:
		l0, err := readModificationList(r)
		if err != nil {
			return RefPicListModifications{}, err
		}
		l1, err := readModificationList(r)
		if err != nil {
			return RefPicListModifications{}, err
		}
		return RefPicListModifications{IsB: true, L0: l0, L1: l1}, nil
	default: // P, SP
		l0, err := readModificationList(r)
		if err != nil {
			return RefPicListModifications{}, err
		}
		return RefPicListModifications{L0: l0}, nil
	}
}

// PredWeight is one luma_weight_l0/offset_l0 (or l1, or chroma) pair.
type PredWeight struct {
	Weight, Offset int32
}

// PredWeightTable is the explicit-weighted-prediction table, present only
// when the referenced PPS enables weighted prediction for this slice's
// family.
type PredWeightTable struct {
	LumaLog2WeightDenom    uint32
	HasChromaLog2WeightDenom bool
	ChromaLog2WeightDenom  uint32
	LumaWeights            []*PredWeight
	ChromaWeights          [][]PredWeight
}

func readPredWeightTable(r *BitReader, slice SliceType, pps *PPS, sps *SPS, numRefActive *NumRefIdxActive) (PredWeightTable, error) {
	chromaIsMonochrome := sps.ChromaInfo.SeparateColourPlaneFlag || sps.ChromaInfo.ChromaFormat == ChromaMonochrome
	var t PredWeightTable
	var err error
	if t.LumaLog2WeightDenom, err = r.ReadUE("luma_log2_weight_denom"); err != nil {
		return PredWeightTable{}, err
	}
	if !chromaIsMonochrome {
		if t.ChromaLog2WeightDenom, err = r.ReadUE("chroma_log2_weight_denom"); err != nil {
			return PredWeightTable{}, err
		}
		t.HasChromaLog2WeightDenom = true
	}
	numRefIdxL0ActiveMinus1 := pps.NumRefIdxL0DefaultActiveMinus1
	if numRefActive != nil {
		numRefIdxL0ActiveMinus1 = numRefActive.NumRefIdxL0ActiveMinus1
	}
	for i := uint32(0); i <= numRefIdxL0ActiveMinus1; i++ {
		lumaFlag, err := r.ReadBool("luma_weight_l0_flag")
		if err != nil {
			return PredWeightTable{}, err
		}
		if lumaFlag {
			w, err := r.ReadSE("luma_weight_l0")
			if err != nil {
				return PredWeightTable{}, err
			}
			o, err := r.ReadSE("luma_offset_l0")
			if err != nil {
				return PredWeightTable{}, err
			}
			t.LumaWeights = append(t.LumaWeights, &PredWeight{Weight: w, Offset: o})
		} else {
			t.LumaWeights = append(t.LumaWeights, nil)
		}
		if !chromaIsMonochrome {
			var weights []PredWeight
			chromaFlag, err := r.ReadBool("chroma_weight_l0_flag")
			if err != nil {
				return PredWeightTable{}, err
			}
			if chromaFlag {
				for j := 0; j < 2; j++ {
					w, err := r.ReadSE("chroma_weight_l0")
					if err != nil {
						return PredWeightTable{}, err
					}
					o, err := r.ReadSE("chroma_offset_l0")
					if err != nil {
						return PredWeightTable{}, err
					}
					weights = append(weights, PredWeight{Weight: w, Offset: o})
				}
			}
			t.ChromaWeights = append(t.ChromaWeights, weights)
		}
	}
	if slice.Family == SliceFamilyB {
		return PredWeightTable{}, annotate(ErrUnsupportedSyntax, "B frame pred_weight_table (L1 weights not yet decoded)")
	}
	return t, nil
}

// MemoryManagementControlOperationKind identifies one of the six
// memory_management_control_operation values.
type MemoryManagementControlOperationKind int

const (
	MMCOShortTermUnusedForRef MemoryManagementControlOperationKind = iota + 1
	MMCOLongTermUnusedForRef
	MMCOShortTermUsedForLongTerm
	MMCOMaxUsedLongTermFrameRef
	MMCOAllRefPicturesUnused
	MMCOCurrentUsedForLongTerm
)

// MemoryManagementControlOperation is one adaptive_ref_pic_marking_mode
// operation.
type MemoryManagementControlOperation struct {
	Kind                         MemoryManagementControlOperationKind
	DifferenceOfPicNumsMinus1    uint32
	LongTermPicNum               uint32
	LongTermFrameIdx              uint32
	MaxLongTermFrameIdxPlus1       uint32
}

// DecRefPicMarking is the decoded dec_ref_pic_marking(), present only when
// nal_ref_idc != 0.
type DecRefPicMarking struct {
	IsIDR                        bool
	NoOutputOfPriorPicsFlag       bool
	LongTermReferenceFlag         bool
	IsAdaptive                    bool
	Operations                    []MemoryManagementControlOperation
}

func readDecRefPicMarking(r *BitReader, header Header) (DecRefPicMarking, error) {
	if header.UnitType() == UnitTypeSliceIDR {
		var d DecRefPicMarking
		d.IsIDR = true
		var err error
		if d.NoOutputOfPriorPicsFlag, err = r.ReadBool("no_output_of_prior_pics_flag"); err != nil {
			return DecRefPicMarking{}, err
		}
		if d.LongTermReferenceFlag, err = r.ReadBool("long_term_reference_flag"); err != nil {
			return DecRefPicMarking{}, err
		}
		return d, nil
	}
	adaptive, err := r.ReadBool("adaptive_ref_pic_marking_mode_flag")
	if err != nil {
		return DecRefPicMarking{}, err
	}
	if !adaptive {
		return DecRefPicMarking{}, nil
	}
	var ops []MemoryManagementControlOperation
	for {
		op, err := r.ReadUE("memory_management_control_operation")
		if err != nil {
			return DecRefPicMarking{}, err
		}
		switch op {
		case 0:
			return DecRefPicMarking{IsAdaptive: true, Operations: ops}, nil
		case 1:
			v, err := r.ReadUE("difference_of_pic_nums_minus1")
			if err != nil {
				return DecRefPicMarking{}, err
			}
			ops = append(ops, MemoryManagementControlOperation{Kind: MMCOShortTermUnusedForRef, DifferenceOfPicNumsMinus1: v})
		case 2:
			v, err := r.ReadUE("long_term_pic_num")
			if err != nil {
				return DecRefPicMarking{}, err
			}
			ops = append(ops, MemoryManagementControlOperation{Kind: MMCOLongTermUnusedForRef, LongTermPicNum: v})
		case 3:
			d, err := r.ReadUE("difference_of_pic_nums_minus1")
			if err != nil {
				return DecRefPicMarking{}, err
			}
			l, err := r.ReadUE("long_term_frame_idx")
			if err != nil {
				return DecRefPicMarking{}, err
			}
			ops = append(ops, MemoryManagementControlOperation{Kind: MMCOShortTermUsedForLongTerm, DifferenceOfPicNumsMinus1: d, LongTermFrameIdx: l})
		case 4:
			v, err := r.ReadUE("max_long_term_frame_idx_plus1")
			if err != nil {
				return DecRefPicMarking{}, err
			}
			ops = append(ops, MemoryManagementControlOperation{Kind: MMCOMaxUsedLongTermFrameRef, MaxLongTermFrameIdxPlus1: v})
		case 5:
			ops = append(ops, MemoryManagementControlOperation{Kind: MMCOAllRefPicturesUnused})
		case 6:
			v, err := r.ReadUE("long_term_frame_idx")
			if err != nil {
				return DecRefPicMarking{}, err
			}
			ops = append(ops, MemoryManagementControlOperation{Kind: MMCOCurrentUsedForLongTerm, LongTermFrameIdx: v})
		default:
			return DecRefPicMarking{}, &SyntaxError{Field: "memory_management_control_operation", Value: int64(op), Reason: "must be 0-6"}
		}
	}
}

// SliceHeader is a decoded slice_header() (component H).
type SliceHeader struct {
	FirstMbInSlice                uint32
	SliceType                     SliceType
	ColourPlane                   *ColourPlane
	FrameNum                      uint32
	FieldPic                      FieldPic
	IdrPicID                      *uint32
	PicOrderCntLsb                *PicOrderCountLsb
	RedundantPicCnt               *uint32
	DirectSpatialMvPredFlag       *bool
	NumRefIdxActive               *NumRefIdxActive
	RefPicListModification        *RefPicListModifications
	PredWeightTable               *PredWeightTable
	DecRefPicMarking              *DecRefPicMarking
	CabacInitIdc                  *uint32
	SliceQpDelta                  int32
	SpForSwitchFlag               *bool
	SliceQs                       *uint32
	DisableDeblockingFilterIdc    uint8
}

// ParseSliceHeader decodes slice_header() from RBSP bytes (header byte
// already stripped), resolving pic_parameter_set_id/seq_parameter_set_id
// against store. It returns the header plus the SPS/PPS it was parsed
// against, since most of the header's shape depends on both.
func ParseSliceHeader(rbsp []byte, header Header, store *Store) (*SliceHeader, *SPS, *PPS, error) {
	r := NewBitReader(rbsp)
	var h SliceHeader
	var err error
	if h.FirstMbInSlice, err = r.ReadUE("first_mb_in_slice"); err != nil {
		return nil, nil, nil, err
	}
	sliceTypeID, err := r.ReadUE("slice_type")
	if err != nil {
		return nil, nil, nil, err
	}
	if h.SliceType, err = sliceTypeFromID(sliceTypeID); err != nil {
		return nil, nil, nil, err
	}
	ppsID, err := r.ReadUE("pic_parameter_set_id")
	if err != nil {
		return nil, nil, nil, err
	}
	if ppsID > 255 {
		return nil, nil, nil, outOfRange("pic_parameter_set_id", int64(ppsID), 255)
	}
	pps, ok := store.PPS(uint8(ppsID))
	if !ok {
		return nil, nil, nil, annotate(ErrUnresolvedReference, "pic_parameter_set_id")
	}
	sps, ok := store.SPS(pps.SeqParameterSetID)
	if !ok {
		return nil, nil, nil, annotate(ErrUnresolvedReference, "seq_parameter_set_id")
	}
	if sps.ChromaInfo.SeparateColourPlaneFlag {
		id, err := r.ReadBits(2, "colour_plane_id")
		if err != nil {
			return nil, nil, nil, err
		}
		cp, err := colourPlaneFromID(id)
		if err != nil {
			return nil, nil, nil, err
		}
		h.ColourPlane = &cp
	}
	if h.FrameNum, err = r.ReadBits(uint(sps.Log2MaxFrameNum()), "frame_num"); err != nil {
		return nil, nil, nil, err
	}
	if sps.FrameMbsFlags.FieldsInUse {
		fieldPicFlag, err := r.ReadBool("field_pic_flag")
		if err != nil {
			return nil, nil, nil, err
		}
		if fieldPicFlag {
			bottom, err := r.ReadBool("bottom_field_flag")
			if err != nil {
				return nil, nil, nil, err
			}
			h.FieldPic.IsField = true
			if bottom {
				h.FieldPic.Field = FieldBottom
			} else {
				h.FieldPic.Field = FieldTop
			}
		}
	}
	if header.UnitType() == UnitTypeSliceIDR {
		v, err := r.ReadUE("idr_pic_id")
		if err != nil {
			return nil, nil, nil, err
		}
		h.IdrPicID = &v
	}
	switch sps.PicOrderCnt.Type {
	case 0:
		lsb, err := r.ReadBits(uint(sps.PicOrderCnt.Log2MaxPicOrderCntLsbMinus4)+4, "pic_order_cnt_lsb")
		if err != nil {
			return nil, nil, nil, err
		}
		poc := PicOrderCountLsb{HasValue: true, PicOrderCntLsb: lsb}
		if pps.BottomFieldPicOrderInFramePresentFlag && !h.FieldPic.IsField {
			delta, err := r.ReadSE("delta_pic_order_cnt_bottom")
			if err != nil {
				return nil, nil, nil, err
			}
			poc.HasDeltaBottom = true
			poc.DeltaPicOrderCntBottom = delta
		}
		h.PicOrderCntLsb = &poc
	case 1:
		if !sps.PicOrderCnt.DeltaPicOrderAlwaysZeroFlag {
			var d [2]int32
			if d[0], err = r.ReadSE("delta_pic_order_cnt_0"); err != nil {
				return nil, nil, nil, err
			}
			if d[1], err = r.ReadSE("delta_pic_order_cnt_1"); err != nil {
				return nil, nil, nil, err
			}
			h.PicOrderCntLsb = &PicOrderCountLsb{HasValue: true, IsFieldsDelta: true, FieldsDelta: d}
		}
	}
	if pps.RedundantPicCntPresentFlag {
		v, err := r.ReadUE("redundant_pic_cnt")
		if err != nil {
			return nil, nil, nil, err
		}
		h.RedundantPicCnt = &v
	}
	if h.SliceType.Family == SliceFamilyB {
		v, err := r.ReadBool("direct_spatial_mv_pred_flag")
		if err != nil {
			return nil, nil, nil, err
		}
		h.DirectSpatialMvPredFlag = &v
	}
	if h.SliceType.Family == SliceFamilyP || h.SliceType.Family == SliceFamilySP || h.SliceType.Family == SliceFamilyB {
		override, err := r.ReadBool("num_ref_idx_active_override_flag")
		if err != nil {
			return nil, nil, nil, err
		}
		if override {
			l0, err := readNumRefIdx(r, "num_ref_idx_l0_active_minus1")
			if err != nil {
				return nil, nil, nil, err
			}
			n := NumRefIdxActive{NumRefIdxL0ActiveMinus1: l0}
			if h.SliceType.Family == SliceFamilyB {
				l1, err := readNumRefIdx(r, "num_ref_idx_l1_active_minus1")
				if err != nil {
					return nil, nil, nil, err
				}
				n.IsB = true
				n.NumRefIdxL1ActiveMinus1 = l1
			}
			h.NumRefIdxActive = &n
		}
	}
	if header.UnitType() == UnitTypeSliceExtension || header.UnitType() == UnitTypeSliceExtensionViewComp {
		return nil, nil, nil, annotate(ErrUnsupportedSyntax, "NALU types 20 and 21 not yet supported")
	}
	refPicListMod, err := readRefPicListModifications(r, h.SliceType.Family)
	if err != nil {
		return nil, nil, nil, err
	}
	h.RefPicListModification = &refPicListMod
	needsWeightTable := (pps.WeightedPredFlag && (h.SliceType.Family == SliceFamilyP || h.SliceType.Family == SliceFamilySP)) ||
		(pps.WeightedBipredIdc == 1 && h.SliceType.Family == SliceFamilyB)
	if needsWeightTable {
		t, err := readPredWeightTable(r, h.SliceType, pps, sps, h.NumRefIdxActive)
		if err != nil {
			return nil, nil, nil, err
		}
		h.PredWeightTable = &t
	}
	if header.RefIdc() != 0 {
		d, err := readDecRefPicMarking(r, header)
		if err != nil {
			return nil, nil, nil, err
		}
		h.DecRefPicMarking = &d
	}
	if pps.EntropyCodingModeFlag && h.SliceType.Family != SliceFamilyI && h.SliceType.Family != SliceFamilySI {
		v, err := r.ReadUE("cabac_init_idc")
		if err != nil {
			return nil, nil, nil, err
		}
		h.CabacInitIdc = &v
	}
	if h.SliceQpDelta, err = r.ReadSE("slice_qp_delta"); err != nil {
		return nil, nil, nil, err
	}
	if h.SliceQpDelta > 51 {
		return nil, nil, nil, outOfRange("slice_qp_delta", int64(h.SliceQpDelta), 51)
	}
	if h.SliceType.Family == SliceFamilySP || h.SliceType.Family == SliceFamilySI {
		if h.SliceType.Family == SliceFamilySP {
			v, err := r.ReadBool("sp_for_switch_flag")
			if err != nil {
				return nil, nil, nil, err
			}
			h.SpForSwitchFlag = &v
		}
		delta, err := r.ReadSE("slice_qs_delta")
		if err != nil {
			return nil, nil, nil, err
		}
		qsY := 26 + pps.PicInitQsMinus26 + delta
		if qsY < 0 || qsY > 51 {
			return nil, nil, nil, &SyntaxError{Field: "slice_qs_delta", Value: int64(delta), Reason: "computed QSY out of [0, 51]"}
		}
		v := uint32(qsY)
		h.SliceQs = &v
	}
	if pps.DeblockingFilterControlPresentFlag {
		idc, err := r.ReadUE("disable_deblocking_filter_idc")
		if err != nil {
			return nil, nil, nil, err
		}
		if idc > 6 {
			return nil, nil, nil, outOfRange("disable_deblocking_filter_idc", int64(idc), 6)
		}
		h.DisableDeblockingFilterIdc = uint8(idc)
		if h.DisableDeblockingFilterIdc != 1 {
			alpha, err := r.ReadSE("slice_alpha_c0_offset_div2")
			if err != nil {
				return nil, nil, nil, err
			}
			if alpha < -6 || alpha > 6 {
				return nil, nil, nil, outOfRange("slice_alpha_c0_offset_div2", int64(alpha), 6)
			}
			if _, err := r.ReadSE("slice_beta_offset_div2"); err != nil {
				return nil, nil, nil, err
			}
		}
	}
	more, err := r.HasMoreRBSPData("slice_header")
	if err != nil {
		return nil, nil, nil, err
	}
	if !more {
		return nil, nil, nil, annotate(ErrTruncated, "slice_header overran rbsp_trailing_bits")
	}
	return &h, sps, pps, nil
}
