package h264

import "math"

// SliceGroupChangeType identifies one of the three slice_group_map_type
// values (3, 4, 5) that describe a changing slice group.
type SliceGroupChangeType int

const (
	SliceGroupChangeBoxOut SliceGroupChangeType = iota
	SliceGroupChangeRasterScan
	SliceGroupChangeWipeOut
)

func sliceGroupChangeTypeFromID(id uint32) (SliceGroupChangeType, error) {
	switch id {
	case 3:
		return SliceGroupChangeBoxOut, nil
	case 4:
		return SliceGroupChangeRasterScan, nil
	case 5:
		return SliceGroupChangeWipeOut, nil
	default:
		return 0, &SyntaxError{Field: "slice_group_change_type", Value: int64(id), Reason: "must be 3, 4, or 5"}
	}
}

// SliceRect is one top_left/bottom_right pair of a foreground-and-leftover
// slice group.
type SliceRect struct {
	TopLeft, BottomRight uint32
}

func readSliceRect(r *BitReader) (SliceRect, error) {
	var s SliceRect
	var err error
	if s.TopLeft, err = r.ReadUE("top_left"); err != nil {
		return SliceRect{}, err
	}
	if s.BottomRight, err = r.ReadUE("bottom_right"); err != nil {
		return SliceRect{}, err
	}
	return s, nil
}

// SliceGroupMapType identifies which variant of SliceGroup was decoded.
type SliceGroupMapType int

const (
	SliceGroupMapInterleaved SliceGroupMapType = iota
	SliceGroupMapDispersed
	SliceGroupMapForegroundAndLeftover
	SliceGroupMapChanging
	SliceGroupMapExplicit
)

// SliceGroup decodes slice_group_map_type and the fields that follow it,
// present only when num_slice_groups_minus1 > 0.
type SliceGroup struct {
	MapType                        SliceGroupMapType
	NumSliceGroupsMinus1            uint32
	RunLengthMinus1                 []uint32      // Interleaved
	Rectangles                      []SliceRect   // ForegroundAndLeftover
	ChangeType                      SliceGroupChangeType // Changing
	ChangeDirectionFlag              bool          // Changing
	ChangeRateMinus1                 uint32        // Changing
	SliceGroupID                     []uint32      // Explicit
}

func readSliceGroup(r *BitReader, numSliceGroupsMinus1 uint32) (SliceGroup, error) {
	mapType, err := r.ReadUE("slice_group_map_type")
	if err != nil {
		return SliceGroup{}, err
	}
	sg := SliceGroup{NumSliceGroupsMinus1: numSliceGroupsMinus1}
	switch mapType {
	case 0:
		sg.MapType = SliceGroupMapInterleaved
		sg.RunLengthMinus1 = make([]uint32, numSliceGroupsMinus1+1)
		for i := range sg.RunLengthMinus1 {
			if sg.RunLengthMinus1[i], err = r.ReadUE("run_length_minus1"); err != nil {
				return SliceGroup{}, err
			}
		}
	case 1:
		sg.MapType = SliceGroupMapDispersed
	case 2:
		sg.MapType = SliceGroupMapForegroundAndLeftover
		sg.Rectangles = make([]SliceRect, numSliceGroupsMinus1+1)
		for i := range sg.Rectangles {
			if sg.Rectangles[i], err = readSliceRect(r); err != nil {
				return SliceGroup{}, err
			}
		}
	case 3, 4, 5:
		sg.MapType = SliceGroupMapChanging
		if sg.ChangeType, err = sliceGroupChangeTypeFromID(mapType); err != nil {
			return SliceGroup{}, err
		}
		if sg.ChangeDirectionFlag, err = r.ReadBool("slice_group_change_direction_flag"); err != nil {
			return SliceGroup{}, err
		}
		if sg.ChangeRateMinus1, err = r.ReadUE("slice_group_change_rate_minus1"); err != nil {
			return SliceGroup{}, err
		}
	case 6:
		sg.MapType = SliceGroupMapExplicit
		picSizeInMapUnitsMinus1, err := r.ReadUE("pic_size_in_map_units_minus1")
		if err != nil {
			return SliceGroup{}, err
		}
		bitsPerID := uint(math.Ceil(math.Log2(1 + float64(numSliceGroupsMinus1))))
		if bitsPerID == 0 {
			bitsPerID = 1
		}
		sg.SliceGroupID = make([]uint32, picSizeInMapUnitsMinus1+1)
		for i := range sg.SliceGroupID {
			if sg.SliceGroupID[i], err = r.ReadBits(bitsPerID, "slice_group_id"); err != nil {
				return SliceGroup{}, err
			}
		}
	default:
		return SliceGroup{}, &SyntaxError{Field: "slice_group_map_type", Value: int64(mapType), Reason: "must be 0-6"}
	}
	return sg, nil
}

// PicScalingMatrix is pic_scaling_matrix(), present only when
// pic_scaling_matrix_present_flag is set. Each scaling list whose present
// flag is set is decoded and appended to List4x4 or List8x8; lists whose
// flag is clear are skipped, so a slice index is not the list number.
type PicScalingMatrix struct {
	List4x4 []ScalingList
	List8x8 []ScalingList
}

func readPicScalingMatrix(r *BitReader, sps *SPS, transform8x8ModeFlag bool) (*PicScalingMatrix, error) {
	present, err := r.ReadBool("pic_scaling_matrix_present_flag")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	count := 0
	if transform8x8ModeFlag {
		if sps.ChromaInfo.ChromaFormat == ChromaYUV444 {
			count = 6
		} else {
			count = 2
		}
	}
	m := &PicScalingMatrix{}
	for i := 0; i < 6+count; i++ {
		present, err := r.ReadBool("seq_scaling_list_present_flag")
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		if i < 6 {
			sl, err := readScalingList(r, 16, true)
			if err != nil {
				return nil, err
			}
			m.List4x4 = append(m.List4x4, sl)
		} else {
			sl, err := readScalingList(r, 64, true)
			if err != nil {
				return nil, err
			}
			m.List8x8 = append(m.List8x8, sl)
		}
	}
	return m, nil
}

// PPSExtra is the PPS's trailing extension fields, present when more RBSP
// data remains after redundant_pic_cnt_present_flag.
type PPSExtra struct {
	Transform8x8ModeFlag         bool
	PicScalingMatrix             *PicScalingMatrix
	SecondChromaQpIndexOffset    int32
}

func readPPSExtra(r *BitReader, sps *SPS) (*PPSExtra, error) {
	more, err := r.HasMoreRBSPData("transform_8x8_mode_flag")
	if err != nil {
		return nil, err
	}
	if !more {
		return nil, nil
	}
	e := &PPSExtra{}
	if e.Transform8x8ModeFlag, err = r.ReadBool("transform_8x8_mode_flag"); err != nil {
		return nil, err
	}
	if e.PicScalingMatrix, err = readPicScalingMatrix(r, sps, e.Transform8x8ModeFlag); err != nil {
		return nil, err
	}
	if e.SecondChromaQpIndexOffset, err = r.ReadSE("second_chroma_qp_index_offset"); err != nil {
		return nil, err
	}
	return e, nil
}

// PPS is a decoded picture parameter set (component G).
type PPS struct {
	PicParameterSetID                            uint8
	SeqParameterSetID                             uint8
	EntropyCodingModeFlag                         bool
	BottomFieldPicOrderInFramePresentFlag         bool
	SliceGroups                                   *SliceGroup
	NumRefIdxL0DefaultActiveMinus1                 uint32
	NumRefIdxL1DefaultActiveMinus1                 uint32
	WeightedPredFlag                               bool
	WeightedBipredIdc                              uint8
	PicInitQpMinus26                               int32
	PicInitQsMinus26                               int32
	ChromaQpIndexOffset                            int32
	DeblockingFilterControlPresentFlag             bool
	ConstrainedIntraPredFlag                       bool
	RedundantPicCntPresentFlag                     bool
	Extension                                      *PPSExtra
}

// ParsePPS decodes a complete pic_parameter_set_rbsp() from RBSP bytes
// (header byte already stripped). It resolves seq_parameter_set_id against
// store, returning [ErrUnresolvedReference] if the referenced SPS is
// missing, since several fields (pic_scaling_matrix's chroma-format-
// dependent count, PPSExtra) need the SPS to parse correctly.
func ParsePPS(rbsp []byte, store *Store) (*PPS, error) {
	r := NewBitReader(rbsp)
	id, err := r.ReadUE("pic_parameter_set_id")
	if err != nil {
		return nil, err
	}
	if id > 255 {
		return nil, outOfRange("pic_parameter_set_id", int64(id), 255)
	}
	spsID, err := r.ReadUE("seq_parameter_set_id")
	if err != nil {
		return nil, err
	}
	if spsID > 31 {
		return nil, outOfRange("seq_parameter_set_id", int64(spsID), 31)
	}
	sps, ok := store.SPS(uint8(spsID))
	if !ok {
		return nil, annotate(ErrUnresolvedReference, "seq_parameter_set_id")
	}
	pps := &PPS{PicParameterSetID: uint8(id), SeqParameterSetID: uint8(spsID)}
	if pps.EntropyCodingModeFlag, err = r.ReadBool("entropy_coding_mode_flag"); err != nil {
		return nil, err
	}
	if pps.BottomFieldPicOrderInFramePresentFlag, err = r.ReadBool("bottom_field_pic_order_in_frame_present_flag"); err != nil {
		return nil, err
	}
	if pps.SliceGroups, err = readSliceGroups(r); err != nil {
		return nil, err
	}
	if pps.NumRefIdxL0DefaultActiveMinus1, err = readNumRefIdx(r, "num_ref_idx_l0_default_active_minus1"); err != nil {
		return nil, err
	}
	if pps.NumRefIdxL1DefaultActiveMinus1, err = readNumRefIdx(r, "num_ref_idx_l1_default_active_minus1"); err != nil {
		return nil, err
	}
	if pps.WeightedPredFlag, err = r.ReadBool("weighted_pred_flag"); err != nil {
		return nil, err
	}
	wb, err := r.ReadBits(2, "weighted_bipred_idc")
	if err != nil {
		return nil, err
	}
	pps.WeightedBipredIdc = uint8(wb)
	if pps.PicInitQpMinus26, err = r.ReadSE("pic_init_qp_minus26"); err != nil {
		return nil, err
	}
	if pps.PicInitQsMinus26, err = r.ReadSE("pic_init_qs_minus26"); err != nil {
		return nil, err
	}
	if pps.ChromaQpIndexOffset, err = r.ReadSE("chroma_qp_index_offset"); err != nil {
		return nil, err
	}
	if pps.DeblockingFilterControlPresentFlag, err = r.ReadBool("deblocking_filter_control_present_flag"); err != nil {
		return nil, err
	}
	if pps.ConstrainedIntraPredFlag, err = r.ReadBool("constrained_intra_pred_flag"); err != nil {
		return nil, err
	}
	if pps.RedundantPicCntPresentFlag, err = r.ReadBool("redundant_pic_cnt_present_flag"); err != nil {
		return nil, err
	}
	if pps.Extension, err = readPPSExtra(r, sps); err != nil {
		return nil, err
	}
	if err := r.FinishRBSP(); err != nil {
		return nil, err
	}
	return pps, nil
}

func readSliceGroups(r *BitReader) (*SliceGroup, error) {
	numSliceGroupsMinus1, err := r.ReadUE("num_slice_groups_minus1")
	if err != nil {
		return nil, err
	}
	if numSliceGroupsMinus1 > 7 {
		// 7 is the maximum allowed in any profile; some profiles restrict it to 0.
		return nil, outOfRange("num_slice_groups_minus1", int64(numSliceGroupsMinus1), 7)
	}
	if numSliceGroupsMinus1 == 0 {
		return nil, nil
	}
	sg, err := readSliceGroup(r, numSliceGroupsMinus1)
	if err != nil {
		return nil, err
	}
	return &sg, nil
}

func readNumRefIdx(r *BitReader, label string) (uint32, error) {
	v, err := r.ReadUE(label)
	if err != nil {
		return 0, err
	}
	if v > 31 {
		return 0, outOfRange(label, int64(v), 31)
	}
	return v, nil
}
