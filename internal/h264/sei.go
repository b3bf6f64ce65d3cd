package h264

// HeaderType identifies an SEI payloadType value. Named constants cover
// payload types 0-24, 137, 142 and 147; any other numeric value is carried
// through unchanged as a HeaderType whose IsReserved reports true.
type HeaderType struct {
	id       uint32
	reserved bool
}

func (h HeaderType) ID() uint32    { return h.id }
func (h HeaderType) IsReserved() bool { return h.reserved }

var (
	HeaderTypeBufferingPeriod              = HeaderType{id: 0}
	HeaderTypePicTiming                    = HeaderType{id: 1}
	HeaderTypePanScanRect                  = HeaderType{id: 2}
	HeaderTypeFillerPayload                = HeaderType{id: 3}
	HeaderTypeUserDataRegisteredItuTT35     = HeaderType{id: 4}
	HeaderTypeUserDataUnregistered          = HeaderType{id: 5}
	HeaderTypeRecoveryPoint                 = HeaderType{id: 6}
	HeaderTypeDecRefPicMarkingRepetition    = HeaderType{id: 7}
	HeaderTypeSparePic                      = HeaderType{id: 8}
	HeaderTypeSceneInfo                     = HeaderType{id: 9}
	HeaderTypeSubSeqInfo                    = HeaderType{id: 10}
	HeaderTypeSubSeqLayerCharacteristics     = HeaderType{id: 11}
	HeaderTypeSubSeqCharacteristics          = HeaderType{id: 12}
	HeaderTypeFullFrameFreeze                = HeaderType{id: 13}
	HeaderTypeFullFrameFreezeRelease         = HeaderType{id: 14}
	HeaderTypeFullFrameSnapshot              = HeaderType{id: 15}
	HeaderTypeProgressiveRefinementSegmentStart = HeaderType{id: 16}
	HeaderTypeProgressiveRefinementSegmentEnd   = HeaderType{id: 17}
	HeaderTypeMotionConstrainedSliceGroupSet = HeaderType{id: 18}
	HeaderTypeFilmGrainCharacteristics       = HeaderType{id: 19}
	HeaderTypeDeblockingFilterDisplayPreference = HeaderType{id: 20}
	HeaderTypeStereoVideoInfo                = HeaderType{id: 21}
	HeaderTypePostFilterHint                 = HeaderType{id: 22}
	HeaderTypeToneMappingInfo                = HeaderType{id: 23}
	HeaderTypeScalabilityInfo                = HeaderType{id: 24}
	HeaderTypeMasteringDisplayColourVolume   = HeaderType{id: 137}
	HeaderTypeColourRemappingInfo            = HeaderType{id: 142}
	HeaderTypeAlternativeTransferCharacteristics = HeaderType{id: 147}
)

var seiNamedTypes = map[uint32]HeaderType{
	0: HeaderTypeBufferingPeriod, 1: HeaderTypePicTiming, 2: HeaderTypePanScanRect,
	3: HeaderTypeFillerPayload, 4: HeaderTypeUserDataRegisteredItuTT35, 5: HeaderTypeUserDataUnregistered,
	6: HeaderTypeRecoveryPoint, 7: HeaderTypeDecRefPicMarkingRepetition, 8: HeaderTypeSparePic,
	9: HeaderTypeSceneInfo, 10: HeaderTypeSubSeqInfo, 11: HeaderTypeSubSeqLayerCharacteristics,
	12: HeaderTypeSubSeqCharacteristics, 13: HeaderTypeFullFrameFreeze, 14: HeaderTypeFullFrameFreezeRelease,
	15: HeaderTypeFullFrameSnapshot, 16: HeaderTypeProgressiveRefinementSegmentStart,
	17: HeaderTypeProgressiveRefinementSegmentEnd, 18: HeaderTypeMotionConstrainedSliceGroupSet,
	19: HeaderTypeFilmGrainCharacteristics, 20: HeaderTypeDeblockingFilterDisplayPreference,
	21: HeaderTypeStereoVideoInfo, 22: HeaderTypePostFilterHint, 23: HeaderTypeToneMappingInfo,
	24: HeaderTypeScalabilityInfo, 137: HeaderTypeMasteringDisplayColourVolume,
	142: HeaderTypeColourRemappingInfo, 147: HeaderTypeAlternativeTransferCharacteristics,
}

func headerTypeFromID(id uint32) HeaderType {
	if t, ok := seiNamedTypes[id]; ok {
		return t
	}
	return HeaderType{id: id, reserved: true}
}

// SEIMessage is one decoded sei_message() entry: a payloadType/payloadSize
// pair (both coded as runs of 0xFF continuation bytes per Annex D.1) and
// the raw payload bytes.
type SEIMessage struct {
	PayloadType HeaderType
	Payload     []byte
}

// DecodeSEIMessages splits a complete sei_rbsp() into its individual
// sei_message() entries. A lone 0x80 as the final byte, once the messages
// before it are consumed, is taken as rbsp_trailing_bits and ends the
// sequence; the trailing bits are not otherwise validated.
func DecodeSEIMessages(rbsp []byte) ([]SEIMessage, error) {
	var messages []SEIMessage
	i := 0
	for i < len(rbsp) {
		// rbsp_trailing_bits: a lone stop-bit byte (0x80) terminates the
		// message sequence once all real messages have been consumed.
		if rbsp[i] == 0x80 && i == len(rbsp)-1 {
			break
		}
		payloadType := uint32(0)
		for i < len(rbsp) && rbsp[i] == 0xff {
			payloadType += 0xff
			i++
		}
		if i >= len(rbsp) {
			return nil, annotate(ErrTruncated, "sei_message.payloadType")
		}
		payloadType += uint32(rbsp[i])
		i++
		payloadSize := uint32(0)
		for i < len(rbsp) && rbsp[i] == 0xff {
			payloadSize += 0xff
			i++
		}
		if i >= len(rbsp) {
			return nil, annotate(ErrTruncated, "sei_message.payloadSize")
		}
		payloadSize += uint32(rbsp[i])
		i++
		if i+int(payloadSize) > len(rbsp) {
			return nil, annotate(ErrTruncated, "sei_message.payload")
		}
		messages = append(messages, SEIMessage{
			PayloadType: headerTypeFromID(payloadType),
			Payload:     rbsp[i : i+int(payloadSize)],
		})
		i += int(payloadSize)
	}
	return messages, nil
}

// InitialCpbRemoval is one HRD's cpb_cnt_minus1+1 initial removal delay
// entries.
type InitialCpbRemoval struct {
	InitialCpbRemovalDelay, InitialCpbRemovalDelayOffset uint32
}

func readCpbRemovalDelayList(r *BitReader, count int, length uint) ([]InitialCpbRemoval, error) {
	res := make([]InitialCpbRemoval, count)
	for i := range res {
		v, err := r.ReadBits(length, "initial_cpb_removal_delay")
		if err != nil {
			return nil, err
		}
		res[i].InitialCpbRemovalDelay = v
		if v, err = r.ReadBits(length, "initial_cpb_removal_delay_offset"); err != nil {
			return nil, err
		}
		res[i].InitialCpbRemovalDelayOffset = v
	}
	return res, nil
}

// BufferingPeriod is a decoded buffering_period() SEI payload (payloadType
// 0), present in a bitstream whose referenced SPS advertises HRD
// parameters.
type BufferingPeriod struct {
	NalHrdBP []InitialCpbRemoval
	VclHrdBP []InitialCpbRemoval
}

// DecodeBufferingPeriod decodes msg.Payload as buffering_period(),
// resolving the SPS it refers to from store.
func DecodeBufferingPeriod(msg SEIMessage, store *Store) (*BufferingPeriod, error) {
	r := NewBitReader(msg.Payload)
	id, err := r.ReadUE("seq_parameter_set_id")
	if err != nil {
		return nil, err
	}
	if id > 31 {
		return nil, outOfRange("seq_parameter_set_id", int64(id), 31)
	}
	sps, ok := store.SPS(uint8(id))
	if !ok {
		return nil, annotate(ErrUnresolvedReference, "seq_parameter_set_id")
	}
	bp := &BufferingPeriod{}
	if sps.VUIParameters != nil {
		if hrd := sps.VUIParameters.NalHrdParameters; hrd != nil {
			bp.NalHrdBP, err = readCpbRemovalDelayList(r, len(hrd.CpbSpecs), uint(hrd.InitialCpbRemovalDelayLengthMinus1)+1)
			if err != nil {
				return nil, err
			}
		}
		if hrd := sps.VUIParameters.VclHrdParameters; hrd != nil {
			bp.VclHrdBP, err = readCpbRemovalDelayList(r, len(hrd.CpbSpecs), uint(hrd.InitialCpbRemovalDelayLengthMinus1)+1)
			if err != nil {
				return nil, err
			}
		}
	}
	if err := r.FinishSEIPayload(); err != nil {
		return nil, err
	}
	return bp, nil
}

// PicTiming is a simplified decoding of pic_timing() (payloadType 1): the
// cpb_removal_delay/dpb_output_delay pair when the referenced SPS's HRD
// parameters are present. The pic_struct clock-timestamp loop (present
// when VUI pic_struct_present_flag is set) is not decoded; its contents
// are rarely consumed downstream and decoding it correctly requires
// tracking which SPS applies to the picture this message precedes, which
// this parser (unlike the original push-based design) does not attempt.
type PicTiming struct {
	HasDelays        bool
	CpbRemovalDelay  uint32
	DpbOutputDelay   uint32
}

// DecodePicTiming decodes msg.Payload as pic_timing() against sps
// (pic_timing itself carries no SPS id, so callers pass the SPS in effect
// for the current access unit).
func DecodePicTiming(msg SEIMessage, sps *SPS) (*PicTiming, error) {
	r := NewBitReader(msg.Payload)
	pt := &PicTiming{}
	if sps.VUIParameters != nil && (sps.VUIParameters.NalHrdParameters != nil || sps.VUIParameters.VclHrdParameters != nil) {
		length := uint(23)
		if hrd := sps.VUIParameters.NalHrdParameters; hrd != nil {
			length = uint(hrd.CpbRemovalDelayLengthMinus1) + 1
		} else if hrd := sps.VUIParameters.VclHrdParameters; hrd != nil {
			length = uint(hrd.CpbRemovalDelayLengthMinus1) + 1
		}
		v, err := r.ReadBits(length, "cpb_removal_delay")
		if err != nil {
			return nil, err
		}
		pt.CpbRemovalDelay = v
		dpbLength := uint(23)
		if hrd := sps.VUIParameters.NalHrdParameters; hrd != nil {
			dpbLength = uint(hrd.DpbOutputDelayLengthMinus1) + 1
		} else if hrd := sps.VUIParameters.VclHrdParameters; hrd != nil {
			dpbLength = uint(hrd.DpbOutputDelayLengthMinus1) + 1
		}
		if v, err = r.ReadBits(dpbLength, "dpb_output_delay"); err != nil {
			return nil, err
		}
		pt.DpbOutputDelay = v
		pt.HasDelays = true
	}
	return pt, nil
}

// UserDataUnregistered is a decoded user_data_unregistered() SEI payload
// (payloadType 5): a 16-byte ISO/IEC 11578 UUID followed by arbitrary
// payload bytes.
type UserDataUnregistered struct {
	UUID    [16]byte
	Payload []byte
}

// DecodeUserDataUnregistered decodes msg.Payload as user_data_unregistered().
func DecodeUserDataUnregistered(msg SEIMessage) (*UserDataUnregistered, error) {
	if len(msg.Payload) < 16 {
		return nil, &SyntaxError{Field: "user_data_unregistered", Value: int64(len(msg.Payload)), Reason: "payload shorter than 16-byte uuid"}
	}
	u := &UserDataUnregistered{}
	copy(u.UUID[:], msg.Payload[:16])
	u.Payload = msg.Payload[16:]
	return u, nil
}

// UserDataRegisteredItuTT35 is a simplified decoding of
// user_data_registered_itu_t_t35() (payloadType 4). Rather than the full
// ITU-T T.35 country-code enumeration (~150 entries), the country code and
// optional extension byte (itu_t_t35_country_code == 0xff) are kept raw;
// callers needing the named country can look it up themselves.
type UserDataRegisteredItuTT35 struct {
	CountryCode          byte
	CountryCodeExtension *byte
	Payload              []byte
}

// DecodeUserDataRegisteredItuTT35 decodes msg.Payload as
// user_data_registered_itu_t_t35().
func DecodeUserDataRegisteredItuTT35(msg SEIMessage) (*UserDataRegisteredItuTT35, error) {
	if len(msg.Payload) < 1 {
		return nil, &SyntaxError{Field: "itu_t_t35_country_code", Reason: "payload empty"}
	}
	d := &UserDataRegisteredItuTT35{CountryCode: msg.Payload[0]}
	rest := msg.Payload[1:]
	if d.CountryCode == 0xff {
		if len(rest) < 1 {
			return nil, &SyntaxError{Field: "itu_t_t35_country_code_extension_byte", Reason: "payload too short"}
		}
		ext := rest[0]
		d.CountryCodeExtension = &ext
		rest = rest[1:]
	}
	d.Payload = rest
	return d, nil
}
