package h264

// UnitType identifies the nal_unit_type field of a NAL header. Values 0 and
// 24-31 are unspecified by the ITU-T spec and 17, 18, 22, 23 are reserved;
// both ranges are preserved as typed values (rather than collapsed) so
// unknown types round-trip through [UnitType.ID].
type UnitType struct {
	id uint8
}

// Named unit types. Unspecified and Reserved values are constructed with
// [UnitTypeFor]; use UnitType.ID to recover the numeric value for any
// UnitType, named or not.
var (
	UnitTypeSliceNonIDR            = UnitType{1}
	UnitTypeSliceDataPartitionA    = UnitType{2}
	UnitTypeSliceDataPartitionB    = UnitType{3}
	UnitTypeSliceDataPartitionC    = UnitType{4}
	UnitTypeSliceIDR               = UnitType{5}
	UnitTypeSEI                    = UnitType{6}
	UnitTypeSPS                    = UnitType{7}
	UnitTypePPS                    = UnitType{8}
	UnitTypeAUD                    = UnitType{9}
	UnitTypeEndOfSeq               = UnitType{10}
	UnitTypeEndOfStream            = UnitType{11}
	UnitTypeFillerData             = UnitType{12}
	UnitTypeSPSExtension           = UnitType{13}
	UnitTypePrefixNALUnit          = UnitType{14}
	UnitTypeSubsetSPS              = UnitType{15}
	UnitTypeDepthParameterSet      = UnitType{16}
	UnitTypeSliceAux               = UnitType{19}
	UnitTypeSliceExtension         = UnitType{20}
	UnitTypeSliceExtensionViewComp = UnitType{21}
)

// UnitTypeFor constructs a UnitType for any value 0-31, including
// unspecified (0, 24-31) and reserved (17, 18, 22, 23) values.
func UnitTypeFor(id uint8) (UnitType, error) {
	if id > 31 {
		return UnitType{}, outOfRange("nal_unit_type", int64(id), 31)
	}
	return UnitType{id}, nil
}

// ID returns the numeric nal_unit_type value, 0-31.
func (t UnitType) ID() uint8 { return t.id }

// IsUnspecified reports whether t falls in one of the ranges the ITU-T
// spec leaves unspecified (0, 24-31).
func (t UnitType) IsUnspecified() bool {
	return t.id == 0 || t.id >= 24
}

// IsReserved reports whether t falls in one of the ranges reserved for
// future extensions (17, 18, 22, 23).
func (t UnitType) IsReserved() bool {
	switch t.id {
	case 17, 18, 22, 23:
		return true
	default:
		return false
	}
}

// String names the unit type, or reports it numerically if unspecified or
// reserved.
func (t UnitType) String() string {
	switch t.id {
	case 1:
		return "SliceNonIDR"
	case 2:
		return "SliceDataPartitionA"
	case 3:
		return "SliceDataPartitionB"
	case 4:
		return "SliceDataPartitionC"
	case 5:
		return "SliceIDR"
	case 6:
		return "SEI"
	case 7:
		return "SPS"
	case 8:
		return "PPS"
	case 9:
		return "AUD"
	case 10:
		return "EndOfSeq"
	case 11:
		return "EndOfStream"
	case 12:
		return "FillerData"
	case 13:
		return "SPSExtension"
	case 14:
		return "PrefixNALUnit"
	case 15:
		return "SubsetSPS"
	case 16:
		return "DepthParameterSet"
	case 19:
		return "SliceAux"
	case 20:
		return "SliceExtension"
	case 21:
		return "SliceExtensionViewComponent"
	default:
		if t.IsReserved() {
			return "Reserved"
		}
		return "Unspecified"
	}
}

// Header is a decoded single-byte NAL header.
type Header struct {
	raw byte
}

// NewHeader decodes a NAL header byte. It returns [ErrHeaderInvalid] if the
// forbidden_zero_bit is set.
func NewHeader(b byte) (Header, error) {
	if b&0x80 != 0 {
		return Header{}, ErrHeaderInvalid
	}
	return Header{raw: b}, nil
}

// RefIdc returns nal_ref_idc, bits 6-5.
func (h Header) RefIdc() uint8 {
	return (h.raw >> 5) & 0x3
}

// UnitType returns the decoded nal_unit_type, bits 4-0.
func (h Header) UnitType() UnitType {
	// Masking to 5 bits guarantees the value is always <= 31.
	t, _ := UnitTypeFor(h.raw & 0x1F)
	return t
}

// Byte returns the original header byte.
func (h Header) Byte() byte { return h.raw }
