package h264

import "fmt"

// DecoderConfigurationRecord is a parsed AVCDecoderConfigurationRecord as
// specified in ISO/IEC 14496-15 ("AVCC"), the form in which H.264 parameter
// sets travel inside an MP4/fMP4 "avc1"/"avc3" sample entry rather than as
// Annex B start-code-delimited NAL units.
type DecoderConfigurationRecord struct {
	data []byte
}

const avccMinConfigSize = 6

// ParseDecoderConfigurationRecord validates data as an
// AVCDecoderConfigurationRecord, checking that every length-prefixed
// parameter set it declares actually fits within the buffer, and returns a
// view over it. It does not itself decode the contained SPS/PPS RBSPs;
// call [DecoderConfigurationRecord.SequenceParameterSets] and
// [DecoderConfigurationRecord.PictureParameterSets] for that.
func ParseDecoderConfigurationRecord(data []byte) (*DecoderConfigurationRecord, error) {
	avcc := &DecoderConfigurationRecord{data: data}
	if err := avcc.ck(avccMinConfigSize); err != nil {
		return nil, err
	}
	if avcc.ConfigurationVersion() != 1 {
		return nil, fmt.Errorf("%w: avcC configuration_version %d unsupported", ErrUnsupportedSyntax, avcc.ConfigurationVersion())
	}
	length, err := avcc.seqParamSetsEnd()
	if err != nil {
		return nil, err
	}
	if err := avcc.ck(length + 1); err != nil {
		return nil, err
	}
	numPPS := int(data[length])
	length++
	for i := 0; i < numPPS; i++ {
		if err := avcc.ck(length + 2); err != nil {
			return nil, err
		}
		ppsLen := int(data[length])<<8 | int(data[length+1])
		length += 2
		if err := avcc.ck(length + ppsLen); err != nil {
			return nil, err
		}
		length += ppsLen
	}
	return avcc, nil
}

func (a *DecoderConfigurationRecord) ck(length int) error {
	if len(a.data) < length {
		return fmt.Errorf("%w: avcC needs %d bytes, has %d", ErrTruncated, length, len(a.data))
	}
	return nil
}

func (a *DecoderConfigurationRecord) seqParamSetsEnd() (int, error) {
	numSPS := a.NumOfSequenceParameterSets()
	length := avccMinConfigSize
	for i := 0; i < numSPS; i++ {
		if err := a.ck(length + 2); err != nil {
			return 0, err
		}
		spsLen := int(a.data[length])<<8 | int(a.data[length+1])
		length += 2
		if err := a.ck(length + spsLen); err != nil {
			return 0, err
		}
		length += spsLen
	}
	return length, nil
}

// ConfigurationVersion returns the record's configurationVersion byte.
// Only the value 1 is defined; any other value must be treated as an
// incompatible future revision.
func (a *DecoderConfigurationRecord) ConfigurationVersion() uint8 { return a.data[0] }

// NumOfSequenceParameterSets returns the low 5 bits of the
// numOfSequenceParameterSets byte.
func (a *DecoderConfigurationRecord) NumOfSequenceParameterSets() int {
	return int(a.data[5] & 0x1F)
}

// AVCProfileIndication returns the profile_idc repeated at the top of the
// record, paired with profile_compatibility to let [ProfileFromIDC] resolve
// it without decoding a full SPS.
func (a *DecoderConfigurationRecord) AVCProfileIndication() uint8 { return a.data[1] }

// ProfileCompatibility returns the profile_compatibility byte, i.e. the SPS
// constraint flags, repeated at the top of the record.
func (a *DecoderConfigurationRecord) ProfileCompatibility() ConstraintFlags {
	return ConstraintFlags{raw: a.data[2]}
}

// AVCLevelIndication returns the level_idc byte repeated at the top of the
// record, resolved to a [Level] using ProfileCompatibility's constraint
// flags (needed to disambiguate level_idc 11 between Level1b and
// Level1_1).
func (a *DecoderConfigurationRecord) AVCLevelIndication() Level {
	return LevelFromIDC(a.ProfileCompatibility(), a.data[3])
}

// LengthSizeMinusOne returns the number of bytes, minus one, used to encode
// each NAL unit's length prefix within AVCC-framed samples: 0 means 1-byte
// lengths, up to 3 meaning 4-byte lengths.
func (a *DecoderConfigurationRecord) LengthSizeMinusOne() uint8 { return a.data[4] & 0x03 }

// SequenceParameterSets returns the RBSP bytes (NAL header already
// stripped) of each sequence parameter set declared by the record, in
// order.
func (a *DecoderConfigurationRecord) SequenceParameterSets() ([][]byte, error) {
	n := a.NumOfSequenceParameterSets()
	return parseParamSetList(a.data[avccMinConfigSize:], n, UnitTypeSPS)
}

// PictureParameterSets returns the RBSP bytes (NAL header already
// stripped) of each picture parameter set declared by the record, in
// order.
func (a *DecoderConfigurationRecord) PictureParameterSets() ([][]byte, error) {
	offset, err := a.seqParamSetsEnd()
	if err != nil {
		return nil, err
	}
	n := int(a.data[offset])
	return parseParamSetList(a.data[offset+1:], n, UnitTypePPS)
}

func parseParamSetList(buf []byte, n int, want UnitType) ([][]byte, error) {
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if len(buf) < 2 {
			return nil, fmt.Errorf("%w: avcC parameter set %d truncated before length prefix", ErrTruncated, i)
		}
		length := int(buf[0])<<8 | int(buf[1])
		rest := buf[2:]
		if len(rest) < length || length < 1 {
			return nil, fmt.Errorf("%w: avcC parameter set %d declares length %d, have %d", ErrTruncated, i, length, len(rest))
		}
		entry := rest[:length]
		buf = rest[length:]

		header, err := NewHeader(entry[0])
		if err != nil {
			return nil, annotate(err, fmt.Sprintf("avcC parameter set %d nal header", i))
		}
		if header.UnitType() != want {
			return nil, fmt.Errorf("%w: avcC parameter set %d is nal_unit_type %s, want %s", ErrHeaderInvalid, i, header.UnitType(), want)
		}
		out = append(out, DecodeRBSP(entry[1:]))
	}
	return out, nil
}

// LoadParameterSets decodes every sequence and picture parameter set
// declared by the record and inserts them into store, in the order they
// appear in the record. Picture parameter sets are decoded after all
// sequence parameter sets so that each can resolve its seq_parameter_set_id
// reference.
func (a *DecoderConfigurationRecord) LoadParameterSets(store *Store) error {
	spsList, err := a.SequenceParameterSets()
	if err != nil {
		return err
	}
	for i, rbsp := range spsList {
		sps, err := ParseSPS(rbsp)
		if err != nil {
			return annotate(err, fmt.Sprintf("avcC sequence parameter set %d", i))
		}
		store.PutSPS(sps)
	}
	ppsList, err := a.PictureParameterSets()
	if err != nil {
		return err
	}
	for i, rbsp := range ppsList {
		pps, err := ParsePPS(rbsp, store)
		if err != nil {
			return annotate(err, fmt.Sprintf("avcC picture parameter set %d", i))
		}
		store.PutPPS(pps)
	}
	return nil
}
