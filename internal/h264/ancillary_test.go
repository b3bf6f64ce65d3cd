package h264

import "testing"

func TestParseAccessUnitDelimiterAllTypes(t *testing.T) {
	for id := uint8(0); id <= 7; id++ {
		data := []byte{(id << 5) | 0x10}
		aud, err := ParseAccessUnitDelimiter(data)
		if err != nil {
			t.Fatalf("id=%d: ParseAccessUnitDelimiter: %v", id, err)
		}
		if uint8(aud.PrimaryPicType) != id {
			t.Fatalf("id=%d: got %d", id, aud.PrimaryPicType)
		}
	}
}

func TestParseAccessUnitDelimiterIPB(t *testing.T) {
	aud, err := ParseAccessUnitDelimiter([]byte{0x50})
	if err != nil {
		t.Fatalf("ParseAccessUnitDelimiter: %v", err)
	}
	if aud.PrimaryPicType != PrimaryPicTypeIPB {
		t.Fatalf("got %v, want IPB", aud.PrimaryPicType)
	}
}

func TestParseSeqParameterSetExtensionMinimal(t *testing.T) {
	ext, err := ParseSeqParameterSetExtension([]byte{0xD0})
	if err != nil {
		t.Fatalf("ParseSeqParameterSetExtension: %v", err)
	}
	if ext.SeqParameterSetID != 0 || ext.AuxFormatIDC != 0 || ext.AuxFormatInfo != nil || ext.AdditionalExtensionFlag {
		t.Fatalf("got %+v", ext)
	}
}

func TestParseSeqParameterSetExtensionWithAuxFormat(t *testing.T) {
	data := []byte{0xAB, 0xFE, 0x00, 0x40}
	ext, err := ParseSeqParameterSetExtension(data)
	if err != nil {
		t.Fatalf("ParseSeqParameterSetExtension: %v", err)
	}
	if ext.AuxFormatIDC != 1 || ext.AuxFormatInfo == nil {
		t.Fatalf("got %+v", ext)
	}
	info := ext.AuxFormatInfo
	if info.BitDepthAuxMinus8 != 0 || info.AlphaIncrFlag || info.AlphaOpaqueValue != 0x1FF || info.AlphaTransparentValue != 0 {
		t.Fatalf("got %+v", info)
	}
}

func TestParsePrefixNALUnitMVCNoRef(t *testing.T) {
	data := []byte{0x0E, 0b0100_0000, 0x00, 0b0100_0011}
	header, err := NewHeader(data[0])
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	prefix, err := ParsePrefixNALUnit(data, header)
	if err != nil {
		t.Fatalf("ParsePrefixNALUnit: %v", err)
	}
	if prefix.HeaderExtension.Kind != HeaderExtensionMVC {
		t.Fatalf("got kind %v, want MVC", prefix.HeaderExtension.Kind)
	}
	mvc := prefix.HeaderExtension.MVC
	if !mvc.NonIDRFlag || mvc.ViewID != 1 || !mvc.InterViewFlag {
		t.Fatalf("got %+v", mvc)
	}
	if prefix.RefBasePic != nil {
		t.Fatalf("expected no ref_base_pic")
	}
}

func TestParsePrefixNALUnitSVCWithMarking(t *testing.T) {
	data := []byte{
		0x4E, 0x80, 0x00, 0x03,
		0b1010_1101,
		0b0000_0000,
	}
	header, err := NewHeader(data[0])
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	prefix, err := ParsePrefixNALUnit(data, header)
	if err != nil {
		t.Fatalf("ParsePrefixNALUnit: %v", err)
	}
	if prefix.HeaderExtension.Kind != HeaderExtensionSVC {
		t.Fatalf("got kind %v, want SVC", prefix.HeaderExtension.Kind)
	}
	if prefix.RefBasePic == nil {
		t.Fatalf("expected ref_base_pic")
	}
	ref := prefix.RefBasePic
	if !ref.StoreRefBasePicFlag || ref.AdditionalPrefixNALUnitExtensionFlag {
		t.Fatalf("got %+v", ref)
	}
	if ref.DecRefBasePicMarking == nil || len(ref.DecRefBasePicMarking.Operations) != 1 {
		t.Fatalf("got %+v", ref.DecRefBasePicMarking)
	}
	op := ref.DecRefBasePicMarking.Operations[0]
	if op.Kind != DecRefBaseShortTermUnusedForRef || op.DifferenceOfBasePicNumsMinus1 != 0 {
		t.Fatalf("got %+v", op)
	}
}

func TestParseSubsetSPSUnknownProfile(t *testing.T) {
	data := []byte{0x42, 0xC0, 0x1E, 0xFB, 0x84}
	subset, err := ParseSubsetSPS(data)
	if err != nil {
		t.Fatalf("ParseSubsetSPS: %v", err)
	}
	if subset.SPS.ProfileIDC != 66 || subset.Extension != nil || subset.AdditionalExtension2Flag {
		t.Fatalf("got %+v", subset)
	}
}
