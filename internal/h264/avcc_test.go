package h264

import "testing"

func TestParseDecoderConfigurationRecord(t *testing.T) {
	data := []byte{
		0x01, 0x42, 0xc0, 0x1e, 0xff, 0xe1, 0x00, 0x20,
		0x67, 0x42, 0xc0, 0x1e, 0xb9, 0x10, 0x61, 0xff, 0x78, 0x08, 0x80, 0x00, 0x00, 0x03, 0x00, 0x80,
		0x00, 0x00, 0x19, 0x71, 0x30, 0x06, 0xd6, 0x00, 0xda, 0xf7, 0xbd, 0xc0, 0x7c, 0x22, 0x11, 0xa8,
		0x01, 0x00, 0x04, 0x68, 0xde, 0x3c, 0x80,
	}
	avcc, err := ParseDecoderConfigurationRecord(data)
	if err != nil {
		t.Fatalf("ParseDecoderConfigurationRecord: %v", err)
	}
	if avcc.ConfigurationVersion() != 1 {
		t.Fatalf("ConfigurationVersion = %d, want 1", avcc.ConfigurationVersion())
	}
	if avcc.NumOfSequenceParameterSets() != 1 {
		t.Fatalf("NumOfSequenceParameterSets = %d, want 1", avcc.NumOfSequenceParameterSets())
	}
	if avcc.AVCProfileIndication() != 66 {
		t.Fatalf("AVCProfileIndication = %d, want 66", avcc.AVCProfileIndication())
	}
	flags := avcc.ProfileCompatibility()
	if !flags.Flag0() || !flags.Flag1() || flags.Flag2() || flags.Flag3() || flags.Flag4() || flags.Flag5() {
		t.Fatalf("ProfileCompatibility = %+v, want {1,1,0,0,0,0}", flags)
	}

	store := NewStore()
	if err := avcc.LoadParameterSets(store); err != nil {
		t.Fatalf("LoadParameterSets: %v", err)
	}
	sps, ok := store.SPS(0)
	if !ok {
		t.Fatalf("missing sps 0")
	}
	if sps.Level() != avcc.AVCLevelIndication() {
		t.Fatalf("sps.Level() = %v, want %v", sps.Level(), avcc.AVCLevelIndication())
	}
	if sps.ProfileIDC != avcc.AVCProfileIndication() {
		t.Fatalf("sps.ProfileIDC = %d, want %d", sps.ProfileIDC, avcc.AVCProfileIndication())
	}
	if _, ok := store.PPS(0); !ok {
		t.Fatalf("missing pps 0")
	}
}

func TestParseDecoderConfigurationRecordWithEmulationPrevention(t *testing.T) {
	// From a real Hikvision camera: the SPS contains 00 00 03 escapes.
	data := []byte{
		0x01, 0x4d, 0x40, 0x1e, 0xff, 0xe1, 0x00, 0x17,
		0x67, 0x4d, 0x40, 0x1e, 0x9a, 0x66, 0x0a, 0x0f,
		0xff, 0x35, 0x01, 0x01, 0x01, 0x40, 0x00, 0x00,
		0xfa, 0x00, 0x00, 0x03, 0x01, 0xf4, 0x01, 0x01,
		0x00, 0x04, 0x68, 0xee, 0x3c, 0x80,
	}
	avcc, err := ParseDecoderConfigurationRecord(data)
	if err != nil {
		t.Fatalf("ParseDecoderConfigurationRecord: %v", err)
	}
	spsList, err := avcc.SequenceParameterSets()
	if err != nil {
		t.Fatalf("SequenceParameterSets: %v", err)
	}
	if len(spsList) != 1 {
		t.Fatalf("got %d sps, want 1", len(spsList))
	}
	store := NewStore()
	if err := avcc.LoadParameterSets(store); err != nil {
		t.Fatalf("LoadParameterSets: %v", err)
	}
	if _, ok := store.SPS(0); !ok {
		t.Fatalf("missing sps 0")
	}
}

func TestParseDecoderConfigurationRecordTruncated(t *testing.T) {
	if _, err := ParseDecoderConfigurationRecord([]byte{0x01, 0x42, 0xc0}); err == nil {
		t.Fatalf("expected error for truncated record")
	}
}

func TestParseDecoderConfigurationRecordBadVersion(t *testing.T) {
	data := []byte{0x02, 0x42, 0xc0, 0x1e, 0xff, 0xe0}
	if _, err := ParseDecoderConfigurationRecord(data); err == nil {
		t.Fatalf("expected error for unsupported configuration_version")
	}
}
