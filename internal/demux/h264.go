package demux

import (
	"errors"
	"fmt"

	"github.com/zsiec/h264syntax/internal/h264"
)

// NALUnit is one NAL unit extracted from an Annex B byte stream: the
// decoded header plus the raw bytes (header included, emulation
// prevention still present).
type NALUnit struct {
	Header h264.Header
	Data   []byte
}

// ParseAnnexB splits a complete Annex B byte stream into NAL units; the
// unit still open when data ends is returned as the last one.
// Malformed NAL headers (forbidden_zero_bit set) are skipped rather than
// aborting the whole parse, matching the teacher's permissive byte-stream
// scanning.
func ParseAnnexB(data []byte) []NALUnit {
	var units []NALUnit
	for _, nal := range h264.SplitAnnexB(data) {
		if len(nal) == 0 {
			continue
		}
		hdr, err := h264.NewHeader(nal[0])
		if err != nil {
			continue
		}
		units = append(units, NALUnit{Header: hdr, Data: nal})
	}
	return units
}

// IsKeyframe reports whether t is an IDR slice (type 5).
func IsKeyframe(t h264.UnitType) bool { return t == h264.UnitTypeSliceIDR }

// IsSPS reports whether t is a sequence parameter set (type 7).
func IsSPS(t h264.UnitType) bool { return t == h264.UnitTypeSPS }

// IsPPS reports whether t is a picture parameter set (type 8).
func IsPPS(t h264.UnitType) bool { return t == h264.UnitTypePPS }

// SPSInfo summarizes the fields of a parsed SPS a container consumer
// typically needs: resolution, profile/level identifiers for the RFC 6381
// codec string, and whether pic_timing SEI messages can be resolved
// against it.
type SPSInfo struct {
	Width, Height    int
	ProfileIDC       byte
	ConstraintFlags  byte
	LevelIDC         byte
	PicStructPresent bool

	sps *h264.SPS
}

// CodecString returns the RFC 6381 codec parameter string (e.g.
// "avc1.42E01E") for use in WebCodecs configuration and MIME types.
func (s SPSInfo) CodecString() string {
	return fmt.Sprintf("avc1.%02X%02X%02X", s.ProfileIDC, s.ConstraintFlags, s.LevelIDC)
}

// ParseSPS decodes nalu (header byte included, emulation prevention still
// present) as a sequence parameter set and summarizes it. Dimensions that
// cannot be computed (e.g. crop exceeding the coded picture) leave Width
// and Height zero rather than failing the whole parse.
func ParseSPS(nalu []byte) (SPSInfo, error) {
	if len(nalu) < 2 {
		return SPSInfo{}, errors.New("demux: SPS NAL too short")
	}
	rbsp := h264.DecodeRBSP(nalu[1:])
	sps, err := h264.ParseSPS(rbsp)
	if err != nil {
		return SPSInfo{}, err
	}
	info := SPSInfo{
		ProfileIDC:      sps.ProfileIDC,
		ConstraintFlags: sps.ConstraintFlags.Byte(),
		LevelIDC:        sps.LevelIDC,
		sps:             sps,
	}
	if sps.VUIParameters != nil {
		info.PicStructPresent = sps.VUIParameters.PicStructPresentFlag
	}
	if w, h, err := sps.PixelDimensions(); err == nil {
		info.Width, info.Height = int(w), int(h)
	}
	return info, nil
}

// ParsePicTimingSEI extracts the cpb_removal_delay/dpb_output_delay pair
// from an SEI NAL's pic_timing() message, resolving HRD field widths
// against the given SPS. It returns false if the SEI carries no
// pic_timing message, decoding fails, or the SPS advertises no HRD
// parameters to size the delay fields against. The pic_struct
// clock-timestamp loop (full SMPTE timecode) is not decoded here; see
// [h264.PicTiming]'s doc comment for why a one-shot per-NAL parse can't
// do that correctly.
func ParsePicTimingSEI(seiNALU []byte, info SPSInfo) (*h264.PicTiming, bool) {
	if info.sps == nil || len(seiNALU) < 2 {
		return nil, false
	}
	messages, err := h264.DecodeSEIMessages(h264.DecodeRBSP(seiNALU[1:]))
	if err != nil {
		return nil, false
	}
	for _, msg := range messages {
		if msg.PayloadType != h264.HeaderTypePicTiming {
			continue
		}
		pt, err := h264.DecodePicTiming(msg, info.sps)
		if err != nil || !pt.HasDelays {
			return nil, false
		}
		return pt, true
	}
	return nil, false
}
