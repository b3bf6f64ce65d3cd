// Package h264 is the public mirror of internal/h264: the subset of the
// H.264/AVC bitstream syntax-layer parser an external consumer needs,
// re-exported without the internal package's implementation-only helpers.
// It follows the same public-mirror-over-internal-implementation pattern
// the teacher uses for its own codec packages.
package h264

import (
	"log/slog"

	internal "github.com/zsiec/h264syntax/internal/h264"
)

// Framing (component C/D).
type (
	AnnexBFramer    = internal.AnnexBFramer
	FragmentHandler = internal.FragmentHandler
	Accumulator     = internal.Accumulator
	NAL             = internal.NAL
	Interest        = internal.Interest
)

const (
	InterestBuffer  = internal.InterestBuffer
	InterestIgnore  = internal.InterestIgnore
)

// FragmentHandlerFunc adapts a function to a [FragmentHandler].
func FragmentHandlerFunc(f func(bufs [][]byte, end bool)) FragmentHandler {
	return internal.FragmentHandlerFunc(f)
}

// AccumulatedNALHandlerFunc adapts a function to an internal.AccumulatedNALHandler.
func AccumulatedNALHandlerFunc(f func(nal NAL) Interest) internal.AccumulatedNALHandler {
	return internal.AccumulatedNALHandlerFunc(f)
}

// NewAnnexBFramer constructs a framer delivering fragments to handler. A
// nil log uses [slog.Default].
func NewAnnexBFramer(handler FragmentHandler, log *slog.Logger) *AnnexBFramer {
	return internal.NewAnnexBFramer(handler, log)
}

// NewAccumulator constructs an Accumulator delegating to handler.
func NewAccumulator(handler internal.AccumulatedNALHandler) *Accumulator {
	return internal.NewAccumulator(handler)
}

// SplitAnnexB splits a complete, in-memory Annex B byte stream into NAL
// units (header byte included, emulation-prevention bytes still present).
func SplitAnnexB(data []byte) [][]byte { return internal.SplitAnnexB(data) }

// RBSP/bit-level primitives (components A/B).
type (
	BitReader  = internal.BitReader
	BitWriter  = internal.BitWriter
	SyntaxError = internal.SyntaxError
)

var (
	ErrWouldBlock         = internal.ErrWouldBlock
	ErrTruncated          = internal.ErrTruncated
	ErrHeaderInvalid      = internal.ErrHeaderInvalid
	ErrUnresolvedReference = internal.ErrUnresolvedReference
	ErrUnsupportedSyntax  = internal.ErrUnsupportedSyntax
)

// NewBitReader wraps rbsp for a parse that may see the full buffer.
func NewBitReader(rbsp []byte) *BitReader { return internal.NewBitReader(rbsp) }

// NewIncompleteBitReader wraps rbsp for a parse whose buffer may still
// grow; reads past the end report [ErrWouldBlock] instead of [ErrTruncated].
func NewIncompleteBitReader(rbsp []byte) *BitReader { return internal.NewIncompleteBitReader(rbsp) }

// NewBitWriter returns an empty BitWriter.
func NewBitWriter() *BitWriter { return internal.NewBitWriter() }

// DecodeRBSP strips emulation-prevention bytes from a NAL body (header
// byte already removed).
func DecodeRBSP(nalBody []byte) []byte { return internal.DecodeRBSP(nalBody) }

// NAL header (component E).
type (
	Header   = internal.Header
	UnitType = internal.UnitType
)

var (
	UnitTypeSliceNonIDR    = internal.UnitTypeSliceNonIDR
	UnitTypeSliceIDR       = internal.UnitTypeSliceIDR
	UnitTypeSEI            = internal.UnitTypeSEI
	UnitTypeSPS            = internal.UnitTypeSPS
	UnitTypePPS            = internal.UnitTypePPS
	UnitTypeAUD            = internal.UnitTypeAUD
	UnitTypeFillerData     = internal.UnitTypeFillerData
	UnitTypePrefixNALUnit  = internal.UnitTypePrefixNALUnit
	UnitTypeSubsetSPS      = internal.UnitTypeSubsetSPS
)

// NewHeader decodes a NAL header byte.
func NewHeader(b byte) (Header, error) { return internal.NewHeader(b) }

// UnitTypeFor constructs a UnitType for any value 0-31.
func UnitTypeFor(id uint8) (UnitType, error) { return internal.UnitTypeFor(id) }

// Parameter sets (components F/G/L) and slice headers (component H).
type (
	SPS         = internal.SPS
	PPS         = internal.PPS
	SliceHeader = internal.SliceHeader
	Store       = internal.Store
	Profile     = internal.Profile
	Level       = internal.Level
)

// ParseSPS decodes a complete seq_parameter_set_rbsp().
func ParseSPS(rbsp []byte) (*SPS, error) { return internal.ParseSPS(rbsp) }

// WriteSPS re-encodes a parsed SPS back into RBSP bytes (component M).
func WriteSPS(sps *SPS) []byte { return internal.WriteSPS(sps) }

// ParsePPS decodes a complete pic_parameter_set_rbsp(), resolving its SPS
// reference from store.
func ParsePPS(rbsp []byte, store *Store) (*PPS, error) { return internal.ParsePPS(rbsp, store) }

// ParseSliceHeader decodes a slice header, resolving its SPS/PPS
// references from store.
func ParseSliceHeader(rbsp []byte, header Header, store *Store) (*SliceHeader, *SPS, *PPS, error) {
	return internal.ParseSliceHeader(rbsp, header, store)
}

// NewStore constructs an empty parameter-set store.
func NewStore() *Store { return internal.NewStore() }

// SEI (component I).
type (
	SEIMessage      = internal.SEIMessage
	HeaderType      = internal.HeaderType
	BufferingPeriod = internal.BufferingPeriod
	PicTiming       = internal.PicTiming
)

var (
	HeaderTypeBufferingPeriod = internal.HeaderTypeBufferingPeriod
	HeaderTypePicTiming       = internal.HeaderTypePicTiming
)

// DecodeSEIMessages splits a complete sei_rbsp() into its sei_message() entries.
func DecodeSEIMessages(rbsp []byte) ([]SEIMessage, error) { return internal.DecodeSEIMessages(rbsp) }

// DecodeBufferingPeriod decodes msg.Payload as buffering_period().
func DecodeBufferingPeriod(msg SEIMessage, store *Store) (*BufferingPeriod, error) {
	return internal.DecodeBufferingPeriod(msg, store)
}

// DecodePicTiming decodes msg.Payload as pic_timing().
func DecodePicTiming(msg SEIMessage, sps *SPS) (*PicTiming, error) {
	return internal.DecodePicTiming(msg, sps)
}

// AVCC (component J).
type DecoderConfigurationRecord = internal.DecoderConfigurationRecord

// ParseDecoderConfigurationRecord parses an AVCDecoderConfigurationRecord
// (ISO/IEC 14496-15).
func ParseDecoderConfigurationRecord(data []byte) (*DecoderConfigurationRecord, error) {
	return internal.ParseDecoderConfigurationRecord(data)
}
