// Package demux adapts the syntax-layer parsers in internal/h264 to a
// container-consumer shape. [ParseAnnexB] and [ParseSPS] work on
// already-extracted NAL/SPS bytes; [Demuxer] extracts them from an
// MPEG-TS transport stream carrying a single H.264 elementary stream,
// producing reassembled [VideoFrame] values on a channel.
//
// Non-goals carried over from SPEC_FULL.md: no audio, no closed captions,
// no SCTE-35, no HEVC. Those concerns lived alongside H.264 demuxing in
// the teacher this package was adapted from, but are out of scope for a
// bitstream-syntax-layer parser.
package demux
