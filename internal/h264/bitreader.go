package h264

import "math/bits"

// BitReader reads MSB-first bits and Exp-Golomb codes from an RBSP byte
// buffer (component A of the syntax-layer parser). It carries no knowledge
// of emulation-prevention bytes; callers decode those with [DecodeRBSP] or
// [RBSPReader] before constructing a BitReader.
//
// A BitReader is either backed by a complete buffer (the common case, once
// an [Accumulator] has assembled a whole NAL) or by a known-incomplete
// prefix (used while a NAL is still streaming in). Reads past the end of
// an incomplete buffer return [ErrWouldBlock]; reads past the end of a
// complete buffer return [ErrTruncated].
type BitReader struct {
	data     []byte
	complete bool
	bytePos  int
	bitPos   uint // 0..7, 0 = MSB of data[bytePos]
}

// NewBitReader constructs a BitReader over a complete RBSP buffer.
func NewBitReader(rbsp []byte) *BitReader {
	return &BitReader{data: rbsp, complete: true}
}

// NewIncompleteBitReader constructs a BitReader over a buffered prefix of
// an RBSP whose remainder has not yet arrived.
func NewIncompleteBitReader(rbsp []byte) *BitReader {
	return &BitReader{data: rbsp, complete: false}
}

// BitsRead reports the number of bits consumed so far.
func (r *BitReader) BitsRead() int64 {
	return int64(r.bytePos)*8 + int64(r.bitPos)
}

func (r *BitReader) readBit(label string) (uint32, error) {
	if r.bytePos >= len(r.data) {
		if !r.complete {
			return 0, annotate(ErrWouldBlock, label)
		}
		return 0, annotate(ErrTruncated, label)
	}
	v := (r.data[r.bytePos] >> (7 - r.bitPos)) & 1
	r.bitPos++
	if r.bitPos == 8 {
		r.bitPos = 0
		r.bytePos++
	}
	return uint32(v), nil
}

// ReadBits reads n (1-32) bits MSB-first as an unsigned integer, labeling
// the read for error messages the way the original fields are named in the
// ITU-T spec (e.g. "seq_parameter_set_id").
func (r *BitReader) ReadBits(n uint, label string) (uint32, error) {
	if n == 0 || n > 32 {
		return 0, &SyntaxError{Field: label, Value: int64(n), Reason: "bit width out of range"}
	}
	var v uint32
	for i := uint(0); i < n; i++ {
		b, err := r.readBit(label)
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return v, nil
}

// ReadBool reads a single bit as a boolean flag.
func (r *BitReader) ReadBool(label string) (bool, error) {
	v, err := r.ReadBits(1, label)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// ReadUE reads an unsigned Exp-Golomb code (ue(v)): a run of leading zero
// bits, a separator '1' bit, then that many further bits forming the
// suffix. The leading-zero run is capped at 31; a longer run is a
// malformed-stream error rather than an unbounded loop.
func (r *BitReader) ReadUE(label string) (uint32, error) {
	zeros := uint(0)
	for {
		b, err := r.readBit(label)
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, &SyntaxError{Field: label, Value: int64(zeros), Reason: "exp-golomb prefix too long"}
		}
	}
	if zeros == 0 {
		return 0, nil
	}
	suffix, err := r.ReadBits(zeros, label)
	if err != nil {
		return 0, err
	}
	return (uint32(1)<<zeros - 1) + suffix, nil
}

// ReadSE reads a signed Exp-Golomb code (se(v)), mapping the underlying
// ue(v) value u to 0, 1, -1, 2, -2, ... via ceil(u/2) with sign alternation.
func (r *BitReader) ReadSE(label string) (int32, error) {
	u, err := r.ReadUE(label)
	if err != nil {
		return 0, err
	}
	if u%2 == 0 {
		return -int32(u / 2), nil
	}
	return int32((u + 1) / 2), nil
}

// HasMoreRBSPData reports whether any bit remains before the
// rbsp_trailing_bits stop sequence (a '1' bit followed only by '0' bits to
// the end of the buffer). This is the standard "more_rbsp_data()" test used
// to decide whether a syntax structure has an optional trailing element.
func (r *BitReader) HasMoreRBSPData(label string) (bool, error) {
	if r.bytePos >= len(r.data) {
		if !r.complete {
			return false, annotate(ErrWouldBlock, label)
		}
		return false, nil
	}
	lastNonZero := len(r.data) - 1
	for lastNonZero > r.bytePos && r.data[lastNonZero] == 0 {
		lastNonZero--
	}
	if r.data[lastNonZero] == 0 {
		// Nothing but zero bytes remain: no stop bit found in a complete buffer.
		return false, nil
	}
	trailingZeros := bits.TrailingZeros8(r.data[lastNonZero])
	stopBitFromMSB := 7 - trailingZeros
	stopBitAbsolute := lastNonZero*8 + stopBitFromMSB
	currentAbsolute := r.bytePos*8 + int(r.bitPos)
	return currentAbsolute < stopBitAbsolute, nil
}

// FinishRBSP consumes the rbsp_trailing_bits (the stop '1' bit and the zero
// padding to byte alignment) and returns an error if data remains beyond
// that sequence.
func (r *BitReader) FinishRBSP() error {
	more, err := r.HasMoreRBSPData("rbsp_trailing_bits")
	if err != nil {
		return err
	}
	if more {
		return &SyntaxError{Field: "rbsp_trailing_bits", Reason: "unconsumed data before trailing bits"}
	}
	stop, err := r.ReadBool("rbsp_stop_one_bit")
	if err != nil {
		return err
	}
	if !stop {
		return &SyntaxError{Field: "rbsp_stop_one_bit", Reason: "expected a set bit"}
	}
	return nil
}

// FinishSEIPayload consumes any sei_payload trailing alignment bits. Unlike
// FinishRBSP, it is a no-op when the reader is already byte-aligned: an SEI
// payload's size is given explicitly in bytes, so only a payload that ended
// mid-byte needs the rbsp_trailing_bits sequence consumed.
func (r *BitReader) FinishSEIPayload() error {
	if r.bitPos == 0 {
		return nil
	}
	return r.FinishRBSP()
}
