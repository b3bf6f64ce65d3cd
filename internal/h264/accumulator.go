package h264

// Interest is an [AccumulatedNALHandler]'s request for further callbacks on
// the NAL it was just given.
type Interest int

const (
	// InterestBuffer asks the accumulator to keep buffering this NAL (if
	// incomplete) and call again once more bytes, or the end, arrive.
	InterestBuffer Interest = iota
	// InterestIgnore asks the accumulator to stop buffering and stop
	// calling back for the remainder of this NAL.
	InterestIgnore
)

// NAL is a partially- or completely-buffered NAL unit, including its
// header byte. Unlike the zero-copy chunk list the original push-parser
// design used, this implementation accumulates each NAL into one flat
// buffer: simpler to reason about in Go, at the cost of occasionally
// copying a prefix more than once while a large NAL is still streaming in.
type NAL struct {
	data     []byte
	complete bool
}

// IsComplete reports whether the NAL is known to be fully buffered.
func (n NAL) IsComplete() bool { return n.complete }

// Header decodes the NAL's header byte.
func (n NAL) Header() (Header, error) {
	if len(n.data) == 0 {
		return Header{}, ErrTruncated
	}
	return NewHeader(n.data[0])
}

// Bytes returns the buffered NAL bytes, header included, with
// emulation-prevention bytes still present.
func (n NAL) Bytes() []byte { return n.data }

// RBSPBytes decodes the buffered NAL body (excluding the header byte) to
// RBSP form, stripping emulation-prevention bytes.
func (n NAL) RBSPBytes() []byte {
	if len(n.data) == 0 {
		return nil
	}
	return DecodeRBSP(n.data[1:])
}

// BitReader returns a [BitReader] over the NAL's RBSP body, honoring
// IsComplete so reads past the buffered prefix of an incomplete NAL report
// [ErrWouldBlock] rather than [ErrTruncated].
func (n NAL) BitReader() *BitReader {
	rbsp := n.RBSPBytes()
	if n.complete {
		return NewBitReader(rbsp)
	}
	return NewIncompleteBitReader(rbsp)
}

// AccumulatedNALHandler is called by [Accumulator] with each partially- or
// completely-buffered NAL it is interested in.
type AccumulatedNALHandler interface {
	NAL(nal NAL) Interest
}

// AccumulatedNALHandlerFunc adapts a function to an [AccumulatedNALHandler].
type AccumulatedNALHandlerFunc func(nal NAL) Interest

// NAL implements [AccumulatedNALHandler].
func (f AccumulatedNALHandlerFunc) NAL(nal NAL) Interest { return f(nal) }

// Accumulator is a [FragmentHandler] (component D) that assembles the
// fragments an [AnnexBFramer] emits into NALs and dispatches them to an
// [AccumulatedNALHandler]. The handler's [Interest] return value, recorded
// per NAL, decides whether the accumulator keeps copying further fragments
// of that NAL into its buffer.
type Accumulator struct {
	buf      []byte
	handler  AccumulatedNALHandler
	interest Interest
}

// NewAccumulator constructs an Accumulator delegating to handler.
func NewAccumulator(handler AccumulatedNALHandler) *Accumulator {
	return &Accumulator{handler: handler, interest: InterestBuffer}
}

// Handler returns the underlying handler.
func (a *Accumulator) Handler() AccumulatedNALHandler { return a.handler }

// NALFragment implements [FragmentHandler].
func (a *Accumulator) NALFragment(bufs [][]byte, end bool) {
	if a.interest != InterestIgnore {
		if nal, ok := a.buildNAL(bufs, end); ok {
			switch a.handler.NAL(nal) {
			case InterestBuffer:
				if !end {
					for _, b := range bufs {
						a.buf = append(a.buf, b...)
					}
				}
			case InterestIgnore:
				a.interest = InterestIgnore
			}
		}
	}
	if end {
		a.buf = a.buf[:0]
		a.interest = InterestBuffer
	}
}

func (a *Accumulator) buildNAL(bufs [][]byte, end bool) (NAL, bool) {
	if len(a.buf) == 0 && len(bufs) == 0 {
		return NAL{}, false
	}
	total := len(a.buf)
	for _, b := range bufs {
		total += len(b)
	}
	if total == 0 {
		return NAL{}, false
	}
	data := make([]byte, 0, total)
	data = append(data, a.buf...)
	for _, b := range bufs {
		data = append(data, b...)
	}
	return NAL{data: data, complete: end}, true
}
