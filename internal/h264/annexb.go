package h264

import (
	"bytes"
	"io"
	"log/slog"
)

// discardLogger returns a logger that drops everything, for callers (like
// [SplitAnnexB]) that process a complete in-memory buffer and have no
// interest in sync-loss diagnostics from a single one-shot parse.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type annexBState int

const (
	stateStart annexBState = iota
	stateStart1Zero
	stateStart2Zero
	stateInUnit
	stateInUnit1Zero
	stateInUnit2Zero
)

var zeroPad = [2]byte{0, 0}

// FragmentHandler receives fragments of NAL-unit bytes (including the
// leading header byte) as an Annex B byte stream is scanned by
// [AnnexBFramer]. bufs holds zero or more slices that, concatenated in
// order, extend the NAL currently being assembled; end reports whether
// this fragment completes the NAL. The concatenation of every bufs slice
// delivered for one NAL is bitwise identical regardless of how the input
// bytes were split across [AnnexBFramer.Push] calls.
type FragmentHandler interface {
	NALFragment(bufs [][]byte, end bool)
}

// FragmentHandlerFunc adapts a function to a [FragmentHandler].
type FragmentHandlerFunc func(bufs [][]byte, end bool)

// NALFragment implements [FragmentHandler].
func (f FragmentHandlerFunc) NALFragment(bufs [][]byte, end bool) { f(bufs, end) }

// AnnexBFramer is a push-parser for the ITU-T H.264 Annex B byte-stream
// format (NAL units delimited by 0x00 0x00 0x01 or 0x00 0x00 0x00 0x01
// start codes). It recognizes start codes across arbitrary call
// boundaries by deferring emission of trailing 0x00 bytes until it is
// known whether they are payload or a start-code prefix.
//
// On an invalid byte sequence outside a NAL, the framer logs, returns to
// its start state and resyncs at the next start code; a NAL that becomes invalid partway through is
// closed and the framer resyncs at the next start code.
type AnnexBFramer struct {
	state   annexBState
	handler FragmentHandler
	log     *slog.Logger
}

// NewAnnexBFramer constructs a framer that delivers fragments to handler.
// A nil log uses [slog.Default].
func NewAnnexBFramer(handler FragmentHandler, log *slog.Logger) *AnnexBFramer {
	if log == nil {
		log = slog.Default()
	}
	return &AnnexBFramer{state: stateStart, handler: handler, log: log}
}

// inUnitBacktrack reports, for the current state, how many already-scanned
// trailing 0x00 bytes must be backtracked (held back) because they might
// turn out to be a start-code prefix rather than NAL payload.
func (f *AnnexBFramer) inUnitBacktrack() (backtrack int, inUnit bool) {
	switch f.state {
	case stateInUnit:
		return 0, true
	case stateInUnit1Zero:
		return 1, true
	case stateInUnit2Zero:
		return 2, true
	default:
		return 0, false
	}
}

// Push feeds the next chunk of an Annex B byte stream. Pushes need not
// align to NAL or start-code boundaries.
func (f *AnnexBFramer) Push(buf []byte) {
	haveStart := false
	fakeZeros := 0
	start := 0
	if backtrack, ok := f.inUnitBacktrack(); ok {
		haveStart = true
		fakeZeros = backtrack
	}

	i := 0
	for i < len(buf) {
		b := buf[i]
		switch f.state {
		case stateStart:
			if b == 0x00 {
				f.state = stateStart1Zero
			} else {
				f.syncError(b)
			}
		case stateStart1Zero:
			if b == 0x00 {
				f.state = stateStart2Zero
			} else {
				f.syncError(b)
			}
		case stateStart2Zero:
			switch b {
			case 0x00:
				// keep ignoring further 0x00 bytes
			case 0x01:
				haveStart = true
				fakeZeros = 0
				start = i + 1
				f.state = stateInUnit
			default:
				f.syncError(b)
			}
		case stateInUnit:
			if idx := bytes.IndexByte(buf[i:], 0x00); idx >= 0 {
				f.state = stateInUnit1Zero
				i += idx
			} else {
				i = len(buf)
				continue
			}
		case stateInUnit1Zero:
			if b == 0x00 {
				f.state = stateInUnit2Zero
			} else {
				f.state = stateInUnit
			}
		case stateInUnit2Zero:
			switch b {
			case 0x00:
				f.maybeEmit(buf, haveStart, fakeZeros, start, i, 2, true)
				haveStart = false
				f.state = stateStart2Zero
			case 0x01:
				f.maybeEmit(buf, haveStart, fakeZeros, start, i, 2, true)
				haveStart = true
				fakeZeros = 0
				start = i + 1
				f.state = stateInUnit
			default:
				f.state = stateInUnit
			}
		}
		i++
	}
	if backtrack, ok := f.inUnitBacktrack(); ok {
		f.maybeEmit(buf, haveStart, fakeZeros, start, len(buf), backtrack, false)
	}
}

// Reset flushes any NAL currently open, together with its deferred zero
// bytes, as a final fragment with end=true, and returns the framer to its
// start state. Call this once all input has been pushed, or when a
// container boundary explicitly demarcates the end of a NAL sequence.
func (f *AnnexBFramer) Reset() {
	if backtrack, ok := f.inUnitBacktrack(); ok {
		if backtrack > 0 {
			f.handler.NALFragment([][]byte{zeroPad[:backtrack]}, true)
		} else {
			f.handler.NALFragment(nil, true)
		}
	}
	f.state = stateStart
}

func (f *AnnexBFramer) maybeEmit(buf []byte, haveStart bool, fakeZeros, start, end, backtrack int, isEnd bool) {
	if !haveStart {
		return
	}
	if start+backtrack < end {
		var bufs [][]byte
		if fakeZeros > 0 {
			bufs = append(bufs, zeroPad[:fakeZeros])
		}
		bufs = append(bufs, buf[start:end-backtrack])
		f.handler.NALFragment(bufs, isEnd)
	} else if isEnd {
		f.handler.NALFragment(nil, true)
	}
}

func (f *AnnexBFramer) syncError(b byte) {
	f.log.Warn("annex b sync error", "state", int(f.state), "byte", b)
	f.state = stateStart
}

// SplitAnnexB splits a complete, in-memory Annex B byte stream into NAL
// units (header byte included, emulation-prevention bytes still present).
// The NAL still open when data ends is closed by [AnnexBFramer.Reset] and
// returned like the others. It composes [AnnexBFramer] and [Accumulator] for callers that already have
// the whole buffer and don't need the incremental push interface.
func SplitAnnexB(data []byte) [][]byte {
	var nals [][]byte
	acc := NewAccumulator(AccumulatedNALHandlerFunc(func(nal NAL) Interest {
		if nal.IsComplete() {
			nals = append(nals, nal.Bytes())
		}
		return InterestBuffer
	}))
	framer := NewAnnexBFramer(acc, discardLogger())
	framer.Push(data)
	framer.Reset()
	return nals
}
