package demux

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/zsiec/h264syntax/internal/h264"
	"github.com/zsiec/h264syntax/internal/mpegts"
)

const streamTypeH264 = 0x1B

// VideoFrame is one reassembled access unit: the NAL units carried by a
// single PES packet, each re-framed with a 4-byte Annex B start code, plus
// the most recently seen SPS/PPS (carried forward across frames so a
// client joining mid-stream at a keyframe still has parameter sets).
type VideoFrame struct {
	PTS, DTS   int64
	IsKeyframe bool
	NALUs      [][]byte
	SPS, PPS   []byte
	GroupID    uint32
}

// Demuxer splits an MPEG-TS byte stream carrying a single H.264 video
// elementary stream into [VideoFrame] values, delivered through the
// channel returned by Video. Other elementary stream types in the PMT
// (audio, other video codecs) are ignored — this consumer is H.264-only
// per spec (see SPEC_FULL.md, Non-goals).
type Demuxer struct {
	log      *slog.Logger
	reader   io.Reader
	videoCh  chan *VideoFrame
	videoPID uint16
	pmtReady chan struct{}
	pmtDone  bool
	sps, pps []byte
	spsInfo  SPSInfo
	groupID  uint32
	stats    StatsRecorder
}

// StatsRecorder is the interface accepted by [Demuxer.SetStats] for
// recording stream telemetry.
type StatsRecorder interface {
	RecordVideoFrame(bytes int64, isKeyframe bool, pts int64)
	RecordResolution(width, height int)
}

// NewDemuxer creates a Demuxer that reads MPEG-TS packets from r. Call Run
// to begin demuxing and read from the channel returned by Video. If log is
// nil, [slog.Default] is used.
func NewDemuxer(r io.Reader, log *slog.Logger) *Demuxer {
	if log == nil {
		log = slog.Default()
	}
	return &Demuxer{
		log:      log.With("component", "demux"),
		reader:   r,
		videoCh:  make(chan *VideoFrame, 64),
		pmtReady: make(chan struct{}),
	}
}

// Video returns the channel on which parsed video frames are delivered.
func (d *Demuxer) Video() <-chan *VideoFrame { return d.videoCh }

// PMTReady returns a channel that is closed once the first PMT has been
// parsed and the video PID is known.
func (d *Demuxer) PMTReady() <-chan struct{} { return d.pmtReady }

// SetStats attaches a StatsRecorder that receives telemetry callbacks for
// every video frame processed.
func (d *Demuxer) SetStats(s StatsRecorder) { d.stats = s }

// Run starts the demuxing loop, reading MPEG-TS packets from the
// underlying reader until EOF or context cancellation. Parsed frames are
// sent to the channel returned by Video, which Run closes on return.
func (d *Demuxer) Run(ctx context.Context) error {
	defer close(d.videoCh)

	dmx := mpegts.NewDemuxer(ctx, d.reader, mpegts.DemuxerOptPacketSize(188))

	for {
		data, err := dmx.NextData()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			d.log.Debug("skipping corrupt packet", "error", err)
			continue
		}

		if data.PMT != nil {
			d.handlePMT(data.PMT)
			continue
		}

		if data.PES == nil {
			continue
		}
		if data.FirstPacket.Header.PID != d.videoPID {
			continue
		}
		d.handleVideo(ctx, data.PES)
	}
}

func (d *Demuxer) handlePMT(pmt *mpegts.PMTData) {
	for _, es := range pmt.ElementaryStreams {
		if es.StreamType == streamTypeH264 && d.videoPID == 0 {
			d.videoPID = es.ElementaryPID
			d.log.Info("found H.264 video PID", "pid", es.ElementaryPID)
		}
	}
	if !d.pmtDone {
		d.pmtDone = true
		close(d.pmtReady)
	}
}

func (d *Demuxer) handleVideo(ctx context.Context, pes *mpegts.PESData) {
	if len(pes.Data) == 0 {
		return
	}

	var pts, dts int64
	if pes.Header != nil && pes.Header.OptionalHeader != nil {
		if pes.Header.OptionalHeader.PTS != nil {
			pts = pes.Header.OptionalHeader.PTS.Base * 1000000 / 90000
		}
		if pes.Header.OptionalHeader.DTS != nil {
			dts = pes.Header.OptionalHeader.DTS.Base * 1000000 / 90000
		} else {
			dts = pts
		}
	}

	nalus := ParseAnnexB(pes.Data)
	if len(nalus) == 0 {
		return
	}

	isKeyframe := false
	var naluBytes [][]byte
	for _, nal := range nalus {
		t := nal.Header.UnitType()
		if t == h264.UnitTypeAUD || t == h264.UnitTypeFillerData {
			continue
		}
		switch {
		case IsSPS(t):
			d.sps = append([]byte(nil), nal.Data...)
			isKeyframe = true
			if info, err := ParseSPS(nal.Data); err == nil {
				d.spsInfo = info
				if d.stats != nil {
					d.stats.RecordResolution(info.Width, info.Height)
				}
			}
		case IsPPS(t):
			d.pps = append([]byte(nil), nal.Data...)
		case IsKeyframe(t):
			isKeyframe = true
		}

		annexB := make([]byte, 4+len(nal.Data))
		annexB[3] = 1
		copy(annexB[4:], nal.Data)
		naluBytes = append(naluBytes, annexB)
	}

	if isKeyframe {
		d.groupID++
	}
	frame := &VideoFrame{
		PTS: pts, DTS: dts, IsKeyframe: isKeyframe, NALUs: naluBytes, GroupID: d.groupID,
	}
	if d.sps != nil {
		frame.SPS = append([]byte(nil), d.sps...)
	}
	if d.pps != nil {
		frame.PPS = append([]byte(nil), d.pps...)
	}

	if d.stats != nil {
		var total int64
		for _, n := range naluBytes {
			total += int64(len(n))
		}
		d.stats.RecordVideoFrame(total, isKeyframe, pts)
	}

	select {
	case d.videoCh <- frame:
	case <-ctx.Done():
	}
}
