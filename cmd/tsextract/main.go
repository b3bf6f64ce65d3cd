// Command tsextract reads an MPEG-TS file carrying a single H.264
// elementary stream and either writes the reassembled video as a raw
// Annex B .h264 file, or packetizes it into RTP and reports per-packet
// sizing — useful for checking how a capture would fragment over a given
// MTU before wiring it into a live RTP sender.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/zsiec/h264syntax/internal/demux"
	"github.com/zsiec/h264syntax/internal/rtppack"
)

func main() {
	inPath := flag.String("in", "", "input MPEG-TS file (required)")
	outPath := flag.String("out", "", "output Annex B .h264 file (optional)")
	rtpMode := flag.Bool("rtp", false, "packetize output into RTP and report sizing instead of writing Annex B")
	mtu := flag.Int("mtu", rtppack.DefaultMTU, "RTP payload MTU in bytes, used only with -rtp")
	payloadType := flag.Int("pt", 96, "RTP payload type, used only with -rtp")
	flag.Parse()

	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: tsextract -in <file.ts> [-out <file.h264>] [-rtp] [-mtu N] [-pt N]")
		os.Exit(2)
	}

	if err := run(*inPath, *outPath, *rtpMode, *mtu, uint8(*payloadType)); err != nil {
		slog.Error("tsextract failed", "error", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string, rtpMode bool, mtu int, payloadType uint8) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	dmx := demux.NewDemuxer(f, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out *os.File
	if outPath != "" && !rtpMode {
		out, err = os.Create(outPath)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	var packetizer *rtppack.Packetizer
	if rtpMode {
		packetizer = rtppack.NewPacketizer(payloadType, 0, mtu)
	}

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- dmx.Run(ctx) }()

	var frames, packets int
	var totalBytes int64
	for frame := range dmx.Video() {
		frames++
		for _, nal := range frame.NALUs {
			totalBytes += int64(len(nal))
			if out != nil {
				if _, err := out.Write(nal); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
			}
		}
		if packetizer != nil {
			pkts, err := packetizer.Packetize(stripStartCodes(frame.NALUs), uint32(frame.PTS/1000*90))
			if err != nil {
				slog.Warn("failed to packetize frame", "error", err)
				continue
			}
			packets += len(pkts)
		}
	}

	if err := <-runErrCh; err != nil {
		return fmt.Errorf("demuxing %s: %w", inPath, err)
	}

	slog.Info("extraction complete", "frames", frames, "bytes", totalBytes, "rtp_packets", packets)
	return nil
}

// stripStartCodes removes the 4-byte Annex B start code [demux.Demuxer]
// prepends to each NAL unit in a [demux.VideoFrame], since [rtppack] works
// on bare NAL units.
func stripStartCodes(nalus [][]byte) [][]byte {
	out := make([][]byte, 0, len(nalus))
	for _, n := range nalus {
		if len(n) > 4 {
			out = append(out, n[4:])
		}
	}
	return out
}
