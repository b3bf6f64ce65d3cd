// Command h264info parses one or more Annex B H.264 elementary streams and
// prints a summary of the parameter sets and slices each file contains. It
// exits non-zero if any file cannot be read; individual NAL parse errors
// within a file are
// logged and skipped so one bad unit doesn't hide the rest of the report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/h264syntax/internal/demux"
	"github.com/zsiec/h264syntax/internal/h264"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: h264info <file> [file...]")
		os.Exit(2)
	}

	maxParallel := envOrInt("H264INFO_PARALLELISM", 4)

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(maxParallel)

	reports := make([]*fileReport, len(os.Args[1:]))
	for i, path := range os.Args[1:] {
		i, path := i, path
		g.Go(func() error {
			report, err := inspectFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("h264info failed", "error", err)
		os.Exit(1)
	}

	for _, r := range reports {
		r.print(os.Stdout)
	}
}

// fileReport summarizes one file's NAL unit stream.
type fileReport struct {
	path       string
	totalNALUs int
	sps        []demux.SPSInfo
	ppsCount   int
	sliceCount int
	idrCount   int
	errors     int
}

func inspectFile(path string) (*fileReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	report := &fileReport{path: path}
	store := h264.NewStore()

	for _, nal := range demux.ParseAnnexB(data) {
		report.totalNALUs++
		switch {
		case demux.IsSPS(nal.Header.UnitType()):
			info, err := demux.ParseSPS(nal.Data)
			if err != nil {
				slog.Debug("skipping malformed SPS", "file", path, "error", err)
				report.errors++
				continue
			}
			report.sps = append(report.sps, info)
			if sps, err := h264.ParseSPS(h264.DecodeRBSP(nal.Data[1:])); err == nil {
				store.PutSPS(sps)
			}
		case demux.IsPPS(nal.Header.UnitType()):
			pps, err := h264.ParsePPS(h264.DecodeRBSP(nal.Data[1:]), store)
			if err != nil {
				slog.Debug("skipping malformed PPS", "file", path, "error", err)
				report.errors++
				continue
			}
			store.PutPPS(pps)
			report.ppsCount++
		case nal.Header.UnitType() == h264.UnitTypeSliceIDR, nal.Header.UnitType() == h264.UnitTypeSliceNonIDR:
			report.sliceCount++
			if demux.IsKeyframe(nal.Header.UnitType()) {
				report.idrCount++
			}
			if _, _, _, err := h264.ParseSliceHeader(h264.DecodeRBSP(nal.Data[1:]), nal.Header, store); err != nil {
				slog.Debug("skipping malformed slice header", "file", path, "error", err)
				report.errors++
			}
		}
	}

	return report, nil
}

func (r *fileReport) print(w *os.File) {
	fmt.Fprintf(w, "%s:\n", r.path)
	fmt.Fprintf(w, "  NAL units: %d (errors: %d)\n", r.totalNALUs, r.errors)
	fmt.Fprintf(w, "  slices: %d (IDR: %d)\n", r.sliceCount, r.idrCount)
	fmt.Fprintf(w, "  PPS: %d\n", r.ppsCount)
	for i, sps := range r.sps {
		fmt.Fprintf(w, "  SPS[%d]: %dx%d codec=%s\n", i, sps.Width, sps.Height, sps.CodecString())
	}
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}
