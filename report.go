package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"panda.com/mp4iframe/core"
)

// comma groups the digits of n; humanize takes an int64, so larger values print plain.
func comma(n uint64) string {
	if n > math.MaxInt64 {
		return strconv.FormatUint(n, 10)
	}
	return humanize.Comma(int64(n))
}

// printReport writes the human readable result of an analysis.
func printReport(w io.Writer, path string, a *core.Analysis) {
	fmt.Fprintf(w, "File: %v\n", path)
	fmt.Fprintf(w, "File size: %v bytes (%v)\n", comma(a.FileSize), humanize.IBytes(a.FileSize))
	if a.Mdat != nil {
		fmt.Fprintf(w, "Media data (mdat) range: %v - %v bytes\n", comma(a.Mdat.Start), comma(a.Mdat.End))
		fmt.Fprintf(w, "Actual mdat size: %v bytes\n", comma(a.Mdat.Size()))
	} else {
		fmt.Fprintln(w, "Media data (mdat): not found")
	}
	fmt.Fprintln(w)

	r := a.Reconciliation
	invalid := a.InvalidChecks()
	fmt.Fprintf(w, "Frames in moov atom (index): %v\n", comma(uint64(r.FramesInMoov)))
	fmt.Fprintf(w, "Total I-frames found: %v\n", len(a.Checks))
	fmt.Fprintf(w, "Valid I-frames: %v\n", len(a.Checks)-len(invalid))
	fmt.Fprintf(w, "Invalid I-frames: %v\n", len(invalid))

	if r.FramesOutsideMdat > 0 {
		fmt.Fprintln(w, "\n[WARNING] Frame count mismatch detected!")
		fmt.Fprintf(w, "  Frames with offsets outside mdat: %v\n", r.FramesOutsideMdat)
	}
	if r.SizeMismatch {
		fmt.Fprintln(w, "\n[WARNING] Significant size mismatch detected!")
		fmt.Fprintf(w, "  Total frame size from moov: %v bytes\n", comma(r.TotalSampleSize))
		fmt.Fprintf(w, "  Actual mdat size: %v bytes\n", comma(r.MdatSize))
		fmt.Fprintf(w, "  Difference: %v bytes (%.1f%% mismatch)\n", comma(r.SizeDifference()), r.MismatchPercent())
	}
	fmt.Fprintln(w)

	printTracks(w, a)
	fmt.Fprintln(w)

	if len(invalid) == 0 {
		fmt.Fprintln(w, "All I-frame offsets are valid.")
		return
	}
	fmt.Fprintln(w, "Invalid I-frame offsets:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Reason"})
	table.SetAutoWrapText(false)
	for _, c := range invalid {
		table.Append([]string{strconv.FormatUint(c.Offset, 10), strings.Join(c.Reasons, ", ")})
	}
	table.Render()
}

func printTracks(w io.Writer, a *core.Analysis) {
	indexed := make(map[int]*core.TrackIndex, len(a.Indexes))
	for _, index := range a.Indexes {
		indexed[index.Track.Index] = index
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Track", "ID", "Handler", "Codec", "Samples", "I-frames", "Bytes", "Note"})
	for _, t := range a.Tracks {
		row := []string{
			strconv.Itoa(t.Index),
			strconv.FormatUint(uint64(t.TrackID), 10),
			t.HandlerName(),
			t.CodecName(),
		}
		index, ok := indexed[t.Index]
		switch {
		case ok:
			var bytes uint64
			for _, s := range index.Samples {
				bytes += uint64(s.Size)
			}
			note := ""
			if tr := index.Truncation; tr.Any() {
				note = fmt.Sprintf("partial: %v missing entries, %v missing chunks, %v unsized samples",
					tr.MissingEntries, tr.MissingChunks, tr.UnsizedSamples)
			}
			row = append(row, comma(uint64(len(index.Samples))), comma(uint64(len(index.KeyFrames))), humanize.IBytes(bytes), note)
		case !t.Eligible():
			row = append(row, "-", "-", "-", "skipped: no key frame tables")
		default:
			row = append(row, "-", "-", "-", "skipped: handler not selected")
		}
		table.Append(row)
	}
	table.Render()
}

// printFailure writes the type, message and stack of a fatal error.
func printFailure(w io.Writer, err error) {
	fmt.Fprintln(w, "\n[ERROR] An exception occurred!")
	fmt.Fprintf(w, "Type: %T\n", errors.Cause(err))
	fmt.Fprintf(w, "Message: %v\n", err)
	fmt.Fprintln(w, "Trace:")
	fmt.Fprintf(w, "%+v\n", err)
}
