package core

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options tune an analysis. The zero value is not useful, start from DefaultOptions.
type Options struct {
	// Handler types, e.g. "vide", whose tracks are indexed. Empty selects every eligible track.
	Handlers []string
	// Tracks indexed concurrently. 0 means no limit.
	Workers int
	// see DefaultSizeTolerance.
	SizeTolerance float64
	// name the NAL unit type at each key frame offset.
	Annotate bool
}

func DefaultOptions() Options {
	return Options{
		Workers:       1,
		SizeTolerance: DefaultSizeTolerance,
		Annotate:      true,
	}
}

// Analysis is the key frame index of a file and its validation.
type Analysis struct {
	FileSize uint64
	// nil when the file has no mdat.
	Mdat *MdatRange
	// every trak of moov, in order.
	Tracks []*TrackTables
	// indexes of the selected, eligible tracks, in track order.
	Indexes []*TrackIndex
	// key frame offsets of all indexes, sorted and unique.
	KeyFrames      []uint64
	Checks         []OffsetCheck
	Reconciliation Reconciliation
}

// ValidOffsets are the key frame offsets that passed every check, ascending.
func (v *Analysis) ValidOffsets() []uint64 {
	return lo.FilterMap(v.Checks, func(c OffsetCheck, _ int) (uint64, bool) {
		return c.Offset, c.Valid
	})
}

// InvalidChecks are the checks of the offsets that failed.
func (v *Analysis) InvalidChecks() []OffsetCheck {
	return lo.Filter(v.Checks, func(c OffsetCheck, _ int) bool {
		return !c.Valid
	})
}

// Analyze builds the key frame index of an mp4 file held in data.
func Analyze(data []byte, opts Options) (v *Analysis, err error) {
	var top *TopLevel
	if top, err = LocateTopLevel(data); err != nil {
		return
	}

	v = &Analysis{
		FileSize: uint64(len(data)),
		Mdat:     top.Mdat,
	}

	if v.Tracks, err = CollectTracks(top.Moov); err != nil {
		return nil, err
	}

	handlers := lo.Map(opts.Handlers, func(h string, _ int) uint32 {
		return BoxTypeOf(h)
	})
	selected := lo.Filter(v.Tracks, func(t *TrackTables, _ int) bool {
		if !t.Eligible() {
			log.Infof("skip track %v(handler=%v), sample tables incomplete", t.Index, t.HandlerName())
			return false
		}
		if len(handlers) > 0 && !lo.Contains(handlers, t.Handler) {
			log.Infof("skip track %v(handler=%v), handler not selected", t.Index, t.HandlerName())
			return false
		}
		return true
	})

	if v.Indexes, err = buildIndexes(selected, opts.Workers); err != nil {
		return nil, err
	}

	var all []uint64
	for _, index := range v.Indexes {
		all = append(all, index.KeyFrames...)
	}
	v.KeyFrames = lo.Uniq(all)
	slices.Sort(v.KeyFrames)

	v.Checks = ValidateOffsets(data, v.KeyFrames, v.Mdat)
	if opts.Annotate {
		annotate(data, v)
	}
	v.Reconciliation = Reconcile(v.Indexes, v.Mdat, opts.SizeTolerance)
	return v, nil
}

// buildIndexes indexes each track on its own goroutine, at most workers at a time.
func buildIndexes(tracks []*TrackTables, workers int) ([]*TrackIndex, error) {
	indexes := make([]*TrackIndex, len(tracks))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, track := range tracks {
		i, track := i, track
		g.Go(func() (err error) {
			if indexes[i], err = BuildSampleIndex(track); err != nil {
				log.Errorf("build sample index of track %v failed, err is %v", track.Index, err)
			}
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.WithMessage(err, "build sample index")
	}
	return indexes, nil
}

// annotate names the NAL unit at each in-file key frame, using the first track that placed
// a sample at that offset.
func annotate(data []byte, v *Analysis) {
	type placed struct {
		sample Sample
		entry  uint32
	}
	at := make(map[uint64]placed, len(v.KeyFrames))
	for _, index := range v.Indexes {
		for _, s := range index.Samples {
			if !s.IsIFrame {
				continue
			}
			if _, ok := at[s.Offset]; !ok {
				at[s.Offset] = placed{sample: s, entry: index.Track.Codec}
			}
		}
	}

	for i := range v.Checks {
		check := &v.Checks[i]
		p, ok := at[check.Offset]
		if !ok || check.Offset >= v.FileSize {
			continue
		}
		check.NALType = DescribeNALUnit(data, p.sample, p.entry, check.StartCode)
	}
}
