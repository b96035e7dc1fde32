package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Sample is one sample of a track placed in the file.
type Sample struct {
	// 1-based, in decoding order.
	Index    uint32
	Offset   uint64
	Size     uint32
	IsIFrame bool
}

// End is the position one past the last byte of the sample, saturated at math.MaxUint64.
func (v Sample) End() uint64 {
	return addSaturating(v.Offset, uint64(v.Size))
}

// TableTruncation counts what the sample tables declare but could not be used.
type TableTruncation struct {
	// entries counted by a table header but absent from the payload, over all tables.
	MissingEntries uint64
	// chunks named by stsc that have no entry in the chunk offset table.
	MissingChunks uint64
	// samples of the stsc expansion past the end of the sample size table.
	UnsizedSamples uint64
}

// Any reports whether the index is partial.
func (v TableTruncation) Any() bool {
	return v.MissingEntries > 0 || v.MissingChunks > 0 || v.UnsizedSamples > 0
}

// TrackIndex is the sample index of one track.
type TrackIndex struct {
	Track *TrackTables
	// every placed sample, in sample number order.
	Samples []Sample
	// offsets of the sync samples, in sample number order.
	KeyFrames  []uint64
	Truncation TableTruncation
}

// BuildSampleIndex places every sample of an eligible track in the file.
func BuildSampleIndex(track *TrackTables) (v *TrackIndex, err error) {
	if !track.Eligible() {
		return nil, errors.Errorf("track %v lacks stss, stsz, stsc or chunk offsets", track.Index)
	}

	var stss *SyncSampleTable
	if stss, err = ParseSyncSampleTable(track.Stss); err != nil {
		return nil, errors.Wrapf(err, "track %v", track.Index)
	}

	var stco *ChunkOffsetTable
	if track.Stco != nil {
		stco, err = ParseChunkOffsetTable(track.Stco)
	} else {
		stco, err = ParseChunkLargeOffsetTable(track.Co64)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "track %v", track.Index)
	}

	var stsz *SampleSizeTable
	if stsz, err = ParseSampleSizeTable(track.Stsz); err != nil {
		return nil, errors.Wrapf(err, "track %v", track.Index)
	}

	var stsc *SampleToChunkTable
	if stsc, err = ParseSampleToChunkTable(track.Stsc); err != nil {
		return nil, errors.Wrapf(err, "track %v", track.Index)
	}

	v = buildSamples(stss, stco, stsz, stsc)
	v.Track = track
	v.Truncation.MissingEntries = uint64(stss.Missing) + uint64(stco.Missing) + uint64(stsz.Missing) + uint64(stsc.Missing)

	log.Infof("track %v(id=%v, handler=%v): %v samples, %v key frames, truncation %+v",
		track.Index, track.TrackID, track.HandlerName(), len(v.Samples), len(v.KeyFrames), v.Truncation)
	return v, nil
}

// maxReservedSamples bounds the up front allocation of a track index; larger tracks grow it.
const maxReservedSamples = 1 << 20

// buildSamples expands stsc into chunks and walks them in order. Sample numbers run on
// across chunks; a sample's offset is its chunk offset plus the sizes of the samples before
// it in that chunk.
func buildSamples(stss *SyncSampleTable, stco *ChunkOffsetTable, stsz *SampleSizeTable, stsc *SampleToChunkTable) *TrackIndex {
	iframes := stss.Set()
	nbSizes := stsz.Len()
	nbChunks := uint64(len(stco.Offsets))

	// The sample count of a uniform stsz is not backed by any entries, so only reserve
	// what the chunks can hold.
	v := &TrackIndex{
		Samples: make([]Sample, 0, min(uint64(nbSizes), placeable(stsc, nbChunks), maxReservedSamples)),
	}

	index := 1
	for i, entry := range stsc.Entries {
		last := nbChunks
		if i+1 < len(stsc.Entries) {
			last = uint64(stsc.Entries[i+1].FirstChunk)
			if last > 0 {
				last--
			}
		}

		for chunk := uint64(entry.FirstChunk); chunk <= last; chunk++ {
			if chunk == 0 {
				// chunk numbers start at 1
				v.Truncation.MissingChunks++
				continue
			}
			if chunk > nbChunks {
				v.Truncation.MissingChunks += last - chunk + 1
				break
			}
			if index > nbSizes {
				v.Truncation.UnsizedSamples += uint64(entry.SamplesPerChunk)
				continue
			}

			offset, _ := stco.Offset(uint32(chunk))

			for j := uint32(0); j < entry.SamplesPerChunk; j++ {
				if index > nbSizes {
					v.Truncation.UnsizedSamples += uint64(entry.SamplesPerChunk - j)
					break
				}

				size := stsz.Size(index)
				_, iframe := iframes[uint32(index)]
				v.Samples = append(v.Samples, Sample{
					Index:    uint32(index),
					Offset:   offset,
					Size:     size,
					IsIFrame: iframe,
				})
				if iframe {
					v.KeyFrames = append(v.KeyFrames, offset)
				}

				offset = addSaturating(offset, uint64(size))
				index++
			}
		}
	}
	return v
}

// placeable is the number of samples stsc puts in the chunks of the chunk offset table.
func placeable(stsc *SampleToChunkTable, nbChunks uint64) (n uint64) {
	for i, entry := range stsc.Entries {
		first := max(uint64(entry.FirstChunk), 1)
		last := nbChunks
		if i+1 < len(stsc.Entries) {
			last = min(uint64(stsc.Entries[i+1].FirstChunk), nbChunks+1)
			if last > 0 {
				last--
			}
		}
		if first > last {
			continue
		}
		n = addSaturating(n, (last-first+1)*uint64(entry.SamplesPerChunk))
	}
	return
}
