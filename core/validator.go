package core

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// DefaultSizeTolerance is the fraction of the mdat size by which the summed sample sizes may
// differ before a mismatch is reported.
const DefaultSizeTolerance = 0.1

// OffsetCheck is the verdict on one key frame offset.
type OffsetCheck struct {
	Offset uint64
	Valid  bool
	// why the offset is invalid, empty when valid.
	Reasons []string
	// Annotation only, never affects Valid.
	StartCode StartCode
	NALType   string
}

// ValidateOffsets checks each key frame offset against the file and, when known, the media
// data. offsets must be sorted and unique.
func ValidateOffsets(data []byte, offsets []uint64, mdat *MdatRange) []OffsetCheck {
	fileSize := uint64(len(data))
	checks := make([]OffsetCheck, 0, len(offsets))

	for _, offset := range offsets {
		check := OffsetCheck{Offset: offset}

		if offset >= fileSize {
			check.Reasons = append(check.Reasons, fmt.Sprintf("exceeds file size (%v)", fileSize))
		}
		if mdat != nil && (offset < mdat.Start || offset >= mdat.End) {
			check.Reasons = append(check.Reasons, fmt.Sprintf("outside mdat box (%v-%v)", mdat.Start, mdat.End))
		}
		if offset > math.MaxUint64-4 || offset+4 > fileSize {
			check.Reasons = append(check.Reasons, "insufficient data at offset")
		} else {
			check.StartCode = DetectStartCode(data, offset)
		}

		check.Valid = len(check.Reasons) == 0
		if !check.Valid {
			log.Tracef("invalid key frame offset %v: %v", offset, check.Reasons)
		}
		checks = append(checks, check)
	}
	return checks
}

// Reconciliation compares the sample index of the tracks with the media data.
type Reconciliation struct {
	// samples placed over all tracks.
	FramesInMoov int
	// samples not wholly inside mdat, 0 when there is no mdat.
	FramesOutsideMdat int
	TotalSampleSize   uint64
	MdatSize          uint64
	MdatKnown         bool
	SizeMismatch      bool
}

// SizeDifference is |TotalSampleSize - MdatSize|.
func (v Reconciliation) SizeDifference() uint64 {
	if v.TotalSampleSize > v.MdatSize {
		return v.TotalSampleSize - v.MdatSize
	}
	return v.MdatSize - v.TotalSampleSize
}

// MismatchPercent is how far the summed sizes fall short of the mdat size, in percent.
func (v Reconciliation) MismatchPercent() float64 {
	if v.MdatSize == 0 {
		return 0
	}
	return 100 - float64(v.TotalSampleSize)/float64(v.MdatSize)*100
}

// Reconcile counts every sample of the indexes and checks the sizes against mdat.
func Reconcile(indexes []*TrackIndex, mdat *MdatRange, tolerance float64) (v Reconciliation) {
	for _, index := range indexes {
		v.FramesInMoov += len(index.Samples)
		v.TotalSampleSize += lo.SumBy(index.Samples, func(s Sample) uint64 {
			return uint64(s.Size)
		})
		if mdat == nil {
			continue
		}
		v.FramesOutsideMdat += lo.CountBy(index.Samples, func(s Sample) bool {
			return !mdat.Contains(s.Offset, uint64(s.Size))
		})
	}

	if mdat == nil {
		return
	}
	v.MdatKnown = true
	v.MdatSize = mdat.Size()
	if v.MdatSize > 0 {
		v.SizeMismatch = float64(v.SizeDifference()) > tolerance*float64(v.MdatSize)
	}

	if v.FramesOutsideMdat > 0 {
		log.Warnf("%v of %v samples lie outside mdat", v.FramesOutsideMdat, v.FramesInMoov)
	}
	if v.SizeMismatch {
		log.Warnf("sample sizes sum to %v bytes, mdat holds %v bytes", v.TotalSampleSize, v.MdatSize)
	}
	return
}
