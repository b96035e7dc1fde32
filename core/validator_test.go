package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOffsets(t *testing.T) {
	data := make([]byte, 100)
	mdat := &MdatRange{Start: 20, End: 80}

	checks := ValidateOffsets(data, []uint64{10, 30, 79, 97, 150}, mdat)
	require.Len(t, checks, 5)

	assert.False(t, checks[0].Valid)
	assert.Equal(t, []string{"outside mdat box (20-80)"}, checks[0].Reasons)

	assert.True(t, checks[1].Valid)
	assert.Empty(t, checks[1].Reasons)

	// inside mdat with 21 bytes left in the file
	assert.True(t, checks[2].Valid)

	assert.False(t, checks[3].Valid)
	assert.Equal(t, []string{"outside mdat box (20-80)", "insufficient data at offset"}, checks[3].Reasons)

	assert.False(t, checks[4].Valid)
	assert.Equal(t, []string{"exceeds file size (100)", "outside mdat box (20-80)", "insufficient data at offset"}, checks[4].Reasons)
}

func TestValidateOffsets_NoMdat(t *testing.T) {
	data := make([]byte, 100)

	checks := ValidateOffsets(data, []uint64{0, 96, 97, 100}, nil)
	require.Len(t, checks, 4)
	assert.True(t, checks[0].Valid)
	assert.True(t, checks[1].Valid)
	assert.Equal(t, []string{"insufficient data at offset"}, checks[2].Reasons)
	assert.Equal(t, []string{"exceeds file size (100)", "insufficient data at offset"}, checks[3].Reasons)
}

func TestValidateOffsets_StartCodeIsAnnotation(t *testing.T) {
	data := make([]byte, 64)
	copy(data[8:], []byte{0, 0, 0, 1, 0x65})
	copy(data[16:], []byte{0, 0, 1, 0x65})
	copy(data[24:], []byte{0xaa, 0, 0, 1})
	copy(data[32:], []byte{0, 0, 0, 5})

	checks := ValidateOffsets(data, []uint64{8, 16, 24, 32, 62}, &MdatRange{Start: 8, End: 64})
	require.Len(t, checks, 5)

	assert.Equal(t, StartCode4, checks[0].StartCode)
	assert.Equal(t, StartCode3, checks[1].StartCode)
	assert.Equal(t, StartCodeNone, checks[2].StartCode)
	assert.Equal(t, StartCodeNone, checks[3].StartCode)
	for _, c := range checks[:4] {
		assert.True(t, c.Valid, "offset %v", c.Offset)
	}

	assert.False(t, checks[4].Valid)
	assert.Equal(t, StartCodeNone, checks[4].StartCode)
}

func TestStartCode_String(t *testing.T) {
	assert.Equal(t, "00 00 00 01", StartCode4.String())
	assert.Equal(t, "00 00 01", StartCode3.String())
	assert.Equal(t, "none", StartCodeNone.String())
}

func sizedIndex(sizes ...uint32) *TrackIndex {
	v := &TrackIndex{}
	offset := uint64(100)
	for i, size := range sizes {
		v.Samples = append(v.Samples, Sample{Index: uint32(i + 1), Offset: offset, Size: size})
		offset += uint64(size)
	}
	return v
}

func TestReconcile_SizeTolerance(t *testing.T) {
	mdat := &MdatRange{Start: 0, End: 1000}

	for _, c := range []struct {
		total    uint32
		mismatch bool
	}{
		{1000, false},
		{1100, false},
		{1101, true},
		{900, false},
		{899, true},
		{0, true},
	} {
		r := Reconcile([]*TrackIndex{sizedIndex(c.total)}, mdat, DefaultSizeTolerance)
		assert.Equal(t, c.mismatch, r.SizeMismatch, "total %v", c.total)
		assert.True(t, r.MdatKnown)
		assert.Equal(t, uint64(1000), r.MdatSize)
	}
}

func TestReconcile_Counts(t *testing.T) {
	// samples at [100,110) [110,130) [130,160) [160,200)
	indexes := []*TrackIndex{sizedIndex(10, 20), sizedIndex(10, 20, 30, 40)}
	mdat := &MdatRange{Start: 100, End: 150}

	r := Reconcile(indexes, mdat, DefaultSizeTolerance)
	assert.Equal(t, 6, r.FramesInMoov)
	assert.Equal(t, uint64(130), r.TotalSampleSize)
	assert.Equal(t, 2, r.FramesOutsideMdat)
	assert.Equal(t, uint64(80), r.SizeDifference())
	assert.True(t, r.SizeMismatch)
	assert.InDelta(t, -160.0, r.MismatchPercent(), 1e-9)
}

func TestReconcile_NoMdat(t *testing.T) {
	r := Reconcile([]*TrackIndex{sizedIndex(10, 20)}, nil, DefaultSizeTolerance)
	assert.Equal(t, 2, r.FramesInMoov)
	assert.Equal(t, uint64(30), r.TotalSampleSize)
	assert.False(t, r.MdatKnown)
	assert.False(t, r.SizeMismatch)
	assert.Zero(t, r.FramesOutsideMdat)
}

func TestMdatRange(t *testing.T) {
	var missing *MdatRange
	assert.Zero(t, missing.Size())

	mdat := &MdatRange{Start: 10, End: 20}
	assert.Equal(t, uint64(10), mdat.Size())
	assert.True(t, mdat.Contains(10, 10))
	assert.False(t, mdat.Contains(10, 11))
	assert.False(t, mdat.Contains(9, 1))
}

func TestMdatRange_ContainsNoWrap(t *testing.T) {
	mdat := &MdatRange{Start: 16, End: 1000}

	assert.False(t, mdat.Contains(math.MaxUint64-5, 10))
	assert.False(t, mdat.Contains(990, math.MaxUint64))
	assert.True(t, mdat.Contains(990, 10))
	assert.False(t, (&MdatRange{Start: 0, End: 5}).Contains(0, 6))
}

func TestReconcile_WrappedSampleOutsideMdat(t *testing.T) {
	index := &TrackIndex{Samples: []Sample{
		{Index: 1, Offset: 100, Size: 10},
		{Index: 2, Offset: math.MaxUint64 - 5, Size: 10},
	}}

	r := Reconcile([]*TrackIndex{index}, &MdatRange{Start: 16, End: 1000}, DefaultSizeTolerance)
	assert.Equal(t, 1, r.FramesOutsideMdat)
}
