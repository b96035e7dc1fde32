package core

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

/**
 * 8.6.2 Sync Sample Box (stss), for Video.
 * ISO_IEC_14496-12-base-format-2012.pdf, page 51
 * This box provides a compact marking of the sync samples within the stream. The table is arranged in strictly
 * increasing order of sample number.
 */
type SyncSampleTable struct {
	// an integer that gives the number of entries in the following table. If entry_count is zero,
	// there are no sync samples within the stream and the following table is empty.
	EntryCount uint32
	// the numbers of the samples that are sync samples in the stream.
	SampleNumbers []uint32
	// entries counted by EntryCount but absent from the payload.
	Missing uint32
}

// Set indexes the sync sample numbers.
func (v *SyncSampleTable) Set() map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(v.SampleNumbers))
	for _, n := range v.SampleNumbers {
		set[n] = struct{}{}
	}
	return set
}

func ParseSyncSampleTable(payload []byte) (v *SyncSampleTable, err error) {
	body, count, err := readTableHeader("stss", payload)
	if err != nil {
		return
	}

	v = &SyncSampleTable{EntryCount: count}
	n, missing := fitEntries(body, count, 4)
	v.Missing = missing
	v.SampleNumbers = make([]uint32, n)
	for i := range v.SampleNumbers {
		v.SampleNumbers[i] = binary.BigEndian.Uint32(body[i*4:])
	}

	log.Tracef("decode stss success, entries=%v, missing=%v", n, missing)
	return
}

/**
 * 8.7.5 Chunk Offset Box (stco, co64), for Audio/Video.
 * ISO_IEC_14496-12-base-format-2012.pdf, page 59
 * The chunk offset table gives the index of each chunk into the containing file. There are two variants, permitting
 * the use of 32-bit or 64-bit offsets. The latter is useful when managing very large presentations. At most one of
 * these variants will occur in any single instance of a sample table.
 */
type ChunkOffsetTable struct {
	// whether the table came from a co64 box.
	Large      bool
	EntryCount uint32
	// the offset of the start of each chunk into its containing media file, chunk 1 first.
	Offsets []uint64
	Missing uint32
}

// Offset returns the offset of a 1-based chunk number.
func (v *ChunkOffsetTable) Offset(chunk uint32) (uint64, bool) {
	if chunk == 0 || int(chunk) > len(v.Offsets) {
		return 0, false
	}
	return v.Offsets[chunk-1], true
}

func ParseChunkOffsetTable(payload []byte) (v *ChunkOffsetTable, err error) {
	return parseChunkOffsets("stco", payload, 4)
}

func ParseChunkLargeOffsetTable(payload []byte) (v *ChunkOffsetTable, err error) {
	return parseChunkOffsets("co64", payload, 8)
}

func parseChunkOffsets(name string, payload []byte, width int) (v *ChunkOffsetTable, err error) {
	body, count, err := readTableHeader(name, payload)
	if err != nil {
		return
	}

	v = &ChunkOffsetTable{Large: width == 8, EntryCount: count}
	n, missing := fitEntries(body, count, width)
	v.Missing = missing
	v.Offsets = make([]uint64, n)
	for i := range v.Offsets {
		if v.Large {
			v.Offsets[i] = binary.BigEndian.Uint64(body[i*8:])
		} else {
			v.Offsets[i] = uint64(binary.BigEndian.Uint32(body[i*4:]))
		}
	}

	log.Tracef("decode %v success, entries=%v, missing=%v", name, n, missing)
	return
}

/**
 * 8.7.3.2 Sample Size Box (stsz), for Audio/Video.
 * ISO_IEC_14496-12-base-format-2012.pdf, page 58
 * This box contains the sample count and a table giving the size in bytes of each sample. This allows the media data
 * itself to be unframed. The total number of samples in the media is always indicated in the sample count.
 */
type SampleSizeTable struct {
	// the default sample size. If all the samples are the same size, this field
	// contains that size value. If this field is set to 0, then the samples have different sizes, and those sizes
	// are stored in the sample size table.
	SampleSize uint32
	// an integer that gives the number of samples in the track; if sample-size is 0, then it is
	// also the number of entries in the following table.
	SampleCount uint32
	// each entry_size is an integer specifying the size of a sample, indexed by its number.
	EntrySizes []uint32
	Missing    uint32
}

// Uniform reports whether every sample has SampleSize bytes.
func (v *SampleSizeTable) Uniform() bool {
	return v.SampleSize != 0
}

// Len is the number of samples whose size is known.
func (v *SampleSizeTable) Len() int {
	if v.Uniform() {
		if uint64(v.SampleCount) > math.MaxInt {
			return math.MaxInt
		}
		return int(v.SampleCount)
	}
	return len(v.EntrySizes)
}

// Size returns the size of a 1-based sample number, which must be within Len.
func (v *SampleSizeTable) Size(sample int) uint32 {
	if v.Uniform() {
		return v.SampleSize
	}
	return v.EntrySizes[sample-1]
}

func ParseSampleSizeTable(payload []byte) (v *SampleSizeTable, err error) {
	_, _, body, err := readFullBoxHeader(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode stsz")
	}
	if len(body) < 8 {
		err = errors.Errorf("decode stsz: need 8 bytes for sample size and count, got %v", len(body))
		log.Errorf("read stsz sample size failed, err is %v", err)
		return nil, err
	}

	v = &SampleSizeTable{
		SampleSize:  binary.BigEndian.Uint32(body[0:4]),
		SampleCount: binary.BigEndian.Uint32(body[4:8]),
	}
	if v.Uniform() {
		log.Tracef("decode stsz success, uniform size=%v, count=%v", v.SampleSize, v.SampleCount)
		return
	}

	body = body[8:]
	n, missing := fitEntries(body, v.SampleCount, 4)
	v.Missing = missing
	v.EntrySizes = make([]uint32, n)
	for i := range v.EntrySizes {
		v.EntrySizes[i] = binary.BigEndian.Uint32(body[i*4:])
	}

	log.Tracef("decode stsz success, entries=%v, missing=%v", n, missing)
	return
}

/**
 * 8.7.4 Sample To Chunk Box (stsc), for Audio/Video.
 * ISO_IEC_14496-12-base-format-2012.pdf, page 58
 */
type StscEntry struct {
	FirstChunk             uint32
	SamplesPerChunk        uint32
	SampleDescriptionIndex uint32
}

/**
 * 8.7.4 Sample To Chunk Box (stsc), for Audio/Video.
 * ISO_IEC_14496-12-base-format-2012.pdf, page 58
 * Samples within the media data are grouped into chunks. Chunks can be of different sizes, and the samples
 * within a chunk can have different sizes. This table can be used to find the chunk that contains a sample,
 * its position, and the associated sample description.
 */
type SampleToChunkTable struct {
	EntryCount uint32
	Entries    []StscEntry
	Missing    uint32
}

func ParseSampleToChunkTable(payload []byte) (v *SampleToChunkTable, err error) {
	body, count, err := readTableHeader("stsc", payload)
	if err != nil {
		return
	}

	v = &SampleToChunkTable{EntryCount: count}
	n, missing := fitEntries(body, count, 12)
	v.Missing = missing
	v.Entries = make([]StscEntry, n)
	for i := range v.Entries {
		entry := body[i*12:]
		v.Entries[i] = StscEntry{
			FirstChunk:             binary.BigEndian.Uint32(entry[0:4]),
			SamplesPerChunk:        binary.BigEndian.Uint32(entry[4:8]),
			SampleDescriptionIndex: binary.BigEndian.Uint32(entry[8:12]),
		}
	}

	log.Tracef("decode stsc success, entries=%v, missing=%v", n, missing)
	return
}

// readTableHeader reads the version, flags and entry_count shared by stss, stco, co64 and stsc.
func readTableHeader(name string, payload []byte) (body []byte, count uint32, err error) {
	if _, _, body, err = readFullBoxHeader(payload); err != nil {
		err = errors.Wrapf(err, "decode %v", name)
		log.Errorf("read %v full box failed, err is %v", name, err)
		return
	}
	if len(body) < 4 {
		err = errors.Errorf("decode %v: need 4 bytes for entry count, got %v", name, len(body))
		log.Errorf("read %v entry count failed, err is %v", name, err)
		return
	}
	count = binary.BigEndian.Uint32(body[0:4])
	body = body[4:]
	return
}

// fitEntries caps a declared entry count to what the body holds.
func fitEntries(body []byte, count uint32, width int) (n int, missing uint32) {
	available := len(body) / width
	if uint64(count) <= uint64(available) {
		return int(count), 0
	}
	return available, count - uint32(available)
}
