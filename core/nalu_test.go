package core

import (
	"testing"

	"github.com/bluenviron/mediacommon/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/pkg/codecs/h265"
	"github.com/stretchr/testify/assert"
)

func TestDetectStartCode(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0x65, 0, 0, 1, 0x41, 0, 0}

	assert.Equal(t, StartCode4, DetectStartCode(data, 0))
	assert.Equal(t, StartCode3, DetectStartCode(data, 1))
	assert.Equal(t, StartCode3, DetectStartCode(data, 5))
	assert.Equal(t, StartCodeNone, DetectStartCode(data, 4))
	// fewer than 4 bytes left
	assert.Equal(t, StartCodeNone, DetectStartCode(data, 8))
	assert.Equal(t, StartCodeNone, DetectStartCode(data, 100))
}

func TestDescribeNALUnit(t *testing.T) {
	annexB := []byte{0, 0, 0, 1, 0x65, 0x88, 0x80}
	lengthPrefixed := []byte{0, 0, 0, 3, 0x65, 0x88, 0x80}
	hevc := []byte{0, 0, 0, 3, 19 << 1, 0x01, 0xaf}

	for _, c := range []struct {
		name   string
		data   []byte
		entry  uint32
		sc     StartCode
		expect string
	}{
		{"avc annex-b", annexB, Mp4BoxTypeAVC1, StartCode4, h264.NALUType(5).String()},
		{"avc length prefix", lengthPrefixed, Mp4BoxTypeAVC1, StartCodeNone, h264.NALUType(5).String()},
		{"hevc length prefix", hevc, Mp4BoxTypeHVC1, StartCodeNone, h265.NALUType(19).String()},
		{"audio", lengthPrefixed, BoxTypeOf("mp4a"), StartCodeNone, ""},
		{"bad length prefix", []byte{0, 0, 0, 9, 0x65, 0, 0}, Mp4BoxTypeAVC1, StartCodeNone, ""},
	} {
		t.Run(c.name, func(t *testing.T) {
			sample := Sample{Index: 1, Offset: 0, Size: uint32(len(c.data))}
			assert.Equal(t, c.expect, DescribeNALUnit(c.data, sample, c.entry, c.sc))
		})
	}
}
