package core

import (
	"encoding/binary"

	"github.com/bluenviron/mediacommon/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/pkg/codecs/h265"
	codec "github.com/yapingcat/gomedia/go-codec"
)

// StartCode is the Annex-B prefix found at a sample offset.
type StartCode int

const (
	StartCodeNone StartCode = iota
	StartCode3
	StartCode4
)

func (v StartCode) String() string {
	switch v {
	case StartCode3:
		return "00 00 01"
	case StartCode4:
		return "00 00 00 01"
	default:
		return "none"
	}
}

// DetectStartCode looks for an Annex-B start code in the 4 bytes at offset.
func DetectStartCode(data []byte, offset uint64) StartCode {
	if offset >= uint64(len(data)) || uint64(len(data))-offset < 4 {
		return StartCodeNone
	}
	idx, sct := codec.FindStartCode(data[offset:offset+4], 0)
	if idx != 0 {
		return StartCodeNone
	}
	if sct == codec.START_CODE_4 {
		return StartCode4
	}
	return StartCode3
}

// DescribeNALUnit names the type of the first NAL unit of a sample, either after its start
// code or after a 4 bytes length prefix. It returns "" for codecs other than AVC and HEVC or
// when the sample is too short.
func DescribeNALUnit(data []byte, sample Sample, entry uint32, sc StartCode) string {
	header := sample.Offset
	switch sc {
	case StartCode3:
		header += 3
	case StartCode4:
		header += 4
	default:
		if sample.End() > uint64(len(data)) || sample.Size < 5 {
			return ""
		}
		// A length prefix must fit the sample.
		if n := binary.BigEndian.Uint32(data[sample.Offset:]); n == 0 || n > sample.Size-4 {
			return ""
		}
		header += 4
	}
	if header >= uint64(len(data)) {
		return ""
	}

	b := data[header]
	switch entry {
	case Mp4BoxTypeAVC1, Mp4BoxTypeAVC3:
		return h264.NALUType(b & 0x1f).String()
	case Mp4BoxTypeHVC1, Mp4BoxTypeHEV1:
		return h265.NALUType((b >> 1) & 0x3f).String()
	}
	return ""
}
