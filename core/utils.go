package core

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// FourCC renders a box or handler type as its four characters.
func FourCC(bt uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, bt)
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '.'
		}
	}
	return string(b)
}

// BoxTypeOf is the inverse of FourCC for a 4 character tag.
func BoxTypeOf(tag string) uint32 {
	if len(tag) != 4 {
		return Mp4BoxTypeForbidden
	}
	return binary.BigEndian.Uint32([]byte(tag))
}

func Bytes3ToUint32(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// readFullBoxHeader splits the version and flags off a full box payload.
func readFullBoxHeader(payload []byte) (version uint8, flags uint32, body []byte, err error) {
	if len(payload) < Mp4FullBoxHeaderSize {
		err = errors.Errorf("full box header needs %v bytes, got %v", Mp4FullBoxHeaderSize, len(payload))
		return
	}
	version = payload[0]
	flags = Bytes3ToUint32(payload[1:4])
	body = payload[Mp4FullBoxHeaderSize:]
	return
}

// addSaturating is a+b, or math.MaxUint64 when the sum overflows.
func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
