package core

import (
	"encoding/binary"
)

// Byte builders for hand made mp4 fixtures.

func u32(vs ...uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(b[i*4:], v)
	}
	return b
}

func u64(vs ...uint64) []byte {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint64(b[i*8:], v)
	}
	return b
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func box(tag string, payload ...[]byte) []byte {
	body := concat(payload...)
	return concat(u32(uint32(Mp4BoxHeaderSize+len(body))), []byte(tag), body)
}

func largeBox(tag string, payload ...[]byte) []byte {
	body := concat(payload...)
	return concat(u32(Mp4UseLargeSize), []byte(tag), u64(uint64(Mp4LargeBoxHeaderSize+len(body))), body)
}

func fullPayload(version uint8, flags uint32, body ...[]byte) []byte {
	header := u32(flags)
	header[0] = version
	return concat(header, concat(body...))
}

func stssPayload(numbers ...uint32) []byte {
	return fullPayload(0, 0, u32(uint32(len(numbers))), u32(numbers...))
}

func stcoPayload(offsets ...uint32) []byte {
	return fullPayload(0, 0, u32(uint32(len(offsets))), u32(offsets...))
}

func co64Payload(offsets ...uint64) []byte {
	return fullPayload(0, 0, u32(uint32(len(offsets))), u64(offsets...))
}

func stszPayload(sizes ...uint32) []byte {
	return fullPayload(0, 0, u32(0, uint32(len(sizes))), u32(sizes...))
}

func stszUniformPayload(size, count uint32) []byte {
	return fullPayload(0, 0, u32(size, count))
}

func stscPayload(entries ...StscEntry) []byte {
	body := u32(uint32(len(entries)))
	for _, e := range entries {
		body = append(body, u32(e.FirstChunk, e.SamplesPerChunk, e.SampleDescriptionIndex)...)
	}
	return fullPayload(0, 0, body)
}

// fixtureTrack describes one trak. Nil payloads leave the table out.
type fixtureTrack struct {
	id      uint32
	handler string
	codec   string
	stss    []byte
	stco    []byte
	co64    []byte
	stsz    []byte
	stsc    []byte
}

func (v fixtureTrack) trak() []byte {
	tkhd := box("tkhd", fullPayload(0, 3, u32(0, 0, v.id, 0, 0), make([]byte, 60)))
	hdlr := box("hdlr", fullPayload(0, 0, u32(0), []byte(v.handler), make([]byte, 12), []byte("handler\x00")))

	var tables [][]byte
	if v.codec != "" {
		tables = append(tables, box("stsd", fullPayload(0, 0, u32(1), box(v.codec, make([]byte, 78)))))
	}
	for _, t := range []struct {
		tag     string
		payload []byte
	}{
		{"stss", v.stss}, {"stsc", v.stsc}, {"stsz", v.stsz}, {"stco", v.stco}, {"co64", v.co64},
	} {
		if t.payload != nil {
			tables = append(tables, box(t.tag, t.payload))
		}
	}

	stbl := box("stbl", tables...)
	return box("trak", tkhd, box("mdia", hdlr, box("minf", stbl)))
}

var fixtureFtyp = box("ftyp", []byte("isom"), u32(0x200), []byte("isomavc1"))

// fixtureMdatStart is where the mdat payload begins in a fixtureFile.
var fixtureMdatStart = uint64(len(fixtureFtyp) + Mp4BoxHeaderSize)

// fixtureFile lays out ftyp, mdat then moov, so chunk offsets can be computed from
// fixtureMdatStart before the moov is built.
func fixtureFile(media []byte, tracks ...fixtureTrack) []byte {
	traks := make([][]byte, len(tracks))
	for i, t := range tracks {
		traks[i] = t.trak()
	}
	return concat(fixtureFtyp, box("mdat", media), box("moov", traks...))
}
