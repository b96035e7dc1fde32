package core

import (
	"encoding/binary"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// The descent from a trak box to its sample table.
var stblPath = []uint32{Mp4BoxTypeMDIA, Mp4BoxTypeMINF, Mp4BoxTypeSTBL}

/**
 * 8.3.1 Track Box (trak)
 * ISO_IEC_14496-12-base-format-2012.pdf, page 32
 * The raw sample tables of one track, as found in its stbl, with the few descriptive
 * fields used to label the track. Payloads are nil when the box is absent.
 */
type TrackTables struct {
	// 1-based position of the trak in moov.
	Index int
	// track_ID of tkhd, 0 if absent.
	TrackID uint32
	// handler_type of hdlr, e.g. 'vide' or 'soun'.
	Handler uint32
	// type of the first stsd sample entry, e.g. 'avc1'.
	Codec uint32

	Stss []byte
	Stco []byte
	Co64 []byte
	Stsz []byte
	Stsc []byte
}

// Eligible reports whether the track carries every table a key frame index needs.
func (v *TrackTables) Eligible() bool {
	return v.Stss != nil && v.Stsz != nil && v.Stsc != nil && (v.Stco != nil || v.Co64 != nil)
}

// HandlerName is the handler type as text, empty when unknown.
func (v *TrackTables) HandlerName() string {
	if v.Handler == 0 {
		return ""
	}
	return FourCC(v.Handler)
}

// CodecName is the sample entry type as text, empty when unknown.
func (v *TrackTables) CodecName() string {
	if v.Codec == 0 {
		return ""
	}
	return FourCC(v.Codec)
}

// CollectTracks gathers the sample tables of every trak in moov.
func CollectTracks(moov Box) (tracks []*TrackTables, err error) {
	w := Children(moov)
	for w.Next() {
		trak := w.Box()
		if trak.Type != Mp4BoxTypeTRAK {
			continue
		}

		var track *TrackTables
		if track, err = collectTrack(trak, len(tracks)+1); err != nil {
			log.Errorf("collect track %v failed, err is %v", len(tracks)+1, err)
			return
		}
		tracks = append(tracks, track)
	}
	if err = w.Err(); err != nil {
		return nil, errors.Wrap(err, "walk moov")
	}
	return
}

func collectTrack(trak Box, index int) (v *TrackTables, err error) {
	v = &TrackTables{Index: index}

	if tkhd, found, err := FindBox(Children(trak), Mp4BoxTypeTKHD); err != nil {
		return nil, errors.Wrapf(err, "track %v", index)
	} else if found {
		v.TrackID = trackID(tkhd.Payload)
	}

	if hdlr, found, err := Descend(trak, Mp4BoxTypeMDIA, Mp4BoxTypeHDLR); err != nil {
		return nil, errors.Wrapf(err, "track %v", index)
	} else if found {
		v.Handler = handlerType(hdlr.Payload)
	}

	stbl, found, err := Descend(trak, stblPath...)
	if err != nil {
		return nil, errors.Wrapf(err, "track %v", index)
	}
	if !found {
		log.Tracef("track %v has no stbl", index)
		return v, nil
	}

	w := Children(stbl)
	for w.Next() {
		box := w.Box()
		switch box.Type {
		case Mp4BoxTypeSTSD:
			if v.Codec == 0 {
				v.Codec = sampleEntryType(box.Payload)
			}
		case Mp4BoxTypeSTSS:
			setOnce(&v.Stss, box.Payload)
		case Mp4BoxTypeSTCO:
			setOnce(&v.Stco, box.Payload)
		case Mp4BoxTypeCO64:
			setOnce(&v.Co64, box.Payload)
		case Mp4BoxTypeSTSZ:
			setOnce(&v.Stsz, box.Payload)
		case Mp4BoxTypeSTSC:
			setOnce(&v.Stsc, box.Payload)
		}
	}
	if err = w.Err(); err != nil {
		return nil, errors.Wrapf(err, "track %v: walk stbl", index)
	}

	log.Tracef("collect track %v, id=%v, handler=%v, codec=%v, eligible=%v",
		index, v.TrackID, v.HandlerName(), v.CodecName(), v.Eligible())
	return v, nil
}

func setOnce(dst *[]byte, payload []byte) {
	if *dst != nil {
		return
	}
	// An empty box is still present.
	if payload == nil {
		payload = []byte{}
	}
	*dst = payload
}

/**
 * 8.3.2 Track Header Box (tkhd)
 * ISO_IEC_14496-12-base-format-2012.pdf, page 32
 * version 1 carries 64-bit creation and modification times before track_ID.
 */
func trackID(payload []byte) uint32 {
	version, _, body, err := readFullBoxHeader(payload)
	if err != nil {
		return 0
	}
	pos := 8
	if version == 1 {
		pos = 16
	}
	if len(body) < pos+4 {
		return 0
	}
	return binary.BigEndian.Uint32(body[pos:])
}

/**
 * 8.4.3 Handler Reference Box (hdlr)
 * ISO_IEC_14496-12-base-format-2012.pdf, page 37
 * pre_defined(32) precedes handler_type(32).
 */
func handlerType(payload []byte) uint32 {
	_, _, body, err := readFullBoxHeader(payload)
	if err != nil || len(body) < 8 {
		return 0
	}
	return binary.BigEndian.Uint32(body[4:8])
}

/**
 * 8.5.2 Sample Description Box (stsd)
 * ISO_IEC_14496-12-base-format-2012.pdf, page 43
 * entry_count(32) is followed by the sample entries, each one a box.
 */
func sampleEntryType(payload []byte) uint32 {
	_, _, body, err := readFullBoxHeader(payload)
	if err != nil || len(body) < 4 {
		return 0
	}
	w := NewBoxWalker(body[4:], 0)
	if !w.Next() {
		return 0
	}
	return w.Box().Type
}
