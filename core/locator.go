package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrMoovNotFound means the file has no movie box at its top level.
var ErrMoovNotFound = errors.New("no 'moov' box found, invalid mp4 file")

// MdatRange is the payload of the media data box, [Start, End) in file positions.
type MdatRange struct {
	Start uint64
	End   uint64
}

func (v *MdatRange) Size() uint64 {
	if v == nil || v.End < v.Start {
		return 0
	}
	return v.End - v.Start
}

// Contains reports whether [offset, offset+size) lies within the media data.
func (v *MdatRange) Contains(offset, size uint64) bool {
	return offset >= v.Start && size <= v.End && offset <= v.End-size
}

/**
 * 8.2.1 Movie Box (moov) and 8.1.1 Media Data Box (mdat)
 * ISO_IEC_14496-12-base-format-2012.pdf, page 29-30
 * The metadata for a presentation is stored in the single Movie Box which occurs at the
 * top-level of a file. The actual media data follows the type field of the mdat.
 */
type TopLevel struct {
	Moov Box
	// nil when the file has no media data box.
	Mdat *MdatRange
}

// LocateTopLevel finds the first moov and, in a second pass, the first mdat of the file.
func LocateTopLevel(data []byte) (top *TopLevel, err error) {
	moov, found, err := FindBox(NewBoxWalker(data, 0), Mp4BoxTypeMOOV)
	if err != nil {
		return nil, errors.Wrap(err, "locate moov")
	}
	if !found {
		log.Errorf("locate moov failed, err is %v", ErrMoovNotFound)
		return nil, ErrMoovNotFound
	}
	top = &TopLevel{Moov: moov}
	log.Tracef("found moov %v", moov)

	mdat, found, err := FindBox(NewBoxWalker(data, 0), Mp4BoxTypeMDAT)
	if err != nil {
		return nil, errors.Wrap(err, "locate mdat")
	}
	if !found {
		log.Warnf("no mdat box, media data checks skipped")
		return
	}
	top.Mdat = &MdatRange{
		Start: mdat.PayloadOffset(),
		End:   mdat.End(),
	}
	log.Tracef("found mdat %v, payload [%v, %v)", mdat, top.Mdat.Start, top.Mdat.End)
	return
}
