package core

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

/**
 * 4.2 Object Structure
 * ISO_IEC_14496-12-base-format-2012.pdf, page 6
 * Objects within the file are called boxes: a size, a compact type and a payload. The size
 * is the entire size of the box, including the size and type header, fields, and all
 * contained boxes. This facilitates general parsing of the file.
 */
type Box struct {
	// identifies the box type; standard boxes use a compact type, which is normally four
	// printable characters.
	Type uint32
	// The absolute position of the box header in the file.
	Offset uint64
	// The declared size, whatever small or large size. A box whose size is 0 gets the
	// number of bytes left in its enclosing region.
	Size uint64
	// 8 for the compact header, 16 when the size is in the field largesize.
	HeaderSize int
	// The payload, clamped to the enclosing region.
	Payload []byte
}

// PayloadOffset is the absolute position of the first payload byte.
func (v Box) PayloadOffset() uint64 {
	return v.Offset + uint64(v.HeaderSize)
}

// End is the absolute position one past the declared end of the box, saturated at
// math.MaxUint64 for a largesize near the top of the range.
func (v Box) End() uint64 {
	return addSaturating(v.Offset, v.Size)
}

func (v Box) String() string {
	return fmt.Sprintf("%v@%v(size=%v, header=%v)", FourCC(v.Type), v.Offset, v.Size, v.HeaderSize)
}

// BoxWalker yields the boxes of one nesting level of a byte region, header by header.
// The same walker serves the file top level and every container below it.
//
//	w := NewBoxWalker(moov.Payload, moov.PayloadOffset())
//	for w.Next() {
//	    box := w.Box()
//	}
//	if err := w.Err(); err != nil { ... }
type BoxWalker struct {
	region []byte
	// The absolute position of region[0] in the file.
	base uint64
	pos  int

	box       Box
	err       error
	truncated int
}

func NewBoxWalker(region []byte, base uint64) *BoxWalker {
	return &BoxWalker{
		region: region,
		base:   base,
	}
}

// Children walks the payload of a container box.
func Children(box Box) *BoxWalker {
	return NewBoxWalker(box.Payload, box.PayloadOffset())
}

// Next decodes the next box header. It returns false once fewer than 8 bytes remain, which
// silently ignores trailing data, or when the header is malformed, see Err.
func (v *BoxWalker) Next() bool {
	if v.err != nil {
		return false
	}

	left := len(v.region) - v.pos
	if left < Mp4BoxHeaderSize {
		if left > 0 {
			log.Tracef("ignore %v trailing bytes at %v", left, v.base+uint64(v.pos))
		}
		return false
	}

	header := v.region[v.pos:]
	smallSize := binary.BigEndian.Uint32(header[0:4])
	bt := binary.BigEndian.Uint32(header[4:8])
	offset := v.base + uint64(v.pos)

	headerSize := Mp4BoxHeaderSize
	var size uint64
	switch smallSize {
	case Mp4EOFSize:
		size = uint64(left)
	case Mp4UseLargeSize:
		if left < Mp4LargeBoxHeaderSize {
			v.err = errors.Errorf("box %v at %v: large size header truncated, %v bytes left", FourCC(bt), offset, left)
			log.Errorf("read large size failed, err is %v", v.err)
			return false
		}
		size = binary.BigEndian.Uint64(header[8:16])
		headerSize = Mp4LargeBoxHeaderSize
	default:
		size = uint64(smallSize)
	}

	if size < uint64(headerSize) {
		v.err = errors.Errorf("box %v at %v: size %v smaller than its %v bytes header", FourCC(bt), offset, size, headerSize)
		log.Errorf("read box size failed, err is %v", v.err)
		return false
	}

	end := size
	if end > uint64(left) {
		log.Tracef("box %v at %v declares %v bytes but only %v left", FourCC(bt), offset, size, left)
		v.truncated++
		end = uint64(left)
	}

	v.box = Box{
		Type:       bt,
		Offset:     offset,
		Size:       size,
		HeaderSize: headerSize,
		Payload:    v.region[v.pos+headerSize : v.pos+int(end)],
	}
	v.pos += int(end)

	log.Tracef("discovery box %v", v.box)
	return true
}

// Box returns the box decoded by the last successful Next.
func (v *BoxWalker) Box() Box {
	return v.box
}

// Err returns the structural error that stopped the walk, if any.
func (v *BoxWalker) Err() error {
	return v.err
}

// Truncated is the number of boxes whose declared size overran the region.
func (v *BoxWalker) Truncated() int {
	return v.truncated
}

// FindBox returns the first box of type bt at the walker's nesting level.
func FindBox(w *BoxWalker, bt uint32) (box Box, found bool, err error) {
	for w.Next() {
		if w.Box().Type == bt {
			return w.Box(), true, nil
		}
	}
	err = w.Err()
	return
}

// Descend follows path from the container box, taking the first child matching each tag.
func Descend(box Box, path ...uint32) (Box, bool, error) {
	for _, bt := range path {
		child, found, err := FindBox(Children(box), bt)
		if err != nil {
			return Box{}, false, errors.Wrapf(err, "descend %v into %v", FourCC(box.Type), FourCC(bt))
		}
		if !found {
			return Box{}, false, nil
		}
		box = child
	}
	return box, true, nil
}
