package core

// Box types, as compact four character codes.
const (
	Mp4BoxTypeForbidden = 0x00

	Mp4BoxTypeMDAT = 0x6d646174 // 'mdat'
	Mp4BoxTypeMOOV = 0x6d6f6f76 // 'moov'
	Mp4BoxTypeTRAK = 0x7472616b // 'trak'
	Mp4BoxTypeTKHD = 0x746b6864 // 'tkhd'
	Mp4BoxTypeMDIA = 0x6d646961 // 'mdia'
	Mp4BoxTypeHDLR = 0x68646c72 // 'hdlr'
	Mp4BoxTypeMINF = 0x6d696e66 // 'minf'
	Mp4BoxTypeSTBL = 0x7374626c // 'stbl'
	Mp4BoxTypeSTSD = 0x73747364 // 'stsd'
	Mp4BoxTypeSTSS = 0x73747373 // 'stss'
	Mp4BoxTypeSTSC = 0x73747363 // 'stsc'
	Mp4BoxTypeSTCO = 0x7374636f // 'stco'
	Mp4BoxTypeCO64 = 0x636f3634 // 'co64'
	Mp4BoxTypeSTSZ = 0x7374737a // 'stsz'

	// Sample entry types of the stsd box.
	Mp4BoxTypeAVC1 = 0x61766331 // 'avc1'
	Mp4BoxTypeAVC3 = 0x61766333 // 'avc3'
	Mp4BoxTypeHVC1 = 0x68766331 // 'hvc1'
	Mp4BoxTypeHEV1 = 0x68657631 // 'hev1'
)

const (
	// if size is 0, then this box is the last one in the enclosing region, and its contents
	// extend to the end of the region (normally only used for a Media Data Box)
	Mp4EOFSize = 0
	// if size is 1 then the actual size is in the field largesize.
	Mp4UseLargeSize = 1

	Mp4BoxHeaderSize      = 8
	Mp4LargeBoxHeaderSize = 16
	Mp4FullBoxHeaderSize  = 4
)
