package ole2

import (
	"encoding/binary"
	"fmt"
)

// Sector sentinels, per the CFB specification. MAXREGSECT is the last
// regular (addressable) sector number; values above it are reserved.
const (
	maxRegSect uint32 = 0xFFFFFFFA
	difSect    uint32 = 0xFFFFFFFC
	fatSect    uint32 = 0xFFFFFFFD
	endOfChain uint32 = 0xFFFFFFFE
	freeSect   uint32 = 0xFFFFFFFF
)

const (
	noStream uint32 = 0xFFFFFFFF

	headerSize    = 512
	difatInHeader = 109
	dirEntrySize  = 128
)

var (
	signature    = [8]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
	signatureOld = [8]byte{0x0e, 0x11, 0xfc, 0x0d, 0xd0, 0xcf, 0x11, 0xe0}
)

// header is the 512-byte container header, decoded verbatim with the
// on-disk byte order (see byteOrder below, which compensates when the file
// declares itself big-endian).
type header struct {
	minorVersion       uint16
	majorVersion       uint16
	sectorShift        uint16
	miniSectorShift    uint16
	numFatSectors      uint32
	dirStart           uint32
	miniSectorCutoff   uint32
	miniFatStart       uint32
	numMiniFatSectors  uint32
	difatStart         uint32
	numDifatSectors    uint32
	difat              [difatInHeader]uint32
	sectorSize         int64
	miniSectorSize     int64
	byteOrder          binary.ByteOrder
}

func readHeader(src *source) (*header, error) {
	buf := make([]byte, headerSize)
	if err := src.readAt(buf, 0); err != nil {
		return nil, fmt.Errorf("ole2: reading header: %w", err)
	}
	if !matchesSignature(buf[0:8]) {
		return nil, ErrBadSignature
	}

	bom := binary.LittleEndian.Uint16(buf[0x1C:0x1E])
	var order binary.ByteOrder
	switch bom {
	case 0xFFFE:
		order = binary.LittleEndian
	case 0xFEFF:
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("ole2: byte order mark %#x: %w", bom, ErrBadEndian)
	}

	h := &header{byteOrder: order}
	h.minorVersion = order.Uint16(buf[0x18:0x1A])
	h.majorVersion = order.Uint16(buf[0x1A:0x1C])
	h.sectorShift = order.Uint16(buf[0x1E:0x20])
	h.miniSectorShift = order.Uint16(buf[0x20:0x22])
	h.numFatSectors = order.Uint32(buf[0x2C:0x30])
	h.dirStart = order.Uint32(buf[0x30:0x34])
	h.miniSectorCutoff = order.Uint32(buf[0x38:0x3C])
	h.miniFatStart = order.Uint32(buf[0x3C:0x40])
	h.numMiniFatSectors = order.Uint32(buf[0x40:0x44])
	h.difatStart = order.Uint32(buf[0x44:0x48])
	h.numDifatSectors = order.Uint32(buf[0x48:0x4C])
	for i := 0; i < difatInHeader; i++ {
		off := 0x4C + i*4
		h.difat[i] = order.Uint32(buf[off : off+4])
	}

	if h.sectorShift < 7 || h.sectorShift > 16 {
		return nil, fmt.Errorf("ole2: sector shift %d out of range: %w", h.sectorShift, ErrBadHeader)
	}
	if h.majorVersion == 3 {
		h.sectorSize = 512
	} else if h.majorVersion == 4 {
		h.sectorSize = 4096
	} else {
		return nil, fmt.Errorf("ole2: major version %d: %w", h.majorVersion, ErrBadHeader)
	}
	if int64(1)<<h.sectorShift != h.sectorSize {
		return nil, fmt.Errorf("ole2: sector shift %d inconsistent with version %d: %w", h.sectorShift, h.majorVersion, ErrBadHeader)
	}

	if h.miniSectorShift > 31 || int64(1)<<h.miniSectorShift > h.sectorSize {
		return nil, fmt.Errorf("ole2: mini sector shift %d out of range: %w", h.miniSectorShift, ErrBadHeader)
	}
	h.miniSectorSize = int64(1) << h.miniSectorShift

	return h, nil
}

func matchesSignature(b []byte) bool {
	if len(b) != 8 {
		return false
	}
	match := func(sig [8]byte) bool {
		for i := range sig {
			if b[i] != sig[i] {
				return false
			}
		}
		return true
	}
	return match(signature) || match(signatureOld)
}
