package ole2

import "fmt"

// chain is the sector engine (L2): given a starting sector number it walks
// the FAT, DIFAT or mini-FAT chain one hop at a time, resolving each hop's
// disk location on demand rather than precomputing the whole chain array.
// This mirrors the DIFAT continuation logic in the original CFB reference
// implementation and avoids materializing FAT arrays for containers that
// only need a handful of sectors read.
type chain struct {
	src         *source
	h           *header
	entries     int64 // FAT/mini-FAT entries per regular sector
	difatHop    int64 // DIFAT entries usable per DIFAT sector (last slot is the next-sector pointer)
	miniStream  []byte
}

func newChain(src *source, h *header) *chain {
	entries := h.sectorSize / 4
	return &chain{
		src:      src,
		h:        h,
		entries:  entries,
		difatHop: entries - 1,
	}
}

func (c *chain) sectorOffset(sn uint32) int64 {
	return int64(sn+1) * c.h.sectorSize
}

func (c *chain) readSector(sn uint32, buf []byte) error {
	if sn > maxRegSect {
		return fmt.Errorf("ole2: read of reserved sector %#x: %w", sn, ErrBadChain)
	}
	return c.src.readAt(buf, c.sectorOffset(sn))
}

// difatSector returns the disk sector number of the index-th FAT sector
// (0-based), resolving through the header's embedded DIFAT and, beyond
// that, the DIFAT sector chain.
func (c *chain) difatSector(index int64) (uint32, error) {
	if index < difatInHeader {
		return c.h.difat[index], nil
	}
	index -= difatInHeader
	sn := c.h.difatStart
	buf := make([]byte, 4)
	for hop := index / c.difatHop; hop > 0; hop-- {
		if sn == endOfChain || sn == freeSect {
			return 0, fmt.Errorf("ole2: DIFAT chain too short: %w", ErrBadChain)
		}
		off := c.sectorOffset(sn) + c.difatHop*4
		if err := c.src.readAt(buf, off); err != nil {
			return 0, err
		}
		sn = c.h.byteOrder.Uint32(buf)
	}
	slot := index % c.difatHop
	if err := c.src.readAt(buf, c.sectorOffset(sn)+slot*4); err != nil {
		return 0, err
	}
	return c.h.byteOrder.Uint32(buf), nil
}

// next returns the sector number that follows sn in the regular FAT chain.
func (c *chain) next(sn uint32) (uint32, error) {
	fatSn, err := c.difatSector(int64(sn) / c.entries)
	if err != nil {
		return 0, err
	}
	slot := int64(sn) % c.entries
	buf := make([]byte, 4)
	if err := c.src.readAt(buf, c.sectorOffset(fatSn)+slot*4); err != nil {
		return 0, err
	}
	return c.h.byteOrder.Uint32(buf), nil
}

// nextMini returns the sector number that follows sn in the mini-FAT chain.
// The mini-FAT is itself stored as a regular FAT-chained stream starting at
// h.miniFatStart.
func (c *chain) nextMini(sn uint32) (uint32, error) {
	miniSn := int64(sn) / c.entries
	target := c.h.miniFatStart
	for i := int64(0); i < miniSn; i++ {
		next, err := c.next(target)
		if err != nil {
			return 0, err
		}
		if next == endOfChain || next == freeSect {
			return 0, fmt.Errorf("ole2: mini-FAT chain too short: %w", ErrBadChain)
		}
		target = next
	}
	slot := int64(sn) % c.entries
	buf := make([]byte, 4)
	if err := c.src.readAt(buf, c.sectorOffset(target)+slot*4); err != nil {
		return 0, err
	}
	return c.h.byteOrder.Uint32(buf), nil
}

// readChain reads the full byte content of the chain of regular sectors
// starting at sn, stopping at endOfChain. size, if non-negative, truncates
// the result to that many bytes (streams may end mid-sector).
func (c *chain) readChain(sn uint32, size int64) ([]byte, error) {
	var out []byte
	visited := make(map[uint32]bool)
	for sn != endOfChain {
		if sn == freeSect || sn > maxRegSect {
			return nil, fmt.Errorf("ole2: chain hit reserved sector %#x: %w", sn, ErrBadChain)
		}
		if visited[sn] {
			return nil, fmt.Errorf("ole2: cyclic sector chain at %#x: %w", sn, ErrBadChain)
		}
		visited[sn] = true
		buf := make([]byte, c.h.sectorSize)
		if err := c.readSector(sn, buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
		next, err := c.next(sn)
		if err != nil {
			return nil, err
		}
		sn = next
	}
	if size >= 0 && int64(len(out)) > size {
		out = out[:size]
	}
	return out, nil
}

// readMiniChain reads the byte content of a chain of mini-sectors starting
// at sn, resolving each mini-sector's disk location through the mini
// stream materialized at container-open time.
func (c *chain) readMiniChain(sn uint32, size int64) ([]byte, error) {
	var out []byte
	visited := make(map[uint32]bool)
	for sn != endOfChain {
		if sn == freeSect {
			return nil, fmt.Errorf("ole2: mini chain hit reserved sector %#x: %w", sn, ErrBadChain)
		}
		if visited[sn] {
			return nil, fmt.Errorf("ole2: cyclic mini-sector chain at %#x: %w", sn, ErrBadChain)
		}
		visited[sn] = true
		start := int64(sn) * c.h.miniSectorSize
		end := start + c.h.miniSectorSize
		if end > int64(len(c.miniStream)) {
			return nil, fmt.Errorf("ole2: mini-sector %#x beyond mini stream: %w", sn, ErrBadChain)
		}
		out = append(out, c.miniStream[start:end]...)
		next, err := c.nextMini(sn)
		if err != nil {
			return nil, err
		}
		sn = next
	}
	if size >= 0 && int64(len(out)) > size {
		out = out[:size]
	}
	return out, nil
}
