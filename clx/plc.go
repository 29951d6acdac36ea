package clx

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// PlcPcd is the piece table: an ascending array of N+1 character positions
// (aCp) and N piece descriptors (aPcd), where piece i covers
// [aCp[i], aCp[i+1]).
type PlcPcd struct {
	aCp  []CP
	aPcd []Pcd
}

// parsePlcPcd decodes a PlcPcd from raw bytes: a run of N+1 uint32 CPs
// followed by N 8-byte Pcd records, where N is derived from the remaining
// length after the CP array rather than stored explicitly.
func parsePlcPcd(data []byte) (*PlcPcd, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("clx: PlcPcd too short: %w", ErrBadClx)
	}
	// The CP array and Pcd array sizes are linked: if there are n Pcd
	// records (8 bytes each) there are n+1 CPs (4 bytes each), so
	// 4*(n+1) + 8*n == len(data).
	n := (len(data) - 4) / 12
	if 4*(n+1)+8*n != len(data) {
		return nil, fmt.Errorf("clx: PlcPcd length %d not consistent with any piece count: %w", len(data), ErrBadClx)
	}

	aCp := make([]CP, n+1)
	for i := 0; i <= n; i++ {
		aCp[i] = CP(binary.LittleEndian.Uint32(data[4*i:]))
	}
	for i := 1; i <= n; i++ {
		if aCp[i] < aCp[i-1] {
			return nil, fmt.Errorf("clx: aCp not ascending at index %d: %w", i, ErrBadClx)
		}
	}

	pcdStart := 4 * (n + 1)
	aPcd := make([]Pcd, n)
	for i := 0; i < n; i++ {
		rec := data[pcdStart+8*i : pcdStart+8*i+8]
		aPcd[i] = Pcd{
			flags: binary.LittleEndian.Uint16(rec[0:2]),
			fc:    binary.LittleEndian.Uint32(rec[2:6]),
			Prm:   binary.LittleEndian.Uint16(rec[6:8]),
		}
	}

	return &PlcPcd{aCp: aCp, aPcd: aPcd}, nil
}

// Count returns the number of pieces in the table.
func (p *PlcPcd) Count() int { return len(p.aPcd) }

// Piece returns the i-th piece descriptor and the CP range it covers.
func (p *PlcPcd) Piece(i int) (Pcd, CP, CP) {
	return p.aPcd[i], p.aCp[i], p.aCp[i+1]
}

// LastCP returns the CP one past the end of the table's range.
func (p *PlcPcd) LastCP() CP {
	if len(p.aCp) == 0 {
		return 0
	}
	return p.aCp[len(p.aCp)-1]
}

// PieceForCP finds the piece covering cp, for random access by character
// position. It binary-searches aCp rather than scanning, since callers may
// do this once per rune when resolving an arbitrary CP.
func (p *PlcPcd) PieceForCP(cp CP) (Pcd, CP, int, bool) {
	i := sort.Search(len(p.aCp)-1, func(i int) bool { return p.aCp[i+1] > cp })
	if i >= len(p.aPcd) || cp < p.aCp[i] || cp >= p.aCp[i+1] {
		return Pcd{}, 0, 0, false
	}
	return p.aPcd[i], p.aCp[i], i, true
}
