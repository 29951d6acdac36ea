package clx

import (
	"encoding/binary"
	"fmt"
)

const (
	tagPrc  = 0x01
	tagPcdt = 0x02

	maxGrpprl = 0x3FA2
)

// Clx is the decoded Clx structure: zero or more skipped Prc (formatting
// property) records followed by exactly one Pcdt record holding the piece
// table.
type Clx struct {
	Pcd *PlcPcd
}

// Parse decodes a Clx from the bytes at fcClx in the table stream. Prc
// records are formatting data (grpprl) this package does not interpret;
// they are skipped by length so the Pcdt record beneath them can be found.
func Parse(data []byte) (*Clx, error) {
	pos := 0
	for {
		if pos >= len(data) {
			return nil, fmt.Errorf("clx: no Pcdt record found: %w", ErrBadClx)
		}
		tag := data[pos]
		pos++
		if tag != tagPrc {
			if tag != tagPcdt {
				return nil, fmt.Errorf("clx: unexpected tag %#x: %w", tag, ErrBadClx)
			}
			if pos+4 > len(data) {
				return nil, fmt.Errorf("clx: Pcdt record truncated: %w", ErrBadClx)
			}
			lcb := binary.LittleEndian.Uint32(data[pos : pos+4])
			pos += 4
			end := pos + int(lcb)
			if end > len(data) {
				return nil, fmt.Errorf("clx: Pcdt lcb %d exceeds remaining %d bytes: %w", lcb, len(data)-pos, ErrBadClx)
			}
			plcPcd, err := parsePlcPcd(data[pos:end])
			if err != nil {
				return nil, err
			}
			return &Clx{Pcd: plcPcd}, nil
		}

		if pos+2 > len(data) {
			return nil, fmt.Errorf("clx: Prc record truncated: %w", ErrBadClx)
		}
		cbGrpprl := int16(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if cbGrpprl < 0 || int(cbGrpprl) > maxGrpprl {
			return nil, fmt.Errorf("clx: cbGrpprl %d out of range: %w", cbGrpprl, ErrBadClx)
		}
		if pos+int(cbGrpprl) > len(data) {
			return nil, fmt.Errorf("clx: Prc grpprl truncated: %w", ErrBadClx)
		}
		pos += int(cbGrpprl)
	}
}
