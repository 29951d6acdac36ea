// Package propset decodes a PropertySetStream: the format used by a CFB
// container's "\005SummaryInformation" and "\005DocumentSummaryInformation"
// streams to hold document metadata (title, author, timestamps, word
// count, ...). It operates on a raw stream byte slice and has no
// dependency on ole2 or msdoc; callers fetch the stream themselves (for
// example with ole2.Reader.Stream) and hand the bytes to Parse.
package propset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unicode/utf16"
)

var ErrBadPropertySet = errors.New("propset: malformed property set stream")

// Well-known property IDs for the SummaryInformation FMTID, per PIDSI_*.
const (
	PIDSICodepage    = 0x00000001
	PIDSITitle       = 0x00000002
	PIDSISubject     = 0x00000003
	PIDSIAuthor      = 0x00000004
	PIDSIKeywords    = 0x00000005
	PIDSIComments    = 0x00000006
	PIDSITemplate    = 0x00000007
	PIDSILastAuthor  = 0x00000008
	PIDSIRevNumber   = 0x00000009
	PIDSIEditTime    = 0x0000000A
	PIDSILastPrinted = 0x0000000B
	PIDSICreateDTM   = 0x0000000C
	PIDSILastSaveDTM = 0x0000000D
	PIDSIPageCount   = 0x0000000E
	PIDSIWordCount   = 0x0000000F
	PIDSICharCount   = 0x00000010
	PIDSIAppName     = 0x00000012
	PIDSISecurity    = 0x00000013
)

// Variant type tags, per the property set format (a subset of VT_*).
const (
	typeEmpty    = 0
	typeI2       = 2
	typeI4       = 3
	typeBool     = 11
	typeFileTime = 64
	typeLPSTR    = 30
	typeLPWSTR   = 31
)

// PropertySet is one decoded section (FMTID) of a property set stream,
// keyed by property ID.
type PropertySet struct {
	values map[uint32]any
}

// String returns a VT_LPSTR/VT_LPWSTR property as a string.
func (p *PropertySet) String(id uint32) (string, bool) {
	v, ok := p.values[id]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int32 returns a VT_I2/VT_I4 property as an int32.
func (p *PropertySet) Int32(id uint32) (int32, bool) {
	v, ok := p.values[id]
	if !ok {
		return 0, false
	}
	i, ok := v.(int32)
	return i, ok
}

// Time returns a VT_FILETIME property, converted from Windows FILETIME
// (100ns ticks since 1601-01-01) to time.Time.
func (p *PropertySet) Time(id uint32) (time.Time, bool) {
	v, ok := p.values[id]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Parse decodes the first section of a property set stream (the common
// case: SummaryInformation and DocumentSummaryInformation both carry
// exactly one section callers care about for plain metadata).
func Parse(data []byte) (*PropertySet, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("propset: header needs 28 bytes, have %d: %w", len(data), ErrBadPropertySet)
	}
	bom := binary.LittleEndian.Uint16(data[0:2])
	if bom != 0xFFFE {
		return nil, fmt.Errorf("propset: byte order %#x: %w", bom, ErrBadPropertySet)
	}
	count := binary.LittleEndian.Uint32(data[24:28])
	if count == 0 {
		return nil, fmt.Errorf("propset: zero sections: %w", ErrBadPropertySet)
	}

	const fmtIDOffsetSize = 20
	fmtIDOffsetStart := 28
	if fmtIDOffsetStart+fmtIDOffsetSize > len(data) {
		return nil, fmt.Errorf("propset: truncated FormatIdOffset: %w", ErrBadPropertySet)
	}
	sectionOffset := binary.LittleEndian.Uint32(data[fmtIDOffsetStart+16 : fmtIDOffsetStart+20])

	return parseSection(data, int(sectionOffset))
}

func parseSection(data []byte, offset int) (*PropertySet, error) {
	if offset < 0 || offset+8 > len(data) {
		return nil, fmt.Errorf("propset: section offset %d out of range: %w", offset, ErrBadPropertySet)
	}
	cProperties := binary.LittleEndian.Uint32(data[offset+4 : offset+8])

	type idOffset struct {
		id     uint32
		offset uint32
	}
	entries := make([]idOffset, cProperties)
	entryStart := offset + 8
	for i := range entries {
		pos := entryStart + i*8
		if pos+8 > len(data) {
			return nil, fmt.Errorf("propset: truncated property id/offset array: %w", ErrBadPropertySet)
		}
		entries[i] = idOffset{
			id:     binary.LittleEndian.Uint32(data[pos : pos+4]),
			offset: binary.LittleEndian.Uint32(data[pos+4 : pos+8]),
		}
	}

	p := &PropertySet{values: make(map[uint32]any, len(entries))}
	for _, e := range entries {
		valPos := offset + int(e.offset)
		v, err := decodeValue(data, valPos)
		if err != nil {
			return nil, err
		}
		if v != nil {
			p.values[e.id] = v
		}
	}
	return p, nil
}

func decodeValue(data []byte, pos int) (any, error) {
	if pos+4 > len(data) {
		return nil, fmt.Errorf("propset: truncated property type tag: %w", ErrBadPropertySet)
	}
	typ := binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4
	switch typ {
	case typeEmpty:
		return nil, nil
	case typeI2:
		if pos+2 > len(data) {
			return nil, fmt.Errorf("propset: truncated I2: %w", ErrBadPropertySet)
		}
		return int32(int16(binary.LittleEndian.Uint16(data[pos : pos+2]))), nil
	case typeI4, typeBool:
		if pos+4 > len(data) {
			return nil, fmt.Errorf("propset: truncated I4: %w", ErrBadPropertySet)
		}
		return int32(binary.LittleEndian.Uint32(data[pos : pos+4])), nil
	case typeFileTime:
		if pos+8 > len(data) {
			return nil, fmt.Errorf("propset: truncated FILETIME: %w", ErrBadPropertySet)
		}
		ticks := binary.LittleEndian.Uint64(data[pos : pos+8])
		return fileTimeToTime(ticks), nil
	case typeLPSTR:
		if pos+4 > len(data) {
			return nil, fmt.Errorf("propset: truncated LPSTR length: %w", ErrBadPropertySet)
		}
		n := binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
		if pos+int(n) > len(data) {
			return nil, fmt.Errorf("propset: truncated LPSTR content: %w", ErrBadPropertySet)
		}
		return trimNull(string(data[pos : pos+int(n)])), nil
	case typeLPWSTR:
		if pos+4 > len(data) {
			return nil, fmt.Errorf("propset: truncated LPWSTR length: %w", ErrBadPropertySet)
		}
		n := binary.LittleEndian.Uint32(data[pos : pos+4])
		pos += 4
		byteLen := int(n) * 2
		if pos+byteLen > len(data) {
			return nil, fmt.Errorf("propset: truncated LPWSTR content: %w", ErrBadPropertySet)
		}
		units := make([]uint16, n)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(data[pos+i*2:])
		}
		return trimNull(string(utf16.Decode(units))), nil
	default:
		// Unhandled variant type (arrays, blobs, vectors, ...): not part of
		// the plain metadata surface this package exposes.
		return nil, nil
	}
}

func trimNull(s string) string {
	for i, r := range s {
		if r == 0 {
			return s[:i]
		}
	}
	return s
}

// fileTimeEpochOffset is the number of 100ns ticks between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const fileTimeEpochOffset = 116444736000000000

func fileTimeToTime(ticks uint64) time.Time {
	if ticks < fileTimeEpochOffset {
		return time.Time{}
	}
	unixTicks := ticks - fileTimeEpochOffset
	return time.Unix(0, int64(unixTicks)*100).UTC()
}
