package fib

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// versionForCount maps a known cbRgFcLcb count to the Word version that
// writes it. An unrecognized count is not itself an error: as long as the
// region is at least as large as FibRgFcLcb97, the caller still gets it
// fully decoded, just with an empty Version label.
var versionForCount = map[uint16]string{
	0x005D: "Word 97",
	0x006C: "Word 2000",
	0x0088: "Word 2002",
	0x00A4: "Word 2003",
	0x00B7: "Word 2007",
}

// Parse decodes a File Information Block from the start of a WordDocument
// stream.
func Parse(data []byte) (*FIB, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("fib: only %d bytes, need at least 32 for FibBase: %w", len(data), ErrBadFib)
	}

	r := bytes.NewReader(data)
	f := &FIB{}

	if err := binary.Read(r, binary.LittleEndian, &f.Base); err != nil {
		return nil, fmt.Errorf("fib: reading FibBase: %w", err)
	}
	if f.Base.WIdent != 0xA5EC {
		return nil, fmt.Errorf("fib: wIdent %#x, not a Word binary document: %w", f.Base.WIdent, ErrBadFib)
	}

	if err := binary.Read(r, binary.LittleEndian, &f.Csw); err != nil {
		return nil, fmt.Errorf("fib: reading csw: %w", err)
	}
	if f.Csw != 14 {
		return nil, fmt.Errorf("fib: csw %d, expected 14: %w", f.Csw, ErrBadFib)
	}
	if err := binary.Read(r, binary.LittleEndian, &f.FibRgW); err != nil {
		return nil, fmt.Errorf("fib: reading fibRgW97: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &f.Cslw); err != nil {
		return nil, fmt.Errorf("fib: reading cslw: %w", err)
	}
	if f.Cslw != 22 {
		return nil, fmt.Errorf("fib: cslw %d, expected 22: %w", f.Cslw, ErrBadFib)
	}
	if err := binary.Read(r, binary.LittleEndian, &f.FibRgLw); err != nil {
		return nil, fmt.Errorf("fib: reading fibRgLw97: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &f.CbRgFcLcb); err != nil {
		return nil, fmt.Errorf("fib: reading cbRgFcLcb: %w", err)
	}
	f.Version = versionForCount[f.CbRgFcLcb]

	blobSize := int(f.CbRgFcLcb) * 8
	if r.Len() < blobSize {
		return nil, fmt.Errorf("fib: rgFcLcb blob needs %d bytes, have %d: %w", blobSize, r.Len(), ErrBadFib)
	}
	blob := make([]byte, blobSize)
	if _, err := r.Read(blob); err != nil {
		return nil, fmt.Errorf("fib: reading rgFcLcb blob: %w", err)
	}
	// FibRgFcLcb97 is a prefix of the blob; later Word versions append more
	// fc/lcb pairs after it, which is exactly what a too-large CbRgFcLcb
	// means here and is not itself an error.
	fixedSize := binary.Size(f.FibRgFcLcb97)
	if len(blob) < fixedSize {
		return nil, fmt.Errorf("fib: rgFcLcb blob shorter than FibRgFcLcb97 (%d < %d): %w", len(blob), fixedSize, ErrBadFib)
	}
	if err := binary.Read(bytes.NewReader(blob[:fixedSize]), binary.LittleEndian, &f.FibRgFcLcb97); err != nil {
		return nil, fmt.Errorf("fib: reading fibRgFcLcb97: %w", err)
	}

	if r.Len() >= 2 {
		if err := binary.Read(r, binary.LittleEndian, &f.CswNew); err != nil {
			return nil, fmt.Errorf("fib: reading cswNew: %w", err)
		}
		rest := make([]byte, r.Len())
		if _, err := r.Read(rest); err != nil {
			return nil, fmt.Errorf("fib: reading fibRgCswNew: %w", err)
		}
		f.RgCswNew = rest
	}

	return f, nil
}

// LastCP returns the CP one past the end of the last subdocument (main
// text, footnotes, headers, annotations, endnotes, textboxes, header
// textboxes): the value PlcPcd's aCp array must terminate with.
func (f *FIB) LastCP() uint32 {
	lw := f.FibRgLw
	tail := lw.CcpFtn + lw.CcpHdd + lw.CcpAtn + lw.CcpEdn + lw.CcpTxbx + lw.CcpHdrTxbx
	if tail != 0 {
		return lw.CcpText + 1 + tail
	}
	return lw.CcpText
}

// TableStreamName returns which of "0Table"/"1Table" holds this document's
// Clx, per the fWhichTblStm bit.
func (f *FIB) TableStreamName() string {
	if f.Base.Flags1&flagWhichTblStm != 0 {
		return "1Table"
	}
	return "0Table"
}

// IsEncrypted reports the fEncrypted bit. msdoc does not decrypt content;
// it surfaces ErrEncrypted so callers can detect and report it.
func (f *FIB) IsEncrypted() bool {
	return f.Base.Flags1&flagEncrypted != 0
}

// IsObfuscated reports the fObfuscated bit (XOR obfuscation, distinct from
// full RC4 encryption). Only meaningful when IsEncrypted is also true.
func (f *FIB) IsObfuscated() bool {
	return f.Base.Flags1&flagObfuscated != 0
}
