package msdoc

import (
	"fmt"
	"unicode/utf16"

	"github.com/ole2doc/msdoc/clx"
	"github.com/ole2doc/msdoc/codepage"
)

// decompressedRune maps a single compressed-text byte to its Unicode code
// point: the 24-entry special table for the bytes that diverge from plain
// Latin-1 (always applied, regardless of transcoder), then the
// document's codepage.Transcoder if one was supplied via OpenWithTranscoder/
// OpenFileWithTranscoder, and finally a direct byte-to-codepoint passthrough
// if no transcoder was wired in.
func (d *Document) decompressedRune(b byte) rune {
	if r, ok := codepage.SpecialChar(b); ok {
		return r
	}
	if d.transcoder != nil {
		if s, err := d.transcoder.Decode([]byte{b}, d.codepageID); err == nil {
			for _, r := range s {
				return r
			}
		}
	}
	return rune(b)
}

// emitPiece reads count characters of pcd's text, starting at its file
// offset, and delivers them to sink one rune at a time.
func (d *Document) emitPiece(pcd clx.Pcd, count clx.CP, sink Sink) error {
	off := pcd.FileOffset()
	if pcd.Compressed() {
		end := uint64(off) + uint64(count)
		if end > uint64(len(d.wordDoc)) {
			return fmt.Errorf("msdoc: compressed piece runs past end of WordDocument stream")
		}
		for _, b := range d.wordDoc[off:end] {
			if err := sink.Rune(d.decompressedRune(b)); err != nil {
				return err
			}
		}
		return nil
	}

	end := uint64(off) + uint64(count)*2
	if end > uint64(len(d.wordDoc)) {
		return fmt.Errorf("msdoc: uncompressed piece runs past end of WordDocument stream")
	}
	units := make([]uint16, count)
	for i := range units {
		lo := off + uint32(i)*2
		units[i] = uint16(d.wordDoc[lo]) | uint16(d.wordDoc[lo+1])<<8
	}
	for _, r := range utf16.Decode(units) {
		if err := sink.Rune(r); err != nil {
			return err
		}
	}
	return nil
}

// RuneAt resolves a single character position to its rune without walking
// the whole document, for callers that need random access (for example,
// mapping a formatting run's CP range back to visible text).
func (d *Document) RuneAt(cp clx.CP) (rune, error) {
	pcd, start, _, ok := d.clx.Pcd.PieceForCP(cp)
	if !ok {
		return 0, fmt.Errorf("msdoc: CP %d out of range (last CP %d)", cp, d.clx.Pcd.LastCP())
	}
	offset := uint32(cp - start)
	if pcd.Compressed() {
		pos := pcd.FileOffset() + offset
		if int(pos) >= len(d.wordDoc) {
			return 0, fmt.Errorf("msdoc: compressed CP %d past end of WordDocument stream", cp)
		}
		return d.decompressedRune(d.wordDoc[pos]), nil
	}
	pos := pcd.FileOffset() + offset*2
	if int(pos)+2 > len(d.wordDoc) {
		return 0, fmt.Errorf("msdoc: uncompressed CP %d past end of WordDocument stream", cp)
	}
	unit := rune(uint16(d.wordDoc[pos]) | uint16(d.wordDoc[pos+1])<<8)
	if !utf16.IsSurrogate(unit) {
		return unit, nil
	}
	if int(pos)+4 > len(d.wordDoc) {
		return 0, fmt.Errorf("msdoc: surrogate CP %d missing low half", cp)
	}
	lowUnit := rune(uint16(d.wordDoc[pos+2]) | uint16(d.wordDoc[pos+3])<<8)
	return utf16.DecodeRune(unit, lowUnit), nil
}
