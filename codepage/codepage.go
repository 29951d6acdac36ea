// Package codepage resolves the fixed set of special compressed-text byte
// codes used by legacy Word documents, and provides an external transcoder
// for the remaining 8-bit bytes keyed by a document's numeric Windows code
// page. The core text-extraction path in msdoc only needs the fixed table;
// the Transcoder is a collaborator callers opt into for the rest of the
// 8-bit range.
package codepage

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// special maps the 24 compressed-text byte values in [0x82, 0x9F] whose
// Unicode code point differs from the byte value itself (a plain Latin-1
// reading) to their Unicode code points.
var special = map[byte]rune{
	0x82: 0x201A,
	0x83: 0x0192,
	0x84: 0x201E,
	0x85: 0x2026,
	0x86: 0x2020,
	0x87: 0x2021,
	0x88: 0x02C6,
	0x89: 0x2030,
	0x8A: 0x0160,
	0x8B: 0x2039,
	0x8C: 0x0152,
	0x91: 0x2018,
	0x92: 0x2019,
	0x93: 0x201C,
	0x94: 0x201D,
	0x95: 0x2022,
	0x96: 0x2013,
	0x97: 0x2014,
	0x98: 0x02DC,
	0x99: 0x2122,
	0x9A: 0x0161,
	0x9B: 0x203A,
	0x9C: 0x0153,
	0x9F: 0x0178,
}

// SpecialChar returns the rune a compressed-text byte in [0x82, 0x9F]
// decodes to when it is one of the 24 bytes that diverge from a plain
// Latin-1 reading, and false otherwise (the byte should fall through to
// ordinary Windows-1252/Transcoder decoding).
func SpecialChar(b byte) (rune, bool) {
	r, ok := special[b]
	return r, ok
}

// Transcoder decodes a run of compressed-text bytes for a numeric Windows
// code page into runes. Implementations are expected to be stateless and
// safe for concurrent use.
type Transcoder interface {
	Decode(b []byte, codepage uint16) (string, error)
}

// codepageEncodings maps numeric Windows code-page identifiers to their
// golang.org/x/text encoding, mirroring the iconv-name table a C
// implementation would use.
var codepageEncodings = map[uint16]encoding.Encoding{
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,
	874:  charmap.Windows874,
	10000: charmap.Macintosh,
}

// htmlindexNames covers code pages golang.org/x/text exposes only through
// its IANA/WHATWG name registry rather than a charmap constant (mostly the
// CJK double-byte encodings).
var htmlindexNames = map[uint16]string{
	932: "shift_jis",
	936: "gbk",
	950: "big5",
	951: "big5",
}

func lookupEncoding(codepageID uint16) encoding.Encoding {
	if enc, ok := codepageEncodings[codepageID]; ok {
		return enc
	}
	if name, ok := htmlindexNames[codepageID]; ok {
		if enc, err := htmlindex.Get(name); err == nil {
			return enc
		}
	}
	return charmap.Windows1252
}

type defaultTranscoder struct{}

// Default returns the golang.org/x/text-backed Transcoder. Unrecognized
// code pages fall back to Windows-1252, matching legacy Word's own
// behavior when it encounters a code page it doesn't recognize either.
func Default() Transcoder { return defaultTranscoder{} }

func (defaultTranscoder) Decode(b []byte, codepageID uint16) (string, error) {
	enc := lookupEncoding(codepageID)
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
