package clx

// CP is a character position: an index into the document's logical text,
// as opposed to a byte offset into a stream.
type CP uint32

// compressedFlag is bit 0x40000000 of a Pcd's fc field. When set the piece
// is stored as single-byte compressed (effectively ANSI/Windows-1252) text
// at half the nominal file offset; when clear it is plain UTF-16LE text.
const compressedFlag = 0x40000000

// Pcd is one piece descriptor: 8 bytes (2 for flags, 4 for fc, 2 for prm).
type Pcd struct {
	flags uint16
	fc    uint32
	Prm   uint16
}

// Compressed reports whether this piece's text is 8-bit compressed rather
// than 16-bit UTF-16LE. Bit 0x40000000 of fc SET means compressed: this is
// the inverse of what the raw bit pattern might suggest, and decoders that
// read it the other way round mis-decode every such piece as garbled
// UTF-16.
func (p Pcd) Compressed() bool {
	return p.fc&compressedFlag != 0
}

// FileOffset returns the byte offset in the WordDocument stream where this
// piece's characters begin, already adjusted for the compressed/uncompressed
// encoding (compressed pieces pack two characters per on-disk word, so
// their stored fc is double the real byte offset).
func (p Pcd) FileOffset() uint32 {
	const valueMask = 0x3FFFFFFF
	value := p.fc & valueMask
	if p.Compressed() {
		return value / 2
	}
	return value
}
