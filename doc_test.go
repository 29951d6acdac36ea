package msdoc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/ole2doc/msdoc/fib"
)

func stringToUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s + "\x00"))
}

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

func signatureBytes() []byte {
	return []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}
}

const (
	mockSectorSize   = 512
	fcClxOffsetInFib = 240 // offset of FcClx within FibRgFcLcb97
	mockCbRgFcLcb    = 0x005D
	mockFibFixedSize = 32 + 2 + 28 + 2 + 88 + 2 + mockCbRgFcLcb*8
)

// buildFIB returns a full FIB byte region: FibBase, csw/fibRgW97,
// cslw/fibRgLw97, cbRgFcLcb and its blob with FcClx/LcbClx set to point
// into the table stream. flags1 lands verbatim in FibBase.Flags1 (offset 10:
// wIdent, nFib, reserved, lid, pnNext each 2 bytes precede it).
func buildFIB(ccpText uint32, fcClx, lcbClx uint32, flags1 uint16) []byte {
	var buf bytes.Buffer
	base := make([]byte, 32)
	binary.LittleEndian.PutUint16(base[0:], 0xA5EC) // wIdent
	binary.LittleEndian.PutUint16(base[10:], flags1)
	buf.Write(base)

	binary.Write(&buf, binary.LittleEndian, uint16(14))
	buf.Write(make([]byte, 28)) // FibRgW97

	binary.Write(&buf, binary.LittleEndian, uint16(22))
	lw := make([]byte, 88)
	binary.LittleEndian.PutUint32(lw[8:], ccpText) // CcpText offset in FibRgLw97
	buf.Write(lw)

	binary.Write(&buf, binary.LittleEndian, uint16(mockCbRgFcLcb))
	blob := make([]byte, mockCbRgFcLcb*8)
	binary.LittleEndian.PutUint32(blob[fcClxOffsetInFib:], fcClx)
	binary.LittleEndian.PutUint32(blob[fcClxOffsetInFib+4:], lcbClx)
	buf.Write(blob)

	return buf.Bytes()
}

// buildClx returns a single-piece Clx/PlcPcd pointing at wordDocOffset in the
// WordDocument stream, either as compressed 8-bit text (fc's 0x40000000 bit set,
// byte offset doubled) or uncompressed UTF-16LE text (fc is the plain byte
// offset), per clx.Pcd.FileOffset's decoding rule.
func buildClx(ccpText uint32, wordDocOffset uint32, compressed bool) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x02) // Pcdt tag

	var plc bytes.Buffer
	binary.Write(&plc, binary.LittleEndian, uint32(0))
	binary.Write(&plc, binary.LittleEndian, ccpText)
	binary.Write(&plc, binary.LittleEndian, uint16(0)) // flags

	fc := wordDocOffset
	if compressed {
		fc = 0x40000000 | wordDocOffset*2
	}
	binary.Write(&plc, binary.LittleEndian, fc)
	binary.Write(&plc, binary.LittleEndian, uint16(0)) // prm

	binary.Write(&buf, binary.LittleEndian, uint32(plc.Len()))
	buf.Write(plc.Bytes())
	return buf.Bytes()
}

func putDirName(entry []byte, name string) {
	u := stringToUTF16(name)
	for i, r := range u {
		binary.LittleEndian.PutUint16(entry[i*2:], r)
	}
	binary.LittleEndian.PutUint16(entry[0x40:], uint16(len(u)*2))
}

func padToSector(data []byte) []byte {
	if len(data)%mockSectorSize == 0 {
		return data
	}
	return append(data, make([]byte, mockSectorSize-len(data)%mockSectorSize)...)
}

// buildMockDocBytes assembles a minimal Word binary document: a CFB
// container with WordDocument and 0Table streams, sized to span multiple
// sectors. flags1 is written into the FIB's Flags1 field unmodified (for
// example, to mark the document encrypted); compressed selects 8-bit
// compressed vs UTF-16LE uncompressed text encoding for the single piece.
//
// "0Table" sorts before "WordDocument" under utf16Less (6 UTF-16 units
// against 12), so it is wired as WordDocument's left sibling, not right.
func buildMockDocBytes(t *testing.T, text string, flags1 uint16, compressed bool) []byte {
	t.Helper()

	var textBytes []byte
	if compressed {
		textBytes = []byte(text)
	} else {
		textBytes = encodeUTF16LE(text)
	}
	ccpText := uint32(len([]rune(text)))

	clxBytes := buildClx(ccpText, uint32(mockFibFixedSize), compressed)
	fibBytes := buildFIB(ccpText, 0, uint32(len(clxBytes)), flags1)
	wordDoc := append(append([]byte{}, fibBytes...), textBytes...)
	wordDocSectors := padToSector(wordDoc)
	numWordDocSectors := len(wordDocSectors) / mockSectorSize

	tableData := padToSector(clxBytes)

	const (
		sectFAT          = 0
		sectDir          = 1
		sectWordDocStart = 2
	)
	sectTable := sectWordDocStart + numWordDocSectors

	var file bytes.Buffer

	hdr := make([]byte, mockSectorSize)
	copy(hdr[0:8], signatureBytes())
	binary.LittleEndian.PutUint16(hdr[0x1C:], 0xFFFE)
	binary.LittleEndian.PutUint16(hdr[0x1A:], 3)
	binary.LittleEndian.PutUint16(hdr[0x1E:], 9)
	binary.LittleEndian.PutUint16(hdr[0x20:], 6)
	binary.LittleEndian.PutUint32(hdr[0x2C:], 1)
	binary.LittleEndian.PutUint32(hdr[0x30:], sectDir)
	binary.LittleEndian.PutUint32(hdr[0x38:], 0) // mini cutoff 0: force main FAT
	binary.LittleEndian.PutUint32(hdr[0x3C:], 0xFFFFFFFE)
	binary.LittleEndian.PutUint32(hdr[0x44:], 0xFFFFFFFE)
	binary.LittleEndian.PutUint32(hdr[0x4C:], sectFAT)
	for i := 1; i < 109; i++ {
		binary.LittleEndian.PutUint32(hdr[0x4C+i*4:], 0xFFFFFFFF)
	}
	file.Write(hdr)

	fat := make([]byte, mockSectorSize)
	for i := range fat {
		fat[i] = 0xFF
	}
	binary.LittleEndian.PutUint32(fat[sectFAT*4:], 0xFFFFFFFD)
	binary.LittleEndian.PutUint32(fat[sectDir*4:], 0xFFFFFFFE)
	for i := 0; i < numWordDocSectors; i++ {
		sn := sectWordDocStart + i
		next := uint32(0xFFFFFFFE)
		if i < numWordDocSectors-1 {
			next = uint32(sn + 1)
		}
		binary.LittleEndian.PutUint32(fat[sn*4:], next)
	}
	binary.LittleEndian.PutUint32(fat[sectTable*4:], 0xFFFFFFFE)
	file.Write(fat)

	dir := make([]byte, mockSectorSize)
	root := dir[0:128]
	putDirName(root, "Root Entry")
	root[0x42] = 5 // root storage
	binary.LittleEndian.PutUint32(root[0x44:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(root[0x48:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(root[0x4C:], 1)
	binary.LittleEndian.PutUint32(root[0x74:], 0xFFFFFFFE)

	wd := dir[128:256]
	putDirName(wd, "WordDocument")
	wd[0x42] = 2
	binary.LittleEndian.PutUint32(wd[0x44:], 2)          // left sibling: 0Table sorts first
	binary.LittleEndian.PutUint32(wd[0x48:], 0xFFFFFFFF) // right sibling: none
	binary.LittleEndian.PutUint32(wd[0x4C:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(wd[0x74:], uint32(sectWordDocStart))
	binary.LittleEndian.PutUint32(wd[0x78:], uint32(len(wordDoc)))

	tbl := dir[256:384]
	putDirName(tbl, "0Table")
	tbl[0x42] = 2
	binary.LittleEndian.PutUint32(tbl[0x44:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(tbl[0x48:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(tbl[0x4C:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(tbl[0x74:], uint32(sectTable))
	binary.LittleEndian.PutUint32(tbl[0x78:], uint32(len(clxBytes)))
	file.Write(dir)

	file.Write(wordDocSectors)
	file.Write(tableData)

	return file.Bytes()
}

// buildMockDoc is buildMockDocBytes with a plain, unencrypted FIB and
// compressed 8-bit text, the shape most of this package's tests want.
func buildMockDoc(t *testing.T, text string) []byte {
	t.Helper()
	return buildMockDocBytes(t, text, 0, true)
}

func TestOpenAndExtractText(t *testing.T) {
	raw := buildMockDoc(t, "Hello, Word!")
	d, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	text, err := d.Text()
	require.NoError(t, err)
	require.Equal(t, "Hello, Word!", text)
}

func TestExtractTextStopsOnErrStop(t *testing.T) {
	raw := buildMockDoc(t, "Hello, Word!")
	d, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	var got []rune
	err = d.ExtractText(SinkFunc(func(r rune) error {
		got = append(got, r)
		if len(got) == 5 {
			return ErrStop
		}
		return nil
	}))
	require.NoError(t, err)
	require.Equal(t, "Hello", string(got))
}

func TestRuneAtRandomAccess(t *testing.T) {
	raw := buildMockDoc(t, "Hello, Word!")
	d, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	r, err := d.RuneAt(7)
	require.NoError(t, err)
	require.Equal(t, 'W', r)
}

// TestOpenAndExtractUncompressedText exercises the UTF-16LE piece-decoding
// path: clx.Pcd.Compressed reports false, and ExtractText/RuneAt must read
// two bytes per character rather than one.
func TestOpenAndExtractUncompressedText(t *testing.T) {
	raw := buildMockDocBytes(t, "Héllo, Wörld!", 0, false)
	d, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	text, err := d.Text()
	require.NoError(t, err)
	require.Equal(t, "Héllo, Wörld!", text)

	r, err := d.RuneAt(7)
	require.NoError(t, err)
	require.Equal(t, 'W', r)
}

// TestOpenRejectsEncryptedDocument exercises the end-to-end rejection path:
// Open must surface fib.ErrEncrypted as soon as it parses a FIB with the
// fEncrypted bit set, not merely make it observable via FIB.IsEncrypted on a
// directly-parsed struct.
func TestOpenRejectsEncryptedDocument(t *testing.T) {
	const flagEncrypted = 1 << 8
	raw := buildMockDocBytes(t, "Secret", flagEncrypted, true)

	_, err := Open(bytes.NewReader(raw))
	require.Error(t, err)
	require.True(t, errors.Is(err, fib.ErrEncrypted))
}
