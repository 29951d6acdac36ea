package propset

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildPropertySet assembles a minimal single-section property set stream
// carrying the given properties, in PIDSI_* id -> encoded-value-bytes form.
// Each value already includes its leading type tag (4 bytes).
func buildPropertySet(t *testing.T, props map[uint32][]byte) []byte {
	t.Helper()

	ids := make([]uint32, 0, len(props))
	for id := range props {
		ids = append(ids, id)
	}

	var section bytes.Buffer
	entryTableSize := 8 + len(ids)*8
	offsets := make(map[uint32]uint32, len(ids))
	valuesStart := entryTableSize
	cursor := valuesStart
	var values bytes.Buffer
	for _, id := range ids {
		offsets[id] = uint32(cursor)
		v := props[id]
		values.Write(v)
		cursor += len(v)
	}

	binary.Write(&section, binary.LittleEndian, uint32(entryTableSize+values.Len()))
	binary.Write(&section, binary.LittleEndian, uint32(len(ids)))
	for _, id := range ids {
		binary.Write(&section, binary.LittleEndian, id)
		binary.Write(&section, binary.LittleEndian, offsets[id])
	}
	section.Write(values.Bytes())

	var stream bytes.Buffer
	binary.Write(&stream, binary.LittleEndian, uint16(0xFFFE)) // byte order
	binary.Write(&stream, binary.LittleEndian, uint16(0))      // format
	binary.Write(&stream, binary.LittleEndian, uint32(0))      // OS version
	stream.Write(make([]byte, 16))                             // clsid
	binary.Write(&stream, binary.LittleEndian, uint32(1))      // section count

	fmtIDOffset := 28 + 20
	stream.Write(make([]byte, 16))                                  // fmtid
	binary.Write(&stream, binary.LittleEndian, uint32(fmtIDOffset)) // section offset
	stream.Write(section.Bytes())

	return stream.Bytes()
}

func lpstrValue(s string) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(typeLPSTR))
	padded := s + "\x00"
	binary.Write(&buf, binary.LittleEndian, uint32(len(padded)))
	buf.WriteString(padded)
	return buf.Bytes()
}

func i4Value(v int32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(typeI4))
	binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}

func fileTimeValue(tm time.Time) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(typeFileTime))
	ticks := uint64(tm.UnixNano()/100) + fileTimeEpochOffset
	binary.Write(&buf, binary.LittleEndian, ticks)
	return buf.Bytes()
}

func TestParseStringAndIntProperties(t *testing.T) {
	raw := buildPropertySet(t, map[uint32][]byte{
		PIDSITitle:     lpstrValue("Quarterly Report"),
		PIDSIAuthor:    lpstrValue("A. Writer"),
		PIDSIPageCount: i4Value(12),
	})

	p, err := Parse(raw)
	require.NoError(t, err)

	title, ok := p.String(PIDSITitle)
	require.True(t, ok)
	require.Equal(t, "Quarterly Report", title)

	author, ok := p.String(PIDSIAuthor)
	require.True(t, ok)
	require.Equal(t, "A. Writer", author)

	pages, ok := p.Int32(PIDSIPageCount)
	require.True(t, ok)
	require.Equal(t, int32(12), pages)
}

func TestParseFileTimeProperty(t *testing.T) {
	want := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	raw := buildPropertySet(t, map[uint32][]byte{
		PIDSICreateDTM: fileTimeValue(want),
	})

	p, err := Parse(raw)
	require.NoError(t, err)

	got, ok := p.Time(PIDSICreateDTM)
	require.True(t, ok)
	require.WithinDuration(t, want, got, time.Second)
}

func TestParseMissingPropertyReturnsFalse(t *testing.T) {
	raw := buildPropertySet(t, map[uint32][]byte{
		PIDSITitle: lpstrValue("Only Title"),
	})

	p, err := Parse(raw)
	require.NoError(t, err)

	_, ok := p.String(PIDSISubject)
	require.False(t, ok)
}

func TestParseRejectsBadByteOrder(t *testing.T) {
	raw := buildPropertySet(t, map[uint32][]byte{
		PIDSITitle: lpstrValue("x"),
	})
	binary.LittleEndian.PutUint16(raw[0:2], 0x1234)

	_, err := Parse(raw)
	require.ErrorIs(t, err, ErrBadPropertySet)
}
