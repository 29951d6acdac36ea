package clx

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func putPcd(buf *bytes.Buffer, flags uint16, fc uint32, prm uint16) {
	binary.Write(buf, binary.LittleEndian, flags)
	binary.Write(buf, binary.LittleEndian, fc)
	binary.Write(buf, binary.LittleEndian, prm)
}

func buildPlcPcd(cps []uint32, pieces [][2]uint32) []byte {
	var buf bytes.Buffer
	for _, cp := range cps {
		binary.Write(&buf, binary.LittleEndian, cp)
	}
	for _, p := range pieces {
		putPcd(&buf, 0, p[0], 0)
	}
	return buf.Bytes()
}

func buildPcdtClx(plcPcd []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(tagPcdt)
	binary.Write(&buf, binary.LittleEndian, uint32(len(plcPcd)))
	buf.Write(plcPcd)
	return buf.Bytes()
}

func TestParseSkipsPrcThenParsesPcdt(t *testing.T) {
	plcPcd := buildPlcPcd([]uint32{0, 10}, [][2]uint32{{0x00000100, 0}})

	var buf bytes.Buffer
	buf.WriteByte(tagPrc)
	binary.Write(&buf, binary.LittleEndian, int16(4))
	buf.Write([]byte{1, 2, 3, 4})
	buf.Write(buildPcdtClx(plcPcd))

	c, err := Parse(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, c.Pcd.Count())
}

func TestParseRejectsMissingPcdt(t *testing.T) {
	_, err := Parse([]byte{tagPrc, 0, 0})
	require.ErrorIs(t, err, ErrBadClx)
}

func TestPcdCompressedFlagPolarity(t *testing.T) {
	compressed := Pcd{fc: 0x40000200}
	require.True(t, compressed.Compressed())
	require.EqualValues(t, 0x100, compressed.FileOffset())

	uncompressed := Pcd{fc: 0x00000400}
	require.False(t, uncompressed.Compressed())
	require.EqualValues(t, 0x400, uncompressed.FileOffset())
}

func TestPlcPcdPieceForCP(t *testing.T) {
	raw := buildPlcPcd([]uint32{0, 5, 12}, [][2]uint32{
		{0x00000000, 0},
		{0x40000010, 0},
	})
	p, err := parsePlcPcd(raw)
	require.NoError(t, err)
	require.Equal(t, 2, p.Count())
	require.EqualValues(t, 12, p.LastCP())

	pcd, start, idx, ok := p.PieceForCP(7)
	require.True(t, ok)
	require.Equal(t, 1, idx)
	require.EqualValues(t, 5, start)
	require.True(t, pcd.Compressed())

	_, _, _, ok = p.PieceForCP(12)
	require.False(t, ok)
}
