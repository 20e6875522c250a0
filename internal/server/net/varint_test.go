package net

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value int32
		size  int
	}{
		{"zero", 0, 1},
		{"one", 1, 1},
		{"127", 127, 1},
		{"128", 128, 2},
		{"255", 255, 2},
		{"25565", 25565, 3},
		{"max_varint", 2147483647, 5},
		{"negative_one", -1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := WriteVarInt(&buf, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.size, n)
			assert.Equal(t, tt.size, VarIntSize(tt.value))

			decoded, consumed, err := DecodeVarInt(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded)
			assert.Equal(t, tt.size, consumed)

			got, bytesRead, err := ReadVarInt(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.size, bytesRead)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestPutVarInt(t *testing.T) {
	var buf [5]byte
	n := PutVarInt(buf[:], 300)
	require.Equal(t, 2, n)
	// 300 = 0x12C → 0xAC 0x02
	assert.Equal(t, []byte{0xAC, 0x02}, buf[:n])
}

func TestDecodeVarIntMalformed(t *testing.T) {
	_, _, err := DecodeVarInt([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = DecodeVarInt([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
	assert.ErrorIs(t, err, ErrVarIntTooLong)

	_, _, err = ReadVarInt(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}))
	assert.ErrorIs(t, err, ErrVarIntTooLong)
}

func TestReadStringOversize(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteVarInt(&buf, MaxStringLength+1)
	require.NoError(t, err)
	_, err = ReadString(&buf)
	assert.Error(t, err, "oversize length must be rejected")

	buf.Reset()
	_, err = WriteString(&buf, "nw1")
	require.NoError(t, err)
	s, err := ReadString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "nw1", s)
}

func TestPositionRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z int
	}{
		{"origin", 0, 0, 0},
		{"positive", 100, 64, 200},
		{"negative", -100, 0, -200},
		{"max_y", 0, 255, 0},
		{"mixed", -33554432, 0, 33554431}, // extreme 26-bit values
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, z := DecodePosition(EncodePosition(tt.x, tt.y, tt.z))
			assert.Equal(t, [3]int{tt.x, tt.y, tt.z}, [3]int{x, y, z})
		})
	}
}

func TestBufferBigEndian(t *testing.T) {
	var b Buffer
	b.PutBool(true)
	b.PutU16(0x0102)
	b.PutI32(-2)
	b.PutU64(0x0A0B0C0D0E0F1011)
	b.PutVarInt(300)

	want := []byte{
		0x01,
		0x01, 0x02,
		0xFF, 0xFF, 0xFF, 0xFE,
		0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11,
		0xAC, 0x02,
	}
	assert.Equal(t, want, b.Bytes())
	assert.Equal(t, len(want), b.Len())
}

func TestRawPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRawPacket(&buf, 0x22, []byte{1, 2, 3}))

	id, data, err := ReadRawPacket(&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(0x22), id)
	assert.Equal(t, []byte{1, 2, 3}, data)

	assert.Equal(t, []byte{2, 0x22, 9}, Frame([]byte{0x22, 9}))
}
