package nw1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

func TestPayloadRoundTrip(t *testing.T) {
	c := testChunk(chunk.Pos{X: 4, Z: -4}, 40, 0, 9, 15)
	data := EncodeChunk(c)
	assert.Equal(t, []byte{0x01, 0x82}, data[:2], "bitmap is a little-endian uint16")

	got, err := DecodeChunk(c.Pos(), data)
	require.NoError(t, err)
	requireSameBlocks(t, c, got)
	assert.False(t, got.Dirty())
	assert.Equal(t, uint8(chunk.MaxLight), got.SkyLight(0, 0, 0))
}

func TestPayloadEmptyChunk(t *testing.T) {
	data := EncodeChunk(chunk.New(chunk.Pos{}))
	assert.Equal(t, []byte{0, 0}, data)

	got, err := DecodeChunk(chunk.Pos{}, data)
	require.NoError(t, err)
	assert.Zero(t, got.Bitmap())
}

func TestDecodeChunkRejectsMalformed(t *testing.T) {
	_, err := DecodeChunk(chunk.Pos{}, []byte{1})
	assert.ErrorIs(t, err, ErrCorrupt)

	// section 0 announced but missing
	_, err = DecodeChunk(chunk.Pos{}, []byte{1, 0})
	assert.ErrorIs(t, err, ErrCorrupt)

	data := append(EncodeChunk(testChunk(chunk.Pos{}, 2, 3)), 0)
	_, err = DecodeChunk(chunk.Pos{}, data)
	assert.ErrorIs(t, err, ErrCorrupt)
}
