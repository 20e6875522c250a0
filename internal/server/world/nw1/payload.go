package nw1

import (
	"encoding/binary"
	"fmt"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

// EncodeChunk serializes the block ids of c: a little-endian uint16 section
// bitmap followed by the run-length encoded ids of each present section.
// Light is not stored; it is recomputed on load.
func EncodeChunk(c *chunk.Chunk) []byte {
	out := binary.LittleEndian.AppendUint16(nil, c.Bitmap())
	for i := 0; i < chunk.SectionCount; i++ {
		if s := c.Section(i); s != nil {
			out = AppendRLE(out, s.IDs[:])
		}
	}
	return out
}

// DecodeChunk rebuilds the chunk at pos from an EncodeChunk payload.
// The returned chunk is marked clean.
func DecodeChunk(pos chunk.Pos, data []byte) (*chunk.Chunk, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: chunk %s payload is %d bytes", ErrCorrupt, pos, len(data))
	}
	bitmap := binary.LittleEndian.Uint16(data)
	p := 2

	c := chunk.New(pos)
	var ids [chunk.SectionVolume]uint16
	for i := 0; i < chunk.SectionCount; i++ {
		if bitmap&(1<<i) == 0 {
			continue
		}
		n, err := DecodeRLE(ids[:], data[p:])
		if err != nil {
			return nil, fmt.Errorf("decode chunk %s section %d: %w", pos, i, err)
		}
		p += n
		c.LoadSection(i, &ids)
	}
	if p != len(data) {
		return nil, fmt.Errorf("%w: chunk %s has %d trailing bytes", ErrCorrupt, pos, len(data)-p)
	}
	c.MarkClean()
	return c, nil
}
