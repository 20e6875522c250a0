package world

import "github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"

// lightAccess lets the light propagator read and write across resident chunks.
type lightAccess struct {
	chunks map[chunk.Pos]*chunk.Chunk
}

func (a lightAccess) at(x, z int) *chunk.Chunk {
	return a.chunks[chunk.PosOf(x, z)]
}

func (a lightAccess) Contains(x, _, z int) bool {
	return a.at(x, z) != nil
}

func (a lightAccess) BlockID(x, y, z int) uint16 {
	if c := a.at(x, z); c != nil {
		return c.Block(x&0xF, y, z&0xF)
	}
	return 0
}

func (a lightAccess) SkyLight(x, y, z int) uint8 {
	if c := a.at(x, z); c != nil {
		return c.SkyLight(x&0xF, y, z&0xF)
	}
	return chunk.MaxLight
}

func (a lightAccess) SetSkyLight(x, y, z int, v uint8) {
	if c := a.at(x, z); c != nil {
		c.SetSkyLight(x&0xF, y, z&0xF, v)
	}
}
