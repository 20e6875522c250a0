package gen

import (
	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

const FlatgrassName = "flatgrass"

// Flatgrass generates a flat world: stone up to y=47, diorite from 48 to 60
// and a polished diorite surface at y=61.
type Flatgrass struct {
	stone, fill, top uint16
}

func NewFlatgrass(reg *block.Registry, _ int64) (Generator, error) {
	ids, err := lookup(reg, "stone", "diorite", "polished_diorite")
	if err != nil {
		return nil, err
	}
	return &Flatgrass{stone: ids[0], fill: ids[1], top: ids[2]}, nil
}

func (g *Flatgrass) Name() string { return FlatgrassName }

func (g *Flatgrass) Generate(c *chunk.Chunk) {
	for x := 0; x < chunk.Width; x++ {
		for z := 0; z < chunk.Width; z++ {
			for y := 0; y < 48; y++ {
				c.SetBlockUnchecked(x, y, z, g.stone)
			}
			for y := 48; y < 61; y++ {
				c.SetBlockUnchecked(x, y, z, g.fill)
			}
			c.SetBlockUnchecked(x, 61, z, g.top)
		}
	}
}

// SurfaceHeight is the y of the top block.
func (g *Flatgrass) SurfaceHeight(_, _ int) int { return 61 }
