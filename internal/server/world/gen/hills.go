package gen

import (
	"github.com/aquilax/go-perlin"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

const HillsName = "hills"

const (
	seaLevel   = 62
	baseHeight = 64
	amplitude  = 28
	detailAmp  = 4
	minHeight  = 4
	maxHeight  = 200

	biomeOcean  = 0
	biomeBeach  = 16
	biomePlains = 1
)

// Hills shapes rolling terrain from two layers of Perlin noise, with water
// filling everything below sea level.
type Hills struct {
	terrain *perlin.Perlin
	detail  *perlin.Perlin

	bedrock, stone, dirt, grass, sand, water uint16
}

func NewHills(reg *block.Registry, seed int64) (Generator, error) {
	ids, err := lookup(reg, "bedrock", "stone", "dirt", "grass_block", "sand", "water")
	if err != nil {
		return nil, err
	}
	return &Hills{
		terrain: perlin.NewPerlin(2, 2, 4, seed),
		detail:  perlin.NewPerlin(2, 2, 2, seed+1),
		bedrock: ids[0],
		stone:   ids[1],
		dirt:    ids[2],
		grass:   ids[3],
		sand:    ids[4],
		water:   ids[5],
	}, nil
}

func (g *Hills) Name() string { return HillsName }

// SurfaceHeight returns the y of the topmost solid block at world column (bx, bz).
func (g *Hills) SurfaceHeight(bx, bz int) int {
	base := g.terrain.Noise2D(float64(bx)/128, float64(bz)/128)
	detail := g.detail.Noise2D(float64(bx)/24, float64(bz)/24)

	h := int(baseHeight + base*amplitude + detail*detailAmp)
	return max(minHeight, min(maxHeight, h))
}

func (g *Hills) Generate(c *chunk.Chunk) {
	pos := c.Pos()
	for x := 0; x < chunk.Width; x++ {
		for z := 0; z < chunk.Width; z++ {
			h := g.SurfaceHeight(int(pos.X)*chunk.Width+x, int(pos.Z)*chunk.Width+z)
			g.fillColumn(c, x, z, h)
		}
	}
}

func (g *Hills) fillColumn(c *chunk.Chunk, x, z, h int) {
	shore := h <= seaLevel+1

	c.SetBlockUnchecked(x, 0, z, g.bedrock)
	for y := 1; y <= h; y++ {
		id := g.stone
		switch {
		case y == h && shore:
			id = g.sand
		case y == h:
			id = g.grass
		case y > h-4 && shore:
			id = g.sand
		case y > h-4:
			id = g.dirt
		}
		c.SetBlockUnchecked(x, y, z, id)
	}
	for y := h + 1; y <= seaLevel; y++ {
		c.SetBlockUnchecked(x, y, z, g.water)
	}

	switch {
	case h < seaLevel:
		c.SetBiome(x, z, biomeOcean)
	case shore:
		c.SetBiome(x, z, biomeBeach)
	default:
		c.SetBiome(x, z, biomePlains)
	}
}
