package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nw1"
)

const stone = 1

// chunkAccess exposes a single chunk at (0, 0); everything else is unloaded.
type chunkAccess struct {
	c *chunk.Chunk
}

func (a chunkAccess) Contains(x, _, z int) bool {
	return x >= 0 && x < chunk.Width && z >= 0 && z < chunk.Width
}

func (a chunkAccess) BlockID(x, y, z int) uint16       { return a.c.Block(x, y, z) }
func (a chunkAccess) SkyLight(x, y, z int) uint8       { return a.c.SkyLight(x, y, z) }
func (a chunkAccess) SetSkyLight(x, y, z int, v uint8) { a.c.SetSkyLight(x, y, z, v) }

// groundChunk is solid stone from y=0 to y=63 with initial lighting.
func groundChunk() *chunk.Chunk {
	c := chunk.New(chunk.Pos{})
	for x := 0; x < chunk.Width; x++ {
		for z := 0; z < chunk.Width; z++ {
			for y := 0; y < 64; y++ {
				c.SetBlock(x, y, z, stone)
			}
		}
	}
	c.ComputeInitialLighting(block.Default())
	return c
}

func drain(t *testing.T, a Access, q *Queue) {
	t.Helper()
	for i := 0; q.Len() > 0; i++ {
		require.Less(t, i, 1000, "lighting did not converge")
		Propagate(a, block.Default(), q, DefaultBudget)
	}
}

func TestQueueIsLIFO(t *testing.T) {
	var q Queue
	q.Push(Pos{1, 1, 1})
	q.Push(Pos{2, 2, 2})
	q.Push(Pos{2, 2, 2})
	assert.Equal(t, 3, q.Len())

	p, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Pos{2, 2, 2}, p)
	q.Pop()
	p, _ = q.Pop()
	assert.Equal(t, Pos{1, 1, 1}, p)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestShaftConvergesToFullLight(t *testing.T) {
	for _, depth := range []int{1, 10, 63} {
		c := groundChunk()
		a := chunkAccess{c}
		var q Queue
		for y := 63; y > 63-depth; y-- {
			c.SetBlock(8, y, 8, 0)
			q.Push(Pos{8, y, 8})
		}
		drain(t, a, &q)

		for y := 63; y > 63-depth; y-- {
			assert.Equal(t, uint8(MaxLight), c.SkyLight(8, y, 8), "depth=%d y=%d", depth, y)
		}
	}
}

func TestTunnelFallsOffByOne(t *testing.T) {
	c := groundChunk()
	a := chunkAccess{c}
	var q Queue
	for y := 63; y >= 10; y-- {
		c.SetBlock(8, y, 8, 0)
		q.Push(Pos{8, y, 8})
	}
	for x := 9; x <= 14; x++ {
		c.SetBlock(x, 10, 8, 0)
		q.Push(Pos{x, 10, 8})
	}
	drain(t, a, &q)

	for x := 9; x <= 14; x++ {
		assert.Equal(t, uint8(MaxLight-(x-8)), c.SkyLight(x, 10, 8), "x=%d", x)
	}

	// recomputing every open cell changes nothing
	before := snapshot(c)
	for y := 63; y >= 10; y-- {
		q.Push(Pos{8, y, 8})
	}
	for x := 9; x <= 14; x++ {
		q.Push(Pos{x, 10, 8})
	}
	drain(t, a, &q)
	assert.Equal(t, before, snapshot(c))
}

func snapshot(c *chunk.Chunk) [chunk.SectionCount][]byte {
	var out [chunk.SectionCount][]byte
	for i := range out {
		if s := c.Section(i); s != nil {
			out[i] = append([]byte(nil), s.SkyLight[:]...)
		}
	}
	return out
}

func TestOpaquePositionIsSkipped(t *testing.T) {
	c := groundChunk()
	a := chunkAccess{c}
	var q Queue
	q.Push(Pos{3, 30, 3})

	n := Propagate(a, block.Default(), &q, DefaultBudget)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint8(0), c.SkyLight(3, 30, 3))
	assert.Zero(t, q.Len())
}

func TestBudgetLeavesRemainderQueued(t *testing.T) {
	c := groundChunk()
	a := chunkAccess{c}
	var q Queue
	for y := 63; y > 40; y-- {
		c.SetBlock(8, y, 8, 0)
		q.Push(Pos{8, y, 8})
	}

	n := Propagate(a, block.Default(), &q, 5)
	assert.Equal(t, 5, n)
	assert.Greater(t, q.Len(), 0)

	drain(t, a, &q)
	assert.Equal(t, uint8(MaxLight), c.SkyLight(8, 41, 8))
}

func TestUnloadedNeighbourReadsFullAndIsNotQueued(t *testing.T) {
	c := groundChunk()
	a := chunkAccess{c}
	var q Queue

	// pocket at the west edge, walled in except toward x=-1
	c.SetBlock(0, 20, 5, 0)
	q.Push(Pos{0, 20, 5})
	n := Propagate(a, block.Default(), &q, DefaultBudget)

	assert.Equal(t, 1, n)
	assert.Equal(t, uint8(MaxLight-1), c.SkyLight(0, 20, 5))
	assert.Zero(t, q.Len())
}

func TestOutOfWorldPositionsAreIgnored(t *testing.T) {
	c := chunk.New(chunk.Pos{})
	a := chunkAccess{c}
	var q Queue
	q.Push(Pos{0, -1, 0})
	q.Push(Pos{0, 256, 0})
	q.Push(Pos{-5, 10, 0})

	assert.Equal(t, 3, Propagate(a, block.Default(), &q, DefaultBudget))
	assert.Equal(t, uint16(0), c.Bitmap())
}

func TestTopOfWorldSeesSky(t *testing.T) {
	c := chunk.New(chunk.Pos{})
	a := chunkAccess{c}
	c.SetSkyLight(4, 255, 4, 0)

	var q Queue
	q.Push(Pos{4, 255, 4})
	drain(t, a, &q)
	assert.Equal(t, uint8(MaxLight), c.SkyLight(4, 255, 4))
}

func TestGlassKeepsShaftLitAcrossReload(t *testing.T) {
	const glass = 230
	reg := block.Default()

	c := groundChunk()
	var q Queue
	c.SetBlock(8, 80, 8, glass)
	q.Push(Pos{8, 80, 8})
	drain(t, chunkAccess{c}, &q)
	live := c.SkyLight(8, 70, 8)
	require.Equal(t, uint8(MaxLight), live)

	reloaded, err := nw1.DecodeChunk(c.Pos(), nw1.EncodeChunk(c))
	require.NoError(t, err)
	reloaded.ComputeInitialLighting(reg)
	assert.Equal(t, live, reloaded.SkyLight(8, 70, 8))
	assert.Equal(t, uint8(MaxLight), reloaded.SkyLight(8, 80, 8))

	// the seeded light is already what the propagator settles on
	q.Push(Pos{8, 70, 8})
	q.Push(Pos{8, 80, 8})
	Propagate(chunkAccess{reloaded}, reg, &q, DefaultBudget)
	assert.Equal(t, live, reloaded.SkyLight(8, 70, 8))
	assert.Equal(t, uint8(MaxLight), reloaded.SkyLight(8, 80, 8))
	assert.Zero(t, q.Len())
}
