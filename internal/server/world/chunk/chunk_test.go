package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, Index(0, 0, 0))
	assert.Equal(t, 1, Index(1, 0, 0))
	assert.Equal(t, 16, Index(0, 0, 1))
	assert.Equal(t, 256, Index(0, 1, 0))
	assert.Equal(t, 256, Index(0, 17, 0))
	assert.Equal(t, 4095, Index(15, 15, 15))
}

func TestNewChunkIsEmpty(t *testing.T) {
	c := New(Pos{X: 3, Z: -2})
	assert.Equal(t, Pos{X: 3, Z: -2}, c.Pos())
	assert.Equal(t, uint16(0), c.Bitmap())
	assert.False(t, c.Dirty())
	assert.Equal(t, int32(DefaultBiome), c.Biome(5, 5))
	assert.Nil(t, c.Section(0))

	assert.Equal(t, uint16(0), c.Block(1, 100, 1))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(1, 100, 1))
	assert.Equal(t, uint8(0), c.BlockLight(1, 100, 1))
}

func TestOutOfRangeAccess(t *testing.T) {
	c := New(Pos{})

	coords := [][3]int{
		{-1, 0, 0}, {16, 0, 0},
		{0, -1, 0}, {0, 256, 0},
		{0, 0, -1}, {0, 0, 16},
	}
	for _, p := range coords {
		c.SetBlock(p[0], p[1], p[2], 7)
		c.SetSkyLight(p[0], p[1], p[2], 3)
		c.SetBlockLight(p[0], p[1], p[2], 3)
		assert.Equal(t, uint16(0), c.Block(p[0], p[1], p[2]), "%v", p)
		assert.Equal(t, uint8(0), c.SkyLight(p[0], p[1], p[2]), "%v", p)
		assert.Equal(t, uint8(0), c.BlockLight(p[0], p[1], p[2]), "%v", p)
	}
	assert.Equal(t, uint16(0), c.Bitmap())
	assert.False(t, c.Dirty())
}

func TestSectionBecomesPresentOnFirstWrite(t *testing.T) {
	c := New(Pos{})

	c.SetSkyLight(4, 40, 4, 3)
	assert.True(t, c.HasSection(2))
	assert.Equal(t, uint16(1<<2), c.Bitmap())
	assert.True(t, c.Dirty())

	assert.Equal(t, uint8(3), c.SkyLight(4, 40, 4))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(5, 40, 4), "fresh section keeps full sky light")
	assert.Equal(t, uint16(0), c.Block(4, 40, 4))
	assert.Equal(t, uint8(0), c.BlockLight(4, 40, 4))

	c.SetBlock(0, 255, 0, 1)
	assert.Equal(t, uint16(1<<2|1<<15), c.Bitmap())
	assert.Equal(t, uint16(1), c.Block(0, 255, 0))
}

func TestUnchangedLightWriteLeavesChunkAlone(t *testing.T) {
	c := New(Pos{})
	c.SetSkyLight(4, 100, 4, MaxLight)
	c.SetSkyLight(4, 100, 5, 40)
	c.SetBlockLight(4, 100, 4, 0)
	assert.Equal(t, uint16(0), c.Bitmap())
	assert.False(t, c.Dirty())

	c.SetBlock(4, 100, 4, 1)
	c.MarkClean()
	c.SetSkyLight(4, 100, 4, MaxLight)
	c.SetBlockLight(4, 100, 4, 0)
	assert.False(t, c.Dirty())

	c.SetSkyLight(4, 100, 4, 7)
	assert.True(t, c.Dirty())
	assert.Equal(t, uint8(7), c.SkyLight(4, 100, 4))
}

func TestNibblesAreIndependent(t *testing.T) {
	c := New(Pos{})
	c.SetBlockLight(0, 0, 0, 9)
	c.SetBlockLight(1, 0, 0, 4)
	c.SetSkyLight(0, 0, 0, 2)
	c.SetSkyLight(1, 0, 0, 12)

	assert.Equal(t, uint8(9), c.BlockLight(0, 0, 0))
	assert.Equal(t, uint8(4), c.BlockLight(1, 0, 0))
	assert.Equal(t, uint8(2), c.SkyLight(0, 0, 0))
	assert.Equal(t, uint8(12), c.SkyLight(1, 0, 0))

	s := c.Section(0)
	require.NotNil(t, s)
	assert.Equal(t, byte(0x49), s.BlockLight[0])
	assert.Equal(t, byte(0xC2), s.SkyLight[0])
}

func TestLightIsClamped(t *testing.T) {
	c := New(Pos{})
	c.SetSkyLight(2, 2, 2, 200)
	assert.Equal(t, uint8(MaxLight), c.SkyLight(2, 2, 2))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(3, 2, 2))
}

func TestMarkClean(t *testing.T) {
	c := New(Pos{})
	c.SetBlock(0, 0, 0, 1)
	require.True(t, c.Dirty())
	c.MarkClean()
	assert.False(t, c.Dirty())
	c.SetBiome(0, 0, 4)
	assert.True(t, c.Dirty())
}

func TestCountNonAir(t *testing.T) {
	c := New(Pos{})
	assert.Equal(t, 0, c.CountNonAir(0))

	c.SetBlock(0, 0, 0, 1)
	c.SetBlock(1, 0, 0, 1)
	c.SetBlock(2, 0, 0, 0)
	c.SetBlock(0, 16, 0, 5)
	assert.Equal(t, 2, c.CountNonAir(0))
	assert.Equal(t, 1, c.CountNonAir(1))
	assert.Equal(t, 0, c.CountNonAir(2))
}

func TestLoadSection(t *testing.T) {
	var ids [SectionVolume]uint16
	for i := range ids {
		ids[i] = uint16(i % 3)
	}

	c := New(Pos{})
	c.LoadSection(5, &ids)
	require.True(t, c.HasSection(5))
	assert.Equal(t, ids, c.Section(5).IDs)
	assert.Equal(t, uint8(MaxLight), c.SkyLight(0, 80, 0))
}

func TestHeightMap(t *testing.T) {
	c := New(Pos{})
	assert.Equal(t, -1, c.Height(0, 0))

	c.SetBlock(3, 0, 7, 1)
	c.SetBlock(3, 70, 7, 1)
	c.SetBlock(4, 255, 4, 2)
	// light-only section with no blocks does not raise the height
	c.SetSkyLight(9, 200, 9, 0)

	assert.Equal(t, 70, c.Height(3, 7))
	assert.Equal(t, 255, c.Height(4, 4))
	assert.Equal(t, -1, c.Height(9, 9))

	hm := c.HeightMap()
	assert.Equal(t, 70, hm[7*16+3])
	assert.Equal(t, -1, hm[0])

	c.SetSkyLight(3, 71, 7, 0)
	c.SetBlockLight(3, 72, 7, 15)
	assert.Equal(t, 70, c.Height(3, 7), "light does not affect height")
}

func TestComputeInitialLighting(t *testing.T) {
	c := New(Pos{})
	for x := 0; x < Width; x++ {
		for z := 0; z < Width; z++ {
			c.SetBlock(x, 0, z, 1)
			c.SetBlock(x, 20, z, 1)
		}
	}
	c.SetBlock(5, 30, 5, 1)
	c.ComputeInitialLighting(nil)

	assert.Equal(t, uint8(0), c.SkyLight(0, 0, 0))
	assert.Equal(t, uint8(0), c.SkyLight(0, 10, 0))
	assert.Equal(t, uint8(0), c.SkyLight(0, 20, 0))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(0, 21, 0))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(0, 31, 0))

	assert.Equal(t, uint8(0), c.SkyLight(5, 25, 5), "under the overhang")
	assert.Equal(t, uint8(MaxLight), c.SkyLight(5, 31, 5))

	// absent sections are untouched and still read full
	assert.False(t, c.HasSection(10))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(0, 170, 0))
}

// clearIDs lets light through the listed ids.
type clearIDs map[uint16]bool

func (c clearIDs) IsOpaque(id uint16) bool { return id != 0 && !c[id] }

func TestLightHeightSkipsClearBlocks(t *testing.T) {
	c := New(Pos{})
	c.SetBlock(2, 40, 2, 1)
	c.SetBlock(2, 90, 2, 230)
	op := clearIDs{230: true}

	assert.Equal(t, 90, c.Height(2, 2))
	assert.Equal(t, 40, c.LightHeight(2, 2, op))
	assert.Equal(t, 90, c.LightHeight(2, 2, nil))

	c.ComputeInitialLighting(op)
	assert.Equal(t, uint8(MaxLight), c.SkyLight(2, 90, 2))
	assert.Equal(t, uint8(MaxLight), c.SkyLight(2, 45, 2))
	assert.Equal(t, uint8(0), c.SkyLight(2, 40, 2))

	c.ComputeInitialLighting(nil)
	assert.Equal(t, uint8(0), c.SkyLight(2, 45, 2))
}

func TestBitsPerBlock(t *testing.T) {
	tests := []struct {
		distinct int
		want     uint
	}{
		{0, 4},
		{1, 4},
		{2, 4},
		{16, 4},
		{17, 5},
		{32, 5},
		{33, 6},
		{256, 8},
		{257, 9},
		{4096, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BitsPerBlock(tt.distinct), "distinct=%d", tt.distinct)
	}
	assert.True(t, Indirect(8))
	assert.False(t, Indirect(9))
}

func TestPaletteFirstSeenOrder(t *testing.T) {
	var ids [SectionVolume]uint16
	ids[0] = 9
	ids[1] = 3
	ids[2] = 9
	ids[3] = 0

	p := NewPalette(&ids)
	assert.Equal(t, []uint16{9, 3, 0}, p.IDs)
	assert.Equal(t, uint16(9), p.MaxID())

	i, ok := p.Index(0)
	require.True(t, ok)
	assert.Equal(t, uint16(2), i)

	_, ok = p.Index(4)
	assert.False(t, ok)
}
