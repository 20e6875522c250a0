// Package chunk implements the in-memory voxel column and its wire encoding.
package chunk

import "fmt"

// DefaultBiome is the biome every column starts with (plains).
const DefaultBiome = 1

// Pos identifies a chunk column by its chunk coordinates.
type Pos struct {
	X, Z int32
}

func (p Pos) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Z)
}

// PosOf returns the chunk holding the block at world coordinates (x, z).
func PosOf(x, z int) Pos {
	return Pos{X: int32(x >> 4), Z: int32(z >> 4)}
}

// Chunk is a 16×256×16 column. All sixteen sections are allocated up front;
// the section bitmap decides which of them carry data. A section joins the
// bitmap on its first write.
type Chunk struct {
	pos      Pos
	sections [SectionCount]Section
	bitmap   uint16
	biomes   [Width * Width]int32
	dirty    bool
}

// New returns an empty chunk at pos with no sections present.
func New(pos Pos) *Chunk {
	c := &Chunk{pos: pos}
	for i := range c.biomes {
		c.biomes[i] = DefaultBiome
	}
	return c
}

func (c *Chunk) Pos() Pos { return c.pos }

// Bitmap returns the set of present sections, bit i for section i.
func (c *Chunk) Bitmap() uint16 { return c.bitmap }

func (c *Chunk) HasSection(i int) bool {
	return i >= 0 && i < SectionCount && c.bitmap&(1<<i) != 0
}

// Section returns section i, or nil if it is absent.
func (c *Chunk) Section(i int) *Section {
	if !c.HasSection(i) {
		return nil
	}
	return &c.sections[i]
}

// LoadSection makes section i present with the given ids and default light.
func (c *Chunk) LoadSection(i int, ids *[SectionVolume]uint16) {
	s := c.activate(i)
	s.IDs = *ids
	c.dirty = true
}

func (c *Chunk) activate(i int) *Section {
	s := &c.sections[i]
	if c.bitmap&(1<<i) == 0 {
		s.reset()
		c.bitmap |= 1 << i
	}
	return s
}

// Dirty reports whether the chunk changed since it was last persisted.
func (c *Chunk) Dirty() bool { return c.dirty }

func (c *Chunk) MarkDirty() { c.dirty = true }

// MarkClean is called after a successful save.
func (c *Chunk) MarkClean() { c.dirty = false }

// InBounds reports whether local coordinates address a cell of the column.
func InBounds(x, y, z int) bool {
	return x >= 0 && x < Width && z >= 0 && z < Width && y >= 0 && y < Height
}

// Block returns the id at (x, y, z), or 0 when out of range or the section is absent.
func (c *Chunk) Block(x, y, z int) uint16 {
	if !InBounds(x, y, z) {
		return 0
	}
	return c.BlockUnchecked(x, y, z)
}

// BlockUnchecked is Block without the range check.
func (c *Chunk) BlockUnchecked(x, y, z int) uint16 {
	if c.bitmap&(1<<(y>>4)) == 0 {
		return 0
	}
	return c.sections[y>>4].IDs[Index(x, y, z)]
}

// SetBlock writes id at (x, y, z). Out-of-range writes are ignored.
func (c *Chunk) SetBlock(x, y, z int, id uint16) {
	if !InBounds(x, y, z) {
		return
	}
	c.SetBlockUnchecked(x, y, z, id)
}

func (c *Chunk) SetBlockUnchecked(x, y, z int, id uint16) {
	c.activate(y >> 4).IDs[Index(x, y, z)] = id
	c.dirty = true
}

// SkyLight returns the sky light at (x, y, z). Absent sections read as full
// sky light; out-of-range reads return 0.
func (c *Chunk) SkyLight(x, y, z int) uint8 {
	if !InBounds(x, y, z) {
		return 0
	}
	return c.SkyLightUnchecked(x, y, z)
}

func (c *Chunk) SkyLightUnchecked(x, y, z int) uint8 {
	if c.bitmap&(1<<(y>>4)) == 0 {
		return MaxLight
	}
	return getNibble(&c.sections[y>>4].SkyLight, Index(x, y, z))
}

// SetSkyLight writes v, clamped to 15. Out-of-range writes and writes that
// leave the value unchanged are ignored, so an absent section stays absent.
func (c *Chunk) SetSkyLight(x, y, z int, v uint8) {
	if !InBounds(x, y, z) {
		return
	}
	c.SetSkyLightUnchecked(x, y, z, v)
}

func (c *Chunk) SetSkyLightUnchecked(x, y, z int, v uint8) {
	v = min(v, MaxLight)
	if c.SkyLightUnchecked(x, y, z) == v {
		return
	}
	setNibble(&c.activate(y>>4).SkyLight, Index(x, y, z), v)
	c.dirty = true
}

func (c *Chunk) BlockLight(x, y, z int) uint8 {
	if !InBounds(x, y, z) {
		return 0
	}
	return c.BlockLightUnchecked(x, y, z)
}

func (c *Chunk) BlockLightUnchecked(x, y, z int) uint8 {
	if c.bitmap&(1<<(y>>4)) == 0 {
		return 0
	}
	return getNibble(&c.sections[y>>4].BlockLight, Index(x, y, z))
}

func (c *Chunk) SetBlockLight(x, y, z int, v uint8) {
	if !InBounds(x, y, z) {
		return
	}
	c.SetBlockLightUnchecked(x, y, z, v)
}

func (c *Chunk) SetBlockLightUnchecked(x, y, z int, v uint8) {
	v = min(v, MaxLight)
	if c.BlockLightUnchecked(x, y, z) == v {
		return
	}
	setNibble(&c.activate(y>>4).BlockLight, Index(x, y, z), v)
	c.dirty = true
}

// Biome returns the biome id of column (x, z).
func (c *Chunk) Biome(x, z int) int32 {
	if x < 0 || x >= Width || z < 0 || z >= Width {
		return 0
	}
	return c.biomes[z*Width+x]
}

func (c *Chunk) SetBiome(x, z int, biome int32) {
	if x < 0 || x >= Width || z < 0 || z >= Width {
		return
	}
	c.biomes[z*Width+x] = biome
	c.dirty = true
}

// CountNonAir returns the number of non-air cells in section i, 0 if absent.
func (c *Chunk) CountNonAir(i int) int {
	s := c.Section(i)
	if s == nil {
		return 0
	}
	return s.NonAir()
}
