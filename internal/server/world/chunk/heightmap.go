package chunk

// Opacity decides whether a block id stops sky light. A nil Opacity treats
// every non-air block as opaque.
type Opacity interface {
	IsOpaque(id uint16) bool
}

// Height returns the highest y in column (x, z) holding a non-air block,
// or -1 if the column is empty.
func (c *Chunk) Height(x, z int) int {
	return c.top(x, z, nil)
}

// LightHeight returns the highest y in column (x, z) whose block stops sky
// light, or -1 if light reaches the bottom of the world.
func (c *Chunk) LightHeight(x, z int, op Opacity) int {
	return c.top(x, z, op)
}

func (c *Chunk) top(x, z int, op Opacity) int {
	for sec := SectionCount - 1; sec >= 0; sec-- {
		if c.bitmap&(1<<sec) == 0 {
			continue
		}
		ids := &c.sections[sec].IDs
		for ly := Width - 1; ly >= 0; ly-- {
			id := ids[ly<<8|z<<4|x]
			if id == 0 {
				continue
			}
			if op == nil || op.IsOpaque(id) {
				return sec*Width + ly
			}
		}
	}
	return -1
}

// HeightMap returns Height for every column, indexed z*16 + x.
func (c *Chunk) HeightMap() [Width * Width]int {
	var hm [Width * Width]int
	for z := 0; z < Width; z++ {
		for x := 0; x < Width; x++ {
			hm[z*Width+x] = c.Height(x, z)
		}
	}
	return hm
}

// ComputeInitialLighting seeds sky light in every present section: full
// light above each column's LightHeight, none at or below it. op must be
// the same Opacity the light propagator uses.
func (c *Chunk) ComputeInitialLighting(op Opacity) {
	var hm [Width * Width]int
	for z := 0; z < Width; z++ {
		for x := 0; x < Width; x++ {
			hm[z*Width+x] = c.LightHeight(x, z, op)
		}
	}
	for sec := 0; sec < SectionCount; sec++ {
		if c.bitmap&(1<<sec) == 0 {
			continue
		}
		s := &c.sections[sec]
		for ly := 0; ly < Width; ly++ {
			y := sec*Width + ly
			for z := 0; z < Width; z++ {
				for x := 0; x < Width; x++ {
					var v uint8
					if y > hm[z*Width+x] {
						v = MaxLight
					}
					setNibble(&s.SkyLight, Index(x, y, z), v)
				}
			}
		}
	}
	c.dirty = true
}
