package chunk

import "math/bits"

// MaxIndirectBits is the widest palette index the indirect encoding uses.
// Sections needing more bits are sent with raw ids.
const MaxIndirectBits = 8

// Palette lists the distinct ids of a section in first-seen order.
type Palette struct {
	IDs   []uint16
	index map[uint16]uint16
	maxID uint16
}

// NewPalette builds the palette of ids.
func NewPalette(ids *[SectionVolume]uint16) *Palette {
	p := &Palette{index: make(map[uint16]uint16)}
	for _, id := range ids {
		if _, ok := p.index[id]; ok {
			continue
		}
		p.index[id] = uint16(len(p.IDs))
		p.IDs = append(p.IDs, id)
		if id > p.maxID {
			p.maxID = id
		}
	}
	return p
}

func (p *Palette) Len() int { return len(p.IDs) }

// Index returns the palette slot of id.
func (p *Palette) Index(id uint16) (uint16, bool) {
	i, ok := p.index[id]
	return i, ok
}

// MaxID returns the largest id in the palette.
func (p *Palette) MaxID() uint16 { return p.maxID }

// BitsPerBlock returns max(4, ceil(log2(n))) for a palette of n entries.
func BitsPerBlock(n int) uint {
	b := uint(0)
	if n > 1 {
		b = uint(bits.Len(uint(n - 1)))
	}
	if b < 4 {
		b = 4
	}
	return b
}

// Indirect reports whether a section at this width carries a palette.
func Indirect(bitsPerBlock uint) bool {
	return bitsPerBlock <= MaxIndirectBits
}
