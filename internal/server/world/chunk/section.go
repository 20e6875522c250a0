package chunk

const (
	Width         = 16
	Height        = 256
	SectionCount  = Height / Width
	SectionVolume = Width * Width * Width
	MaxLight      = 15

	nibbleBytes = SectionVolume / 2
)

// Section is a 16×16×16 cube of block ids with its block and sky light.
// Light is stored as nibbles, two cells per byte, even index in the low half.
type Section struct {
	IDs        [SectionVolume]uint16
	BlockLight [nibbleBytes]byte
	SkyLight   [nibbleBytes]byte
}

// Index returns the position of (x, y, z) inside a section. Only the low
// four bits of y are used.
func Index(x, y, z int) int {
	return (y&0xF)<<8 | z<<4 | x
}

// reset puts the section back to its freshly created state: all air, no
// block light, full sky light.
func (s *Section) reset() {
	clear(s.IDs[:])
	clear(s.BlockLight[:])
	for i := range s.SkyLight {
		s.SkyLight[i] = 0xFF
	}
}

// NonAir counts the cells holding anything but air.
func (s *Section) NonAir() int {
	n := 0
	for _, id := range s.IDs {
		if id != 0 {
			n++
		}
	}
	return n
}

func getNibble(arr *[nibbleBytes]byte, i int) uint8 {
	b := arr[i>>1]
	if i&1 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

func setNibble(arr *[nibbleBytes]byte, i int, v uint8) {
	if v > MaxLight {
		v = MaxLight
	}
	p := &arr[i>>1]
	if i&1 == 0 {
		*p = *p&0xF0 | v
	} else {
		*p = *p&0x0F | v<<4
	}
}
