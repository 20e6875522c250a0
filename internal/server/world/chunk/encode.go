package chunk

import (
	"bytes"
	"fmt"
	"math/bits"

	mcnet "github.com/OCharnyshevich/voxel-server/internal/server/net"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/bitpack"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nbt"
)

// ChunkDataPacketID is the clientbound Chunk Data packet id (protocol 498).
const ChunkDataPacketID = 0x22

const (
	heightMapBits = 9
	heightMapName = "MOTION_BLOCKING"
	biomeBytes    = Width * Width * 4
)

// encodedSection is a section ready to be written. size is its exact length
// on the wire.
type encodedSection struct {
	nonAir  uint16
	bits    uint
	palette []uint16
	words   []uint64
	size    int
}

func encodeSection(s *Section) encodedSection {
	p := NewPalette(&s.IDs)
	es := encodedSection{
		nonAir: uint16(s.NonAir()),
		bits:   BitsPerBlock(p.Len()),
	}

	values := make([]uint16, SectionVolume)
	if Indirect(es.bits) {
		es.palette = p.IDs
		for i, id := range s.IDs {
			values[i], _ = p.Index(id)
		}
	} else {
		// raw ids; the width must still fit the largest one
		if w := uint(bits.Len16(p.MaxID())); w > es.bits {
			es.bits = w
		}
		copy(values, s.IDs[:])
	}
	es.words = bitpack.Pack(values, es.bits)

	es.size = 2 + 1
	if es.palette != nil {
		es.size += mcnet.VarIntSize(int32(len(es.palette)))
		for _, id := range es.palette {
			es.size += mcnet.VarIntSize(int32(id))
		}
	}
	es.size += mcnet.VarIntSize(int32(len(es.words))) + 8*len(es.words)
	return es
}

func (es *encodedSection) writeTo(b *mcnet.Buffer) {
	b.PutU16(es.nonAir)
	b.PutU8(uint8(es.bits))
	if es.palette != nil {
		b.PutVarInt(int32(len(es.palette)))
		for _, id := range es.palette {
			b.PutVarInt(int32(id))
		}
	}
	b.PutVarInt(int32(len(es.words)))
	for _, w := range es.words {
		b.PutU64(w)
	}
}

// HeightMapWords packs top_y+1 for every column at 9 bits, index z*16 + x.
func (c *Chunk) HeightMapWords() []uint64 {
	hm := c.HeightMap()
	vals := make([]int, len(hm))
	for i, h := range hm {
		vals[i] = h + 1
	}
	return bitpack.Pack(vals, heightMapBits)
}

func (c *Chunk) writeHeightMap(b *mcnet.Buffer) {
	var blob bytes.Buffer
	w := nbt.NewWriter(&blob)
	w.BeginCompound("")
	w.WriteLongArray(heightMapName, c.HeightMapWords())
	w.EndCompound()
	if err := w.Err(); err != nil {
		// bytes.Buffer does not fail
		panic(err)
	}
	b.PutBytes(blob.Bytes())
}

// DataSize returns the value of the data length field EncodeChunkData
// declares for c: every present section plus the biome array.
func (c *Chunk) DataSize() int {
	n := biomeBytes
	for i := 0; i < SectionCount; i++ {
		if s := c.Section(i); s != nil {
			es := encodeSection(s)
			n += es.size
		}
	}
	return n
}

// EncodeChunkData builds the body of a full Chunk Data packet, packet id
// included and length prefix excluded.
//
// The data length is computed from the encoded sections before they are
// written. If the two ever disagree the encoder is broken and it panics.
func EncodeChunkData(c *Chunk) []byte {
	var sections []encodedSection
	dataLen := biomeBytes
	for i := 0; i < SectionCount; i++ {
		s := c.Section(i)
		if s == nil {
			continue
		}
		es := encodeSection(s)
		dataLen += es.size
		sections = append(sections, es)
	}

	b := mcnet.NewBuffer(dataLen + 512)
	b.PutVarInt(ChunkDataPacketID)
	b.PutI32(c.pos.X)
	b.PutI32(c.pos.Z)
	b.PutBool(true)
	b.PutVarInt(int32(c.bitmap))
	c.writeHeightMap(b)
	b.PutVarInt(int32(dataLen))

	start := b.Len()
	for i := range sections {
		sections[i].writeTo(b)
	}
	for _, biome := range c.biomes {
		b.PutI32(biome)
	}
	if written := b.Len() - start; written != dataLen {
		panic(fmt.Sprintf("chunk %s: declared data length %d, wrote %d", c.pos, dataLen, written))
	}

	// block entities
	b.PutVarInt(0)
	return b.Bytes()
}
