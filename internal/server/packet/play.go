package packet

// BlockChangeID is the clientbound Block Change packet id (protocol 498).
const BlockChangeID = 0x0B

// Position is a block position, packed on the wire as x:26 z:26 y:12.
type Position struct {
	X, Y, Z int
}

// BlockChange tells clients one block changed (clientbound 0x0B).
type BlockChange struct {
	Location Position `mc:"position"`
	BlockID  int32    `mc:"varint"`
}

func (BlockChange) PacketID() int32 { return BlockChangeID }
