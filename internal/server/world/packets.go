package world

import "github.com/OCharnyshevich/voxel-server/internal/server/packet"

// BlockChangePacketID is the clientbound Block Change packet id.
const BlockChangePacketID = packet.BlockChangeID

// Broker delivers packet bodies (id included, length prefix excluded) to a
// client connection.
type Broker interface {
	SendPacket(body []byte)
}

func encodeBlockChange(pos BlockPos, id uint16) []byte {
	body, err := packet.Body(packet.BlockChange{
		Location: packet.Position{X: pos.X, Y: pos.Y, Z: pos.Z},
		BlockID:  int32(id),
	})
	if err != nil {
		// every field of BlockChange has a known tag
		panic(err)
	}
	return body
}
