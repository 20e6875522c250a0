package net

import (
	"bytes"
	"fmt"
	"io"
)

// MaxPacketLength bounds inbound frames.
const MaxPacketLength = 1 << 21

func ReadRawPacket(r io.Reader) (packetID int32, data []byte, err error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return 0, nil, fmt.Errorf("read packet length: %w", err)
	}
	if length < 1 {
		return 0, nil, fmt.Errorf("packet length too small: %d", length)
	}
	if length > MaxPacketLength {
		return 0, nil, fmt.Errorf("packet too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read packet payload: %w", err)
	}

	packetID, n, err := DecodeVarInt(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("read packet ID: %w", err)
	}
	return packetID, payload[n:], nil
}

func WriteRawPacket(w io.Writer, packetID int32, data []byte) error {
	idSize := VarIntSize(packetID)
	totalLen := idSize + len(data)

	var buf bytes.Buffer
	buf.Grow(VarIntSize(int32(totalLen)) + totalLen)

	if _, err := WriteVarInt(&buf, int32(totalLen)); err != nil {
		return fmt.Errorf("write packet length: %w", err)
	}
	if _, err := WriteVarInt(&buf, packetID); err != nil {
		return fmt.Errorf("write packet ID: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write packet data: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("flush packet: %w", err)
	}
	return nil
}

// Frame prefixes body (which already starts with the packet id) with its varint length.
func Frame(body []byte) []byte {
	out := make([]byte, 0, VarIntSize(int32(len(body)))+len(body))
	out = AppendVarInt(out, int32(len(body)))
	return append(out, body...)
}
