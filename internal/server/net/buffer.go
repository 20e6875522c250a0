package net

import "encoding/binary"

// Buffer accumulates an outbound packet body in big-endian byte order.
// The zero value is ready to use.
type Buffer struct {
	buf []byte
}

// NewBuffer returns a Buffer with room for size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.buf) }

func (b *Buffer) PutBool(v bool) {
	if v {
		b.buf = append(b.buf, 1)
	} else {
		b.buf = append(b.buf, 0)
	}
}

func (b *Buffer) PutU8(v uint8) {
	b.buf = append(b.buf, v)
}

func (b *Buffer) PutU16(v uint16) {
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
}

func (b *Buffer) PutI32(v int32) {
	b.buf = binary.BigEndian.AppendUint32(b.buf, uint32(v))
}

func (b *Buffer) PutU64(v uint64) {
	b.buf = binary.BigEndian.AppendUint64(b.buf, v)
}

func (b *Buffer) PutVarInt(v int32) {
	b.buf = AppendVarInt(b.buf, v)
}

func (b *Buffer) PutPosition(x, y, z int) {
	b.PutU64(uint64(EncodePosition(x, y, z)))
}

func (b *Buffer) PutBytes(p []byte) {
	b.buf = append(b.buf, p...)
}

// Write implements io.Writer so encoders like the NBT writer can stream into a Buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
