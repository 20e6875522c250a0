package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrVarIntTooLong is returned when a varint does not terminate within its maximum width.
var ErrVarIntTooLong = errors.New("varint too long")

// MaxStringLength is the largest string payload accepted from a peer, in bytes.
const MaxStringLength = 32767 * 4

func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var numRead int
	buf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, numRead, err
		}
		numRead++

		result |= uint32(buf[0]&0x7F) << (7 * (numRead - 1))

		if buf[0]&0x80 == 0 {
			break
		}

		if numRead >= 5 {
			return 0, numRead, ErrVarIntTooLong
		}
	}

	return int32(result), numRead, nil
}

// DecodeVarInt decodes a varint from the front of buf and returns the value and
// the number of bytes consumed.
func DecodeVarInt(buf []byte) (int32, int, error) {
	var result uint32
	for i := 0; i < 5; i++ {
		if i >= len(buf) {
			return 0, i, io.ErrUnexpectedEOF
		}
		b := buf[i]
		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), i + 1, nil
		}
	}
	return 0, 5, ErrVarIntTooLong
}

func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [5]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

func PutVarInt(buf []byte, value int32) int {
	val := uint32(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			break
		}
	}
	return n
}

// AppendVarInt appends the varint encoding of value to buf.
func AppendVarInt(buf []byte, value int32) []byte {
	var tmp [5]byte
	n := PutVarInt(tmp[:], value)
	return append(buf, tmp[:n]...)
}

func VarIntSize(value int32) int {
	val := uint32(value)
	size := 0
	for {
		size++
		val >>= 7
		if val == 0 {
			break
		}
	}
	return size
}

// EncodePosition packs a block position as x:26 | z:26 | y:12.
func EncodePosition(x, y, z int) int64 {
	return (int64(x)&0x3FFFFFF)<<38 | (int64(z)&0x3FFFFFF)<<12 | int64(y)&0xFFF
}

func DecodePosition(val int64) (x, y, z int) {
	x = int(val >> 38)
	z = int((val >> 12) & 0x3FFFFFF)
	y = int(val & 0xFFF)

	if z >= 1<<25 {
		z -= 1 << 26
	}
	if y >= 1<<11 {
		y -= 1 << 12
	}
	return
}

func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	if length < 0 || length > MaxStringLength {
		return "", fmt.Errorf("string length out of range: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read string data: %w", err)
	}
	return string(buf), nil
}

func WriteString(w io.Writer, s string) (int, error) {
	n1, err := WriteVarInt(w, int32(len(s)))
	if err != nil {
		return n1, err
	}
	n2, err := w.Write([]byte(s))
	return n1 + n2, err
}

func ReadU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadU16(r io.Reader) (uint16, error) {
	var val uint16
	if err := binary.Read(r, binary.BigEndian, &val); err != nil {
		return 0, err
	}
	return val, nil
}

func ReadI32(r io.Reader) (int32, error) {
	var val int32
	if err := binary.Read(r, binary.BigEndian, &val); err != nil {
		return 0, err
	}
	return val, nil
}

func ReadI64(r io.Reader) (int64, error) {
	var val int64
	if err := binary.Read(r, binary.BigEndian, &val); err != nil {
		return 0, err
	}
	return val, nil
}

func ReadU64(r io.Reader) (uint64, error) {
	var val uint64
	if err := binary.Read(r, binary.BigEndian, &val); err != nil {
		return 0, err
	}
	return val, nil
}

func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadU8(r)
	return b != 0, err
}
