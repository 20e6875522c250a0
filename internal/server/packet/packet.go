// Package packet describes fixed-layout packets as tagged structs and
// encodes them field by field. Packets with computed layouts, such as Chunk
// Data, are written by hand where they are built.
package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	mcnet "github.com/OCharnyshevich/voxel-server/internal/server/net"
)

const tagName = "mc"

// Packet is implemented by every tagged packet struct.
type Packet interface {
	PacketID() int32
}

// Marshal encodes the tagged fields of p, without the packet id.
func Marshal(p Packet) ([]byte, error) {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal: expected struct, got %s", v.Kind())
	}

	var buf bytes.Buffer
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		if err := writeField(&buf, tag, v.Field(i).Interface()); err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", field.Name, err)
		}
	}

	return buf.Bytes(), nil
}

// Body returns the packet id followed by the encoded fields, the form a
// Broker takes.
func Body(p Packet) ([]byte, error) {
	data, err := Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal packet 0x%02X: %w", p.PacketID(), err)
	}
	out := make([]byte, 0, mcnet.VarIntSize(p.PacketID())+len(data))
	out = mcnet.AppendVarInt(out, p.PacketID())
	return append(out, data...), nil
}

// Unmarshal decodes data into the tagged fields of p, which must be a pointer.
func Unmarshal(data []byte, p Packet) error {
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("unmarshal: expected non-nil pointer, got %T", p)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal: expected pointer to struct, got pointer to %s", v.Kind())
	}

	r := bytes.NewReader(data)
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		val, err := readField(r, tag)
		if err != nil {
			return fmt.Errorf("unmarshal field %s: %w", field.Name, err)
		}

		fv := v.Field(i)
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(fv.Type()) {
			return fmt.Errorf("unmarshal field %s: cannot assign %s to %s", field.Name, rv.Type(), fv.Type())
		}
		fv.Set(rv)
	}

	if r.Len() != 0 {
		return fmt.Errorf("unmarshal: %d trailing bytes", r.Len())
	}
	return nil
}

func writeField(w io.Writer, tag string, val any) error {
	switch tag {
	case "varint":
		_, err := mcnet.WriteVarInt(w, val.(int32))
		return err
	case "u8":
		return binary.Write(w, binary.BigEndian, val.(uint8))
	case "u16":
		return binary.Write(w, binary.BigEndian, val.(uint16))
	case "i32":
		return binary.Write(w, binary.BigEndian, val.(int32))
	case "bool":
		var b uint8
		if val.(bool) {
			b = 1
		}
		return binary.Write(w, binary.BigEndian, b)
	case "string":
		_, err := mcnet.WriteString(w, val.(string))
		return err
	case "position":
		p := val.(Position)
		return binary.Write(w, binary.BigEndian, mcnet.EncodePosition(p.X, p.Y, p.Z))
	default:
		return fmt.Errorf("unknown field tag: %q", tag)
	}
}

func readField(r io.Reader, tag string) (any, error) {
	switch tag {
	case "varint":
		v, _, err := mcnet.ReadVarInt(r)
		return v, err
	case "u8":
		return mcnet.ReadU8(r)
	case "u16":
		return mcnet.ReadU16(r)
	case "i32":
		return mcnet.ReadI32(r)
	case "bool":
		return mcnet.ReadBool(r)
	case "string":
		return mcnet.ReadString(r)
	case "position":
		v, err := mcnet.ReadI64(r)
		if err != nil {
			return nil, err
		}
		x, y, z := mcnet.DecodePosition(v)
		return Position{X: x, Y: y, Z: z}, nil
	default:
		return nil, fmt.Errorf("unknown field tag: %q", tag)
	}
}
