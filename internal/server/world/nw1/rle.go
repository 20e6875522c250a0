package nw1

import (
	"encoding/binary"
	"fmt"
)

// Element is an array element type the run-length codec handles.
type Element interface {
	~uint8 | ~uint16 | ~uint32
}

func isByte[T Element]() bool {
	var max T
	max--
	return uint64(max) == 0xFF
}

func appendValue[T Element](dst []byte, v T) []byte {
	if isByte[T]() {
		return append(dst, byte(v))
	}
	return binary.AppendUvarint(dst, uint64(v))
}

// AppendRLE appends src as (run length, value) pairs. Run lengths are
// unsigned LEB128 varints. Values are varints too, except for byte arrays
// where each value is a single raw byte.
func AppendRLE[T Element](dst []byte, src []T) []byte {
	if len(src) == 0 {
		return dst
	}
	ref := src[0]
	run := uint64(1)
	for _, v := range src[1:] {
		if v == ref {
			run++
			continue
		}
		dst = binary.AppendUvarint(dst, run)
		dst = appendValue(dst, ref)
		ref, run = v, 1
	}
	dst = binary.AppendUvarint(dst, run)
	return appendValue(dst, ref)
}

// DecodeRLE fills dst from src and returns the number of bytes consumed.
// The stream has no terminator; decoding stops once dst is full.
func DecodeRLE[T Element](dst []T, src []byte) (int, error) {
	pos, out := 0, 0
	for out < len(dst) {
		run, n := binary.Uvarint(src[pos:])
		if n <= 0 {
			return pos, fmt.Errorf("%w: bad run length at byte %d", ErrCorrupt, pos)
		}
		pos += n
		if run == 0 || run > uint64(len(dst)-out) {
			return pos, fmt.Errorf("%w: run of %d at element %d overflows %d", ErrCorrupt, run, out, len(dst))
		}

		var v T
		if isByte[T]() {
			if pos >= len(src) {
				return pos, fmt.Errorf("%w: missing value at byte %d", ErrCorrupt, pos)
			}
			v = T(src[pos])
			pos++
		} else {
			raw, n := binary.Uvarint(src[pos:])
			if n <= 0 || uint64(T(raw)) != raw {
				return pos, fmt.Errorf("%w: bad value at byte %d", ErrCorrupt, pos)
			}
			v = T(raw)
			pos += n
		}

		for i := out; i < out+int(run); i++ {
			dst[i] = v
		}
		out += int(run)
	}
	return pos, nil
}
