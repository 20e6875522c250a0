// Package bitpack packs small unsigned integers into a contiguous MSB-first
// bit stream of 64-bit words.
//
// Values are written most significant bit first. A value that does not fit in
// the space left in the current word is split: its high bits finish the word
// and its low bits start the next one. A trailing partial word is emitted
// right-aligned, so packing [1, 2, 3] at 4 bits yields the single word 0x123.
package bitpack

import (
	"errors"
	"fmt"
)

// MaxBits is the widest element Pack and Unpack accept.
const MaxBits = 32

// ErrLength is returned by Unpack when the word count does not match the element count.
var ErrLength = errors.New("bitpack: word count does not match element count")

// Integer is the set of element types that can be packed.
type Integer interface {
	~uint8 | ~uint16 | ~uint32 | ~int | ~int32
}

// Words returns the number of 64-bit words needed to hold n elements of the given width.
func Words(n int, bits uint) int {
	return (n*int(bits) + 63) / 64
}

// Pack packs in at bits per element. Elements wider than bits are masked.
// It panics if bits is outside [1, MaxBits].
func Pack[T Integer](in []T, bits uint) []uint64 {
	if bits == 0 || bits > MaxBits {
		panic(fmt.Sprintf("bitpack: invalid width %d", bits))
	}

	out := make([]uint64, 0, Words(len(in), bits))
	mask := uint64(1)<<bits - 1

	var cur uint64
	var used uint
	for _, v := range in {
		val := uint64(v) & mask

		take := bits
		if 64-used < take {
			take = 64 - used
		}
		rest := bits - take

		cur = cur<<take | val>>rest
		used += take
		if used == 64 {
			out = append(out, cur)
			cur = val & (uint64(1)<<rest - 1)
			used = rest
		}
	}
	if used > 0 {
		out = append(out, cur)
	}
	return out
}

// Unpack reverses Pack, filling dst with len(dst) elements read from words.
func Unpack[T Integer](dst []T, words []uint64, bits uint) error {
	if bits == 0 || bits > MaxBits {
		return fmt.Errorf("bitpack: invalid width %d", bits)
	}
	if len(words) != Words(len(dst), bits) {
		return fmt.Errorf("%w: have %d words, want %d", ErrLength, len(words), Words(len(dst), bits))
	}

	total := len(dst) * int(bits)
	r := reader{words: words, full: total / 64, tail: uint(total % 64)}
	for i := range dst {
		dst[i] = T(r.read(bits))
	}
	return nil
}

// reader walks the packed stream. cur holds the unread bits left-aligned.
type reader struct {
	words []uint64
	full  int
	tail  uint
	idx   int
	cur   uint64
	avail uint
}

func (r *reader) load() {
	w := r.words[r.idx]
	if r.idx < r.full {
		r.cur, r.avail = w, 64
	} else {
		r.cur, r.avail = w<<(64-r.tail), r.tail
	}
	r.idx++
}

func (r *reader) read(bits uint) uint64 {
	var v uint64
	for bits > 0 {
		if r.avail == 0 {
			r.load()
		}
		take := bits
		if r.avail < take {
			take = r.avail
		}
		v = v<<take | r.cur>>(64-take)
		r.cur <<= take
		r.avail -= take
		bits -= take
	}
	return v
}
