package nw1

import (
	"fmt"

	"github.com/willf/bitset"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

// Report summarizes how the pages of a store are used.
type Report struct {
	Pages     uint32
	Directory int
	Chunks    int
	// Live pages hold payload bytes within their chunk's declared length.
	Live int
	// Slack pages are still linked to a chain but lie past its length,
	// left behind when a chunk shrank.
	Slack int
	// Dead pages are referenced by nothing.
	Dead int
	// Corrupt lists chunks whose chains are broken or overlap another chain.
	Corrupt map[chunk.Pos]error
}

// Check walks the directory and every payload chain.
func (s *Store) Check() (*Report, error) {
	if s.f == nil {
		return nil, ErrClosed
	}

	used := bitset.New(uint(s.pages))
	used.Set(0)
	for _, p := range s.dirPages {
		used.Set(uint(p))
	}

	r := &Report{
		Pages:     s.pages,
		Directory: len(s.dirPages),
		Chunks:    len(s.order),
		Corrupt:   make(map[chunk.Pos]error),
	}
	for _, pos := range s.order {
		live, slack, err := s.walk(s.known[pos].firstPage, used)
		r.Live += live
		r.Slack += slack
		if err != nil {
			r.Corrupt[pos] = err
		}
	}
	r.Dead = int(s.pages) - int(used.Count())
	return r, nil
}

// walk marks every page of the chain at first in used.
func (s *Store) walk(first uint32, used *bitset.BitSet) (live, slack int, err error) {
	total, err := s.readU32(s.offset(first))
	if err != nil {
		return 0, 0, err
	}

	left := int(total)
	page, hdr := first, 8
	for {
		if used.Test(uint(page)) {
			return live, slack, fmt.Errorf("%w: page %d is claimed twice", ErrCorrupt, page)
		}
		used.Set(uint(page))

		if left > 0 || page == first {
			live++
		} else {
			slack++
		}
		left -= s.pageSize - hdr

		next, err := s.readU32(s.offset(page) + int64(hdr) - 4)
		if err != nil {
			return live, slack, err
		}
		if next == 0 {
			if left > 0 {
				return live, slack, fmt.Errorf("%w: chain at page %d is %d bytes short", ErrCorrupt, first, left)
			}
			return live, slack, nil
		}
		if !s.validNext(next) {
			return live, slack, fmt.Errorf("%w: page %d links to %d", ErrCorrupt, page, next)
		}
		page, hdr = next, 4
	}
}
