// Package nw1 implements the nw1 world format: a single file of fixed-size
// pages holding chunk payloads in linked page chains, indexed by a directory
// that is itself a chain of pages.
//
// Layout, all integers little-endian:
//
//	page 0        header, zeroed
//	page 1        first directory page: next u32, then (cx i32, cz i32, first u32) entries
//	payload head  total_len u32, next u32, data
//	payload tail  next u32, data
//
// A next pointer of 0 ends a chain and a first page of 0 ends the directory.
// Pages are only ever appended; space freed by a shrinking chunk stays linked
// to its chain and is reused when the chunk grows again.
package nw1

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

const (
	// DefaultPageSize leaves room for exactly 85 directory entries per page.
	DefaultPageSize = 1024

	entrySize     = 12
	directoryPage = 1
	firstDataPage = 2
)

var (
	ErrChunkNotFound = errors.New("nw1: chunk not found")
	ErrCorrupt       = errors.New("nw1: corrupt store")
	ErrClosed        = errors.New("nw1: store closed")
	ErrPageSize      = errors.New("nw1: invalid page size")
)

// Options configures Open. The zero value uses DefaultPageSize.
type Options struct {
	PageSize int
}

// Entry is a directory record.
type Entry struct {
	Pos       chunk.Pos
	Offset    int64 // file offset of the entry
	FirstPage uint32
}

type knownChunk struct {
	offset    int64
	firstPage uint32
}

// Store is an open nw1 file. It is not safe for concurrent use; the world
// that owns it serializes all calls.
type Store struct {
	f        *os.File
	path     string
	pageSize int
	perPage  int
	pages    uint32

	dirPages []uint32
	entries  int
	known    map[chunk.Pos]knownChunk
	order    []chunk.Pos
}

// ValidPageSize reports whether a directory page of size p holds a whole
// number of entries.
func ValidPageSize(p int) bool {
	return p >= 4+entrySize && (p-4)%entrySize == 0
}

// Open opens the store at path, creating it with an empty directory if it
// does not exist.
func Open(path string, opts Options) (*Store, error) {
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if !ValidPageSize(opts.PageSize) {
		return nil, fmt.Errorf("%w: %d", ErrPageSize, opts.PageSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &Store{
		f:        f,
		path:     path,
		pageSize: opts.PageSize,
		perPage:  (opts.PageSize - 4) / entrySize,
		known:    make(map[chunk.Pos]knownChunk),
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat store: %w", err)
	}
	if fi.Size() == 0 {
		err = s.create()
	} else {
		err = s.readDirectory(fi.Size())
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// create writes the header page and an empty directory page.
func (s *Store) create() error {
	if _, err := s.f.WriteAt(make([]byte, 2*s.pageSize), 0); err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	s.pages = 2
	s.dirPages = []uint32{directoryPage}
	return nil
}

func (s *Store) readDirectory(size int64) error {
	if size%int64(s.pageSize) != 0 || size < int64(2*s.pageSize) {
		return fmt.Errorf("%w: size %d is not a whole number of %d-byte pages", ErrCorrupt, size, s.pageSize)
	}
	s.pages = uint32(size / int64(s.pageSize))

	buf := make([]byte, s.pageSize)
	for page := uint32(directoryPage); page != 0; {
		if page >= s.pages || len(s.dirPages) >= int(s.pages) {
			return fmt.Errorf("%w: bad directory page %d", ErrCorrupt, page)
		}
		if err := s.readFull(buf, s.offset(page)); err != nil {
			return fmt.Errorf("read directory page %d: %w", page, err)
		}
		s.dirPages = append(s.dirPages, page)
		next := binary.LittleEndian.Uint32(buf)

		full := true
		for i := 0; i < s.perPage; i++ {
			e := buf[4+i*entrySize:]
			first := binary.LittleEndian.Uint32(e[8:])
			if first == 0 {
				full = false
				break
			}
			if first < firstDataPage || first >= s.pages {
				return fmt.Errorf("%w: directory entry %d points at page %d", ErrCorrupt, s.entries, first)
			}
			pos := chunk.Pos{
				X: int32(binary.LittleEndian.Uint32(e[0:])),
				Z: int32(binary.LittleEndian.Uint32(e[4:])),
			}
			if _, ok := s.known[pos]; !ok {
				s.order = append(s.order, pos)
			}
			s.known[pos] = knownChunk{
				offset:    s.offset(page) + 4 + int64(i*entrySize),
				firstPage: first,
			}
			s.entries++
		}
		if !full && next != 0 {
			return fmt.Errorf("%w: directory page %d is not full but links to %d", ErrCorrupt, page, next)
		}
		page = next
	}
	return nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	if s.f == nil {
		return ErrClosed
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// Sync flushes written pages to stable storage.
func (s *Store) Sync() error {
	if s.f == nil {
		return ErrClosed
	}
	return s.f.Sync()
}

func (s *Store) Path() string  { return s.path }
func (s *Store) PageSize() int { return s.pageSize }

// Pages returns the number of pages in the file.
func (s *Store) Pages() uint32 { return s.pages }

// CanLoadChunk reports whether pos has a directory entry.
func (s *Store) CanLoadChunk(pos chunk.Pos) bool {
	_, ok := s.known[pos]
	return ok
}

// Chunks lists the directory in on-disk order.
func (s *Store) Chunks() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, pos := range s.order {
		kc := s.known[pos]
		out = append(out, Entry{Pos: pos, Offset: kc.offset, FirstPage: kc.firstPage})
	}
	return out
}

// LoadChunk reads the chunk at pos. It returns ErrChunkNotFound if the
// chunk was never saved and an ErrCorrupt error if its page chain is broken.
func (s *Store) LoadChunk(pos chunk.Pos) (*chunk.Chunk, error) {
	if s.f == nil {
		return nil, ErrClosed
	}
	kc, ok := s.known[pos]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, pos)
	}
	data, err := s.readChain(kc.firstPage)
	if err != nil {
		return nil, fmt.Errorf("load chunk %s: %w", pos, err)
	}
	return DecodeChunk(pos, data)
}

// SaveChunk writes c, reusing its existing pages if it was saved before.
// The dirty flag is left for the caller to clear.
func (s *Store) SaveChunk(c *chunk.Chunk) error {
	if s.f == nil {
		return ErrClosed
	}
	data := EncodeChunk(c)
	pos := c.Pos()

	if kc, ok := s.known[pos]; ok {
		if err := s.overwriteChain(kc.firstPage, data); err != nil {
			return fmt.Errorf("save chunk %s: %w", pos, err)
		}
		return nil
	}

	first, err := s.appendChain(data, true)
	if err != nil {
		return fmt.Errorf("save chunk %s: %w", pos, err)
	}
	if err := s.addEntry(pos, first); err != nil {
		return fmt.Errorf("save chunk %s: %w", pos, err)
	}
	return nil
}

func (s *Store) offset(page uint32) int64 {
	return int64(page) * int64(s.pageSize)
}

func (s *Store) readFull(p []byte, off int64) error {
	_, err := s.f.ReadAt(p, off)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read past end at offset %d", ErrCorrupt, off)
	}
	return err
}

func (s *Store) readU32(off int64) (uint32, error) {
	var b [4]byte
	if err := s.readFull(b[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (s *Store) writeU32(off int64, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := s.f.WriteAt(b[:], off)
	return err
}

// validNext reports whether a chain may continue at page.
func (s *Store) validNext(page uint32) bool {
	return page >= firstDataPage && page < s.pages
}

// appendChain writes data as a fresh chain of pages at the end of the file
// and returns its first page. With head set the first page carries the total
// length; otherwise every page is a continuation page.
func (s *Store) appendChain(data []byte, head bool) (uint32, error) {
	start := s.pages
	var buf []byte
	left := data
	for i := uint32(0); ; i++ {
		page := make([]byte, s.pageSize)
		hdr := 0
		if i == 0 && head {
			binary.LittleEndian.PutUint32(page, uint32(len(data)))
			hdr = 4
		}
		room := s.pageSize - hdr - 4
		take := min(room, len(left))

		var next uint32
		if len(left) > room {
			next = start + i + 1
		}
		binary.LittleEndian.PutUint32(page[hdr:], next)
		copy(page[hdr+4:], left[:take])
		left = left[take:]
		buf = append(buf, page...)
		if len(left) == 0 {
			break
		}
	}

	if _, err := s.f.WriteAt(buf, s.offset(start)); err != nil {
		return 0, fmt.Errorf("append pages: %w", err)
	}
	s.pages += uint32(len(buf) / s.pageSize)
	return start, nil
}

// overwriteChain rewrites the chain starting at first with data. Existing
// pages are reused in order; pages past the end of data keep their links.
// When the chain runs out, new pages are appended and linked from its last page.
func (s *Store) overwriteChain(first uint32, data []byte) error {
	if err := s.writeU32(s.offset(first), uint32(len(data))); err != nil {
		return fmt.Errorf("write length: %w", err)
	}

	page, hdr := first, 8
	left := data
	for {
		off := s.offset(page)
		next, err := s.readU32(off + int64(hdr) - 4)
		if err != nil {
			return fmt.Errorf("read page %d: %w", page, err)
		}

		room := s.pageSize - hdr
		take := min(room, len(left))
		body := make([]byte, room)
		copy(body, left[:take])
		left = left[take:]

		if len(left) > 0 && next == 0 {
			next = s.pages
			if err := s.writeU32(off+int64(hdr)-4, next); err != nil {
				return fmt.Errorf("link page %d: %w", page, err)
			}
			if _, err := s.f.WriteAt(body, off+int64(hdr)); err != nil {
				return fmt.Errorf("write page %d: %w", page, err)
			}
			_, err := s.appendChain(left, false)
			return err
		}

		if _, err := s.f.WriteAt(body, off+int64(hdr)); err != nil {
			return fmt.Errorf("write page %d: %w", page, err)
		}
		if len(left) == 0 {
			return nil
		}
		if !s.validNext(next) {
			return fmt.Errorf("%w: page %d links to %d", ErrCorrupt, page, next)
		}
		page, hdr = next, 4
	}
}

// readChain reads the payload whose head page is first.
func (s *Store) readChain(first uint32) ([]byte, error) {
	total, err := s.readU32(s.offset(first))
	if err != nil {
		return nil, err
	}
	if int64(total) > int64(s.pages)*int64(s.pageSize) {
		return nil, fmt.Errorf("%w: page %d declares %d bytes", ErrCorrupt, first, total)
	}

	data := make([]byte, total)
	page, hdr, got := first, 8, 0
	for {
		off := s.offset(page)
		next, err := s.readU32(off + int64(hdr) - 4)
		if err != nil {
			return nil, err
		}
		take := min(s.pageSize-hdr, len(data)-got)
		if err := s.readFull(data[got:got+take], off+int64(hdr)); err != nil {
			return nil, err
		}
		got += take
		if got == len(data) {
			return data, nil
		}
		if !s.validNext(next) {
			return nil, fmt.Errorf("%w: chain at page %d ends after %d of %d bytes", ErrCorrupt, first, got, total)
		}
		page, hdr = next, 4
	}
}

// addEntry records pos in the directory, growing the directory chain by a
// page when the last one is full.
func (s *Store) addEntry(pos chunk.Pos, first uint32) error {
	var e [entrySize]byte
	binary.LittleEndian.PutUint32(e[0:], uint32(pos.X))
	binary.LittleEndian.PutUint32(e[4:], uint32(pos.Z))
	binary.LittleEndian.PutUint32(e[8:], first)

	slot, idx := s.entries/s.perPage, s.entries%s.perPage
	var off int64
	if slot < len(s.dirPages) {
		off = s.offset(s.dirPages[slot]) + 4 + int64(idx*entrySize)
		if _, err := s.f.WriteAt(e[:], off); err != nil {
			return fmt.Errorf("write directory entry: %w", err)
		}
	} else {
		page := s.pages
		buf := make([]byte, s.pageSize)
		copy(buf[4:], e[:])
		if _, err := s.f.WriteAt(buf, s.offset(page)); err != nil {
			return fmt.Errorf("append directory page: %w", err)
		}
		s.pages++
		last := s.dirPages[len(s.dirPages)-1]
		if err := s.writeU32(s.offset(last), page); err != nil {
			return fmt.Errorf("link directory page: %w", err)
		}
		s.dirPages = append(s.dirPages, page)
		off = s.offset(page) + 4
	}

	s.entries++
	s.known[pos] = knownChunk{offset: off, firstPage: first}
	s.order = append(s.order, pos)
	return nil
}
