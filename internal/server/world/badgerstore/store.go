// Package badgerstore keeps chunks in a Badger key-value directory, one key
// per chunk holding the nw1 payload encoding.
package badgerstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nw1"
)

var keyPrefix = []byte("chunk:")

// Store is an open Badger world. Like nw1.Store it expects a single caller.
type Store struct {
	db    *badger.DB
	path  string
	known map[chunk.Pos]struct{}
}

// Open opens or creates the Badger directory at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s := &Store{db: db, path: path, known: make(map[chunk.Pos]struct{})}
	if err := s.scan(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func key(pos chunk.Pos) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", keyPrefix, pos.X, pos.Z))
}

func parseKey(k []byte) (chunk.Pos, error) {
	var pos chunk.Pos
	if _, err := fmt.Sscanf(string(k[len(keyPrefix):]), "%d:%d", &pos.X, &pos.Z); err != nil {
		return pos, fmt.Errorf("%w: bad key %q", nw1.ErrCorrupt, k)
	}
	return pos, nil
}

// scan indexes every stored chunk key without reading values.
func (s *Store) scan() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			pos, err := parseKey(it.Item().Key())
			if err != nil {
				return err
			}
			s.known[pos] = struct{}{}
		}
		return nil
	})
}

func (s *Store) Path() string { return s.path }

func (s *Store) CanLoadChunk(pos chunk.Pos) bool {
	_, ok := s.known[pos]
	return ok
}

func (s *Store) LoadChunk(pos chunk.Pos) (*chunk.Chunk, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(pos))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", nw1.ErrChunkNotFound, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %s: %w", pos, err)
	}
	return nw1.DecodeChunk(pos, data)
}

func (s *Store) SaveChunk(c *chunk.Chunk) error {
	data := nw1.EncodeChunk(c)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(c.Pos()), data)
	})
	if err != nil {
		return fmt.Errorf("save chunk %s: %w", c.Pos(), err)
	}
	s.known[c.Pos()] = struct{}{}
	return nil
}

func (s *Store) Sync() error {
	return s.db.Sync()
}

func (s *Store) Close() error {
	return s.db.Close()
}
