package world

import (
	"errors"
	"fmt"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/badgerstore"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nw1"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/sqlitestore"
)

var ErrUnknownProvider = errors.New("world: unknown provider")

// Provider persists chunks. LoadChunk returns an error wrapping
// nw1.ErrChunkNotFound for chunks never saved and nw1.ErrCorrupt for
// payloads that do not decode.
type Provider interface {
	CanLoadChunk(pos chunk.Pos) bool
	LoadChunk(pos chunk.Pos) (*chunk.Chunk, error)
	SaveChunk(c *chunk.Chunk) error
	Sync() error
	Close() error
}

const (
	// ProviderNW1 is the paged single-file format.
	ProviderNW1 = "nw1"
	// ProviderBadger keeps one key per chunk in a Badger directory.
	ProviderBadger = "badger"
	// ProviderSQLite keeps one row per chunk in a SQLite file.
	ProviderSQLite = "sqlite"
)

// ProviderExt returns the file extension a provider's worlds use.
func ProviderExt(name string) string {
	return "." + name
}

// OpenProvider opens the world at path with the named provider. pageSize
// only applies to nw1.
func OpenProvider(name, path string, pageSize int) (Provider, error) {
	switch name {
	case ProviderNW1:
		s, err := nw1.Open(path, nw1.Options{PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderBadger:
		s, err := badgerstore.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderSQLite:
		s, err := sqlitestore.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
