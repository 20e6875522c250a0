// Package gen produces fresh chunks. Generators are looked up by name and
// run on a pool of worker goroutines.
package gen

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

var ErrUnknownGenerator = errors.New("gen: unknown generator")

// Generator fills an empty chunk with terrain. Implementations are shared by
// all workers and must be safe for concurrent use.
type Generator interface {
	Name() string
	Generate(c *chunk.Chunk)
}

// Factory builds a generator. Block names are resolved through reg once, at
// construction.
type Factory func(reg *block.Registry, seed int64) (Generator, error)

var factories = map[string]Factory{}

// Register makes a generator available by name. It is meant to be called
// from init functions.
func Register(name string, f Factory) {
	factories[name] = f
}

// New builds the generator registered under name.
func New(name string, reg *block.Registry, seed int64) (Generator, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
	g, err := f(reg, seed)
	if err != nil {
		return nil, fmt.Errorf("create generator %s: %w", name, err)
	}
	return g, nil
}

// Names returns the registered generator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(FlatgrassName, NewFlatgrass)
	Register(HillsName, NewHills)
}

// lookup resolves block names, failing on the first unknown one.
func lookup(reg *block.Registry, names ...string) ([]uint16, error) {
	ids := make([]uint16, len(names))
	for i, n := range names {
		id, err := reg.ID(n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
