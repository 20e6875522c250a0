// Package block holds the immutable block registry shared by the chunk,
// lighting and generator code.
package block

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Namespace is assumed for names given without one.
const Namespace = "minecraft"

// Air is the id every empty cell holds.
const Air uint16 = 0

var ErrNotFound = errors.New("block: not found")

// Block describes one block type.
type Block struct {
	ID          uint16 `yaml:"id"`
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Solid       bool   `yaml:"solid"`
	Transparent bool   `yaml:"transparent"`
}

// Registry maps block names to ids. It is built once at startup and is
// read-only afterwards, so it can be shared between goroutines.
type Registry struct {
	byName map[string]Block
	byID   map[uint16]Block
}

// New builds a registry from blocks. Names without a namespace get
// "minecraft:" prepended. Duplicate names or ids are rejected.
func New(blocks []Block) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Block, len(blocks)),
		byID:   make(map[uint16]Block, len(blocks)),
	}
	for _, b := range blocks {
		b.Name = qualify(b.Name)
		if _, ok := r.byName[b.Name]; ok {
			return nil, fmt.Errorf("duplicate block name %q", b.Name)
		}
		if prev, ok := r.byID[b.ID]; ok {
			return nil, fmt.Errorf("duplicate block id %d (%s, %s)", b.ID, prev.Name, b.Name)
		}
		r.byName[b.Name] = b
		r.byID[b.ID] = b
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(defaults)
	if err != nil {
		panic(err)
	}
	return r
}

type registryFile struct {
	Blocks []Block `yaml:"blocks"`
}

// Load reads a YAML block list from path. Entries override the built-in
// defaults by name; new names are added.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block registry: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse block registry: %w", err)
	}

	merged := make(map[string]Block, len(defaults)+len(f.Blocks))
	for _, b := range defaults {
		merged[qualify(b.Name)] = b
	}
	for _, b := range f.Blocks {
		if b.Name == "" {
			return nil, fmt.Errorf("parse block registry: block %d has no name", b.ID)
		}
		merged[qualify(b.Name)] = b
	}

	list := make([]Block, 0, len(merged))
	for _, b := range merged {
		list = append(list, b)
	}
	return New(list)
}

// ID returns the id registered for name.
func (r *Registry) ID(name string) (uint16, error) {
	b, ok := r.byName[qualify(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b.ID, nil
}

// ByID returns the block registered under id.
func (r *Registry) ByID(id uint16) (Block, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// IsOpaque reports whether sky light cannot pass through id.
// Unregistered ids are opaque unless they are air.
func (r *Registry) IsOpaque(id uint16) bool {
	if r != nil {
		if b, ok := r.byID[id]; ok {
			return b.Solid && !b.Transparent
		}
	}
	return id != Air
}

// IsTransparent reports whether id is completely see-through. This is not
// the negation of IsOpaque: water is neither.
func (r *Registry) IsTransparent(id uint16) bool {
	if r != nil {
		if b, ok := r.byID[id]; ok {
			return b.Transparent
		}
	}
	return id == Air
}

// All returns every block ordered by id.
func (r *Registry) All() []Block {
	out := make([]Block, 0, len(r.byID))
	for _, b := range r.byID {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func qualify(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return Namespace + ":" + name
}
