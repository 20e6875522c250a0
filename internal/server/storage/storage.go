package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/voxel-server/internal/server/config"
)

const (
	configFile = "config.yaml"
	worldsDir  = "worlds"
)

// Storage handles the on-disk layout of a data directory: config.yaml at the
// root and one store file per world under worlds/.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a new Storage rooted at dir, creating subdirectories as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	dirs := []string{
		dir,
		filepath.Join(dir, worldsDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return &Storage{dir: dir, log: log}, nil
}

func (s *Storage) Dir() string { return s.dir }

// WorldPath returns the store file of the named world, worlds/<name><ext>.
func (s *Storage) WorldPath(name, ext string) string {
	return filepath.Join(s.dir, worldsDir, name+ext)
}

// Worlds lists the world names that have a store file with extension ext.
func (s *Storage) Worlds(ext string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, worldsDir))
	if err != nil {
		return nil, fmt.Errorf("read worlds: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

// LoadConfig reads config.yaml into cfg. If the file does not exist, cfg is
// unchanged and found is false.
func (s *Storage) LoadConfig(cfg *config.Config) (found bool, err error) {
	path := filepath.Join(s.dir, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("parse config: %w", err)
	}
	s.log.Info("loaded config from file", "path", path)
	return true, nil
}

// SaveConfig writes cfg to config.yaml atomically.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	return s.atomicWriteYAML(filepath.Join(s.dir, configFile), cfg)
}

// atomicWriteYAML marshals v to YAML and writes it atomically using a temp file + rename.
func (s *Storage) atomicWriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
