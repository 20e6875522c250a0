// Package sqlitestore keeps chunks in a SQLite table, one row per chunk
// holding the nw1 payload encoding.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nw1"
)

const schema = `CREATE TABLE IF NOT EXISTS chunks (
	cx   INTEGER NOT NULL,
	cz   INTEGER NOT NULL,
	data BLOB    NOT NULL,
	PRIMARY KEY (cx, cz)
) WITHOUT ROWID;`

// Store is an open SQLite world.
type Store struct {
	db    *sql.DB
	path  string
	known map[chunk.Pos]struct{}
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, path: path, known: make(map[chunk.Pos]struct{})}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	rows, err := s.db.Query(`SELECT cx, cz FROM chunks`)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pos chunk.Pos
		if err := rows.Scan(&pos.X, &pos.Z); err != nil {
			return fmt.Errorf("list chunks: %w", err)
		}
		s.known[pos] = struct{}{}
	}
	return rows.Err()
}

func (s *Store) Path() string { return s.path }

func (s *Store) CanLoadChunk(pos chunk.Pos) bool {
	_, ok := s.known[pos]
	return ok
}

func (s *Store) LoadChunk(pos chunk.Pos) (*chunk.Chunk, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM chunks WHERE cx = ? AND cz = ?`, pos.X, pos.Z).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", nw1.ErrChunkNotFound, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %s: %w", pos, err)
	}
	return nw1.DecodeChunk(pos, data)
}

func (s *Store) SaveChunk(c *chunk.Chunk) error {
	pos := c.Pos()
	_, err := s.db.Exec(
		`INSERT INTO chunks (cx, cz, data) VALUES (?, ?, ?)
		 ON CONFLICT (cx, cz) DO UPDATE SET data = excluded.data`,
		pos.X, pos.Z, nw1.EncodeChunk(c),
	)
	if err != nil {
		return fmt.Errorf("save chunk %s: %w", pos, err)
	}
	s.known[pos] = struct{}{}
	return nil
}

// Sync checkpoints the write-ahead log into the database file.
func (s *Store) Sync() error {
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE);`); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
