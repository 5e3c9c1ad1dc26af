// Package book maintains the opening book: a map from canonical position
// hash to best column, built offline by a worker pool and persisted as a
// flat binary file of (u64 little-endian hash, u8 column) records.
package book

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ledezmar/quatro/board"
)

const recordSize = 9

// Book is safe for concurrent use; one mutex guards the map for lookups,
// inserts and snapshots.
type Book struct {
	mu      sync.Mutex
	entries map[uint64]uint8
}

// New returns an empty book.
func New() *Book {
	return &Book{entries: make(map[uint64]uint8)}
}

// Len returns the number of stored positions.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Lookup returns the stored best column for p, de-mirrored into p's own
// orientation.
func (b *Book) Lookup(p board.Position) (int, bool) {
	hash, mirrored := p.CanonicalHash()
	b.mu.Lock()
	col, ok := b.entries[hash]
	b.mu.Unlock()
	if !ok {
		return board.NoColumn, false
	}
	c := int(col)
	if mirrored {
		c = board.Columns - 1 - c
	}
	return c, true
}

// Contains reports whether the canonical hash is already solved.
func (b *Book) Contains(hash uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[hash]
	return ok
}

// Insert stores a canonical best column under a canonical hash and
// reports whether the entry is new.
func (b *Book) Insert(hash uint64, col uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[hash]; ok {
		return false
	}
	b.entries[hash] = col
	return true
}

// marshal serializes the book under the lock.
func (b *Book) marshal() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := make([]byte, 0, len(b.entries)*recordSize)
	var rec [recordSize]byte
	for hash, col := range b.entries {
		binary.LittleEndian.PutUint64(rec[:8], hash)
		rec[8] = col
		buf = append(buf, rec[:]...)
	}
	return buf
}

// Save writes the book to path. A failed write abandons the snapshot;
// the in-memory book stays authoritative.
func (b *Book) Save(path string) error {
	buf := b.marshal()
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		log.Err(err).Str("path", path).Msg("book-save-failed")
		return err
	}
	log.Info().Str("path", path).
		Int("entries", len(buf)/recordSize).
		Uint64("checksum", xxhash.Sum64(buf)).
		Msg("book-saved")
	return nil
}

// Load merges the records in path into the book. A missing file is not
// an error; an incomplete trailing record is dropped and everything
// before it kept.
func (b *Book) Load(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("no-opening-book-found")
			return nil
		}
		return err
	}
	if extra := len(buf) % recordSize; extra != 0 {
		log.Warn().Str("path", path).Int("trailing-bytes", extra).
			Msg("book-truncated-record-dropped")
		buf = buf[:len(buf)-extra]
	}
	b.mu.Lock()
	for off := 0; off < len(buf); off += recordSize {
		hash := binary.LittleEndian.Uint64(buf[off : off+8])
		b.entries[hash] = buf[off+8]
	}
	n := len(b.entries)
	b.mu.Unlock()
	log.Info().Str("path", path).
		Int("entries", n).
		Uint64("checksum", xxhash.Sum64(buf)).
		Msg("book-loaded")
	return nil
}

// MoveDistribution returns how often each column appears as a book move,
// for build-progress logging.
func (b *Book) MoveDistribution() map[uint8]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return lo.CountValues(lo.Values(b.entries))
}
