package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/stormchess/storm/internal/board"
)

// BookEntry is one candidate move for a book position, weighted by how many
// times it was played in the games the book was built from.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Book is an opening book keyed by the engine's own Zobrist hash
// (pos.Hash). Cardinality bounds how deep into a game the book is
// consulted: Probe refuses once pos.TotalHalfMoves() exceeds it.
type Book struct {
	entries     map[uint64][]BookEntry
	Cardinality uint32
}

// New creates an empty book.
func New() *Book {
	return &Book{entries: make(map[uint64][]BookEntry)}
}

// magic is the 4-byte tag at the head of a Storm binary book file.
const magic = "SBK1"

// Load reads Storm's binary opening book format:
//
//	4 bytes  magic "SBK1"
//	8 bytes  entry_count (little-endian u64)
//	4 bytes  cardinality (little-endian u32)
//	then entry_count records of:
//	  8 bytes  zobrist hash (little-endian u64)
//	  1 byte   from square
//	  1 byte   to square
//	  4 bytes  count (little-endian i32)
//
// Records sharing a (hash, from, to) accumulate into a single entry with
// count as its weight, clamped to uint16 (counts this large only happen
// after merging many millions of training games).
func Load(filename string) (*Book, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader loads a book from an arbitrary reader.
func LoadReader(r io.Reader) (*Book, error) {
	b := New()

	var tag [4]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}
	if string(tag[:]) != magic {
		return nil, fmt.Errorf("book: bad magic %q, want %q", tag, magic)
	}

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	entryCount := binary.LittleEndian.Uint64(header[0:8])
	cardinality := binary.LittleEndian.Uint32(header[8:12])
	if cardinality > b.Cardinality {
		b.Cardinality = cardinality
	}

	var rec [14]byte
	for i := uint64(0); i < entryCount; i++ {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, err
		}
		hash := binary.LittleEndian.Uint64(rec[0:8])
		from := board.Square(rec[8])
		to := board.Square(rec[9])
		count := int32(binary.LittleEndian.Uint32(rec[10:14]))

		move := board.NewMove(from, to)
		b.add(hash, move, count)
	}

	return b, nil
}

// add merges a (hash, from, to) record into the book, accumulating count
// into an existing entry's weight if one matches. Bumps Cardinality to at
// least 1 on any insert, mirroring OpeningBook::AppendEntry's invariant
// that a non-empty book always has a positive cardinality.
func (b *Book) add(hash uint64, move board.Move, count int32) {
	if b.Cardinality < 1 {
		b.Cardinality = 1
	}
	entries := b.entries[hash]
	for i := range entries {
		if entries[i].Move.From() == move.From() && entries[i].Move.To() == move.To() {
			entries[i].Weight = clampWeight(int64(entries[i].Weight) + int64(count))
			b.entries[hash] = entries
			return
		}
	}
	b.entries[hash] = append(entries, BookEntry{Move: move, Weight: clampWeight(int64(count))})
}

func clampWeight(n int64) uint16 {
	if n < 0 {
		return 0
	}
	if n > 0xFFFF {
		return 0xFFFF
	}
	return uint16(n)
}

// Save writes the book out in Storm's binary format.
func (b *Book) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.SaveWriter(f)
}

// SaveWriter writes the book to an arbitrary writer.
func (b *Book) SaveWriter(w io.Writer) error {
	var entryCount uint64
	for _, entries := range b.entries {
		entryCount += uint64(len(entries))
	}

	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[0:8], entryCount)
	binary.LittleEndian.PutUint32(header[8:12], b.Cardinality)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	hashes := make([]uint64, 0, len(b.entries))
	for h := range b.entries {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	var rec [14]byte
	for _, hash := range hashes {
		for _, e := range b.entries[hash] {
			binary.LittleEndian.PutUint64(rec[0:8], hash)
			rec[8] = byte(e.Move.From())
			rec[9] = byte(e.Move.To())
			binary.LittleEndian.PutUint32(rec[10:14], uint32(e.Weight))
			if _, err := w.Write(rec[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Merge folds other's entries into b, accumulating counts for matching
// (hash, from, to) records and taking the max of the two cardinalities —
// the resolution for multi-file merges (see DESIGN.md).
func (b *Book) Merge(other *Book) {
	if other.Cardinality > b.Cardinality {
		b.Cardinality = other.Cardinality
	}
	for hash, entries := range other.entries {
		for _, e := range entries {
			b.add(hash, e.Move, int32(e.Weight))
		}
	}
}

// Probe looks up a position in the book and returns a move using weighted
// random selection. Returns false once the game has gone past Cardinality
// half-moves, even if the position still has a matching entry.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if b == nil || pos.TotalHalfMoves() > int(b.Cardinality) {
		return board.NoMove, false
	}

	entries := b.entries[pos.Hash]
	if len(entries) == 0 {
		return board.NoMove, false
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})

	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	if totalWeight == 0 {
		return verifyAndConvert(pos, entries[0].Move), true
	}

	r := rand.Uint32() % totalWeight
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return verifyAndConvert(pos, e.Move), true
		}
	}

	return verifyAndConvert(pos, entries[0].Move), true
}

// ProbeAll returns all book moves for the position, sorted by weight,
// ignoring the Cardinality cutoff (used for book inspection, not play).
func (b *Book) ProbeAll(pos *board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	entries, ok := b.entries[pos.Hash]
	if !ok || len(entries) == 0 {
		return nil
	}

	result := make([]BookEntry, len(entries))
	copy(result, entries)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// verifyAndConvert finds the matching legal move so castling/en-passant
// flags come from the position rather than the book record.
func verifyAndConvert(pos *board.Position, move board.Move) board.Move {
	legalMoves := pos.GenerateLegalMoves()
	from := move.From()
	to := move.To()

	for i := 0; i < legalMoves.Len(); i++ {
		lm := legalMoves.Get(i)
		if lm.From() == from && lm.To() == to {
			if move.IsPromotion() && lm.IsPromotion() {
				if move.Promotion() == lm.Promotion() {
					return lm
				}
			} else if !move.IsPromotion() && !lm.IsPromotion() {
				return lm
			}
		}
	}

	return board.NoMove
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
