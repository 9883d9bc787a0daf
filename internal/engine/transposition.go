package engine

import (
	"github.com/stormchess/storm/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key        uint32     // Upper 32 bits of Zobrist hash for verification
	BestMove   board.Move // Best move found
	Score      int16      // Score (bounded by flag)
	StaticEval int16      // Static evaluation at the time of storage, for correction-history seeding on re-hit
	Depth      int8       // Search depth
	Flag       TTFlag     // Type of bound
	IsPV       bool       // Entry was stored from a PV (exact-score) node
}

// TranspositionTable is a hash table for storing search results. Entries are
// shared, lock-free, and torn-read tolerant across every Lazy-SMP worker:
// a racing Store can clobber a Probe mid-read, but a stale or partially
// written entry only ever costs a missed cutoff, never a wrong move.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	// Calculate number of entries
	entrySize := uint64(14) // Approximate size of TTEntry
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize

	// Round down to power of 2 for fast modulo
	numEntries = roundDownToPowerOf2(numEntries)

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++

	idx := hash & tt.mask
	entry := tt.entries[idx]

	// Verify the key matches
	if entry.Key == uint32(hash>>32) && entry.Depth > 0 {
		tt.hits++
		return entry, true
	}

	return TTEntry{}, false
}

// Store saves a position in the transposition table. Replacement is keyed
// purely on the incoming entry's quality, not on search generation: a
// different key always loses its slot, while a matching key is only
// overwritten by an exact score or by a search whose depth is greater than
// the stored depth minus 4. This keeps much shallower re-searches (four or
// more plies below the stored depth, e.g. from a Lazy-SMP helper thread
// lagging behind the main thread) from bumping a deep, still-useful bound.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, isPV bool) {
	idx := hash & tt.mask
	entry := &tt.entries[idx]

	key := uint32(hash >> 32)
	keyMatched := entry.Key == key
	if !keyMatched || flag == TTExact || depth > int(entry.Depth)-4 {
		// A fail-low store at a key match may not have a best move; keep
		// whatever move was already there rather than clobbering it with
		// NoMove. A key mismatch always starts fresh.
		if bestMove != board.NoMove || !keyMatched {
			entry.BestMove = bestMove
		}
		entry.Key = key
		entry.Score = int16(score)
		entry.Depth = int8(depth)
		entry.Flag = flag
		entry.IsPV = isPV || (keyMatched && entry.IsPV)
	}
}

// StoreEval records the static evaluation alongside whatever is already in
// the slot, without touching the score/depth/bound. Called on every node,
// even ones that don't produce a search result worth storing, so later
// probes can seed correction history from it.
func (tt *TranspositionTable) StoreEval(hash uint64, staticEval int) {
	idx := hash & tt.mask
	entry := &tt.entries[idx]
	if entry.Key == uint32(hash>>32) {
		entry.StaticEval = int16(staticEval)
	}
}

// NewSearch is a no-op retained for API compatibility with callers that
// mark search boundaries; replacement no longer depends on generation.
func (tt *TranspositionTable) NewSearch() {}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	// Sample first 1000 entries
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT adjusts a score read from the transposition table.
// Mate scores need to be adjusted based on ply distance.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
