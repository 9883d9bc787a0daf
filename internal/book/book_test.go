package book

import (
	"bytes"
	"testing"

	"github.com/stormchess/storm/internal/board"
)

func TestBookMiss(t *testing.T) {
	book := New()
	pos := board.NewPosition()

	move, found := book.Probe(pos)
	if found {
		t.Error("Expected book miss on empty book")
	}
	if move != board.NoMove {
		t.Errorf("Expected NoMove on miss, got %s", move.String())
	}
}

func TestNativeBookRoundTrip(t *testing.T) {
	pos := board.NewPosition()

	b := New()
	b.add(pos.Hash, board.NewMove(board.E2, board.E4), 30)
	b.add(pos.Hash, board.NewMove(board.D2, board.D4), 10)
	// A second record for e2e4 should accumulate, not duplicate.
	b.add(pos.Hash, board.NewMove(board.E2, board.E4), 5)

	var buf bytes.Buffer
	if err := b.SaveWriter(&buf); err != nil {
		t.Fatalf("SaveWriter failed: %v", err)
	}

	loaded, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}

	entries := loaded.ProbeAll(pos)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Move.From() != board.E2 || entries[0].Move.To() != board.E4 {
		t.Errorf("expected e2e4 to sort first (highest weight), got %s", entries[0].Move.String())
	}
	if entries[0].Weight != 35 {
		t.Errorf("expected accumulated weight 35, got %d", entries[0].Weight)
	}
}

func TestNativeBookBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NOPE")
	if _, err := LoadReader(&buf); err == nil {
		t.Error("expected error for bad magic, got nil")
	}
}

func TestNativeBookMerge(t *testing.T) {
	pos := board.NewPosition()

	a := New()
	a.add(pos.Hash, board.NewMove(board.E2, board.E4), 10)

	b := New()
	b.add(pos.Hash, board.NewMove(board.E2, board.E4), 7)

	a.Merge(b)

	entries := a.ProbeAll(pos)
	if len(entries) != 1 || entries[0].Weight != 17 {
		t.Fatalf("expected merged weight 17, got %+v", entries)
	}
}

func TestNativeBookMergeTakesMaxCardinality(t *testing.T) {
	a := New()
	a.Cardinality = 10
	b := New()
	b.Cardinality = 40

	a.Merge(b)

	if a.Cardinality != 40 {
		t.Errorf("expected merged cardinality 40, got %d", a.Cardinality)
	}
}

// TestProbeRespectsCardinality exercises the ply-depth cutoff: once a game
// has passed Cardinality half-moves, Probe must refuse even when the
// position still has a matching entry (see Search.cpp's
// pos.GetTotalHalfMoves() <= m_Book->GetCardinality() gate).
func TestProbeRespectsCardinality(t *testing.T) {
	pos := board.NewPosition()
	// Two half-moves into the game; the full-move number is not part of
	// the Zobrist hash, so the book entry below still matches.
	pos.FullMoveNumber = 2

	b := New()
	b.add(pos.Hash, board.NewMove(board.E2, board.E4), 10)
	b.Cardinality = 1

	if _, found := b.Probe(pos); found {
		t.Error("expected Probe to refuse at half-move 2 when Cardinality is 1")
	}

	// ProbeAll ignores the cutoff; it should still see the entry.
	if entries := b.ProbeAll(pos); len(entries) != 1 {
		t.Errorf("expected ProbeAll to ignore cardinality cutoff, got %d entries", len(entries))
	}

	b.Cardinality = 2
	if _, found := b.Probe(pos); !found {
		t.Error("expected Probe to succeed once Cardinality covers the current half-move count")
	}
}
